// atlasinspect loads texture atlases the way a stagecraft game does and
// reports what the texture manager makes of them.
//
// Usage:
//
//	atlasinspect frames <image> [data]           - List frames and their cut/trim rects
//	atlasinspect pixel <image> [data] -f <frame>  - Print one pixel of a frame
//	atlasinspect extract <image> [data] -o <dir>  - Write every frame as a PNG
//	atlasinspect watch <image> [data]            - Reload and report on every change
//
// The data file is chosen by extension: .json (TexturePacker array or hash),
// .xml (Starling) or .meta (Unity). Without one the image is loaded whole, or
// cut into a grid with --sheet.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	flagSheet   string
	flagVerbose bool
)

var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "atlasinspect"})

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "atlasinspect",
	Short: "Inspect texture atlases as stagecraft loads them",
	Long: `atlasinspect parses an atlas image and its data file with the
stagecraft texture manager and prints the resulting frames.

Examples:
  atlasinspect frames hero.png hero.json
  atlasinspect frames tiles.png --sheet 16x16
  atlasinspect pixel ui.png ui.xml -f button -x 3 -y 4
  atlasinspect extract hero.png hero.json -o out/
  atlasinspect watch hero.png hero.json`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagVerbose {
			logger.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSheet, "sheet", "", "Cut the image into a grid of WxH frames")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log parser warnings and debug output")

	rootCmd.AddCommand(framesCmd)
	rootCmd.AddCommand(pixelCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(watchCmd)
}
