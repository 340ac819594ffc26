package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/phanxgames/stagecraft"
	"github.com/spf13/cobra"
)

var framesCmd = &cobra.Command{
	Use:   "frames <image> [data]",
	Short: "List the frames of an atlas",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		imagePath, dataPath := atlasArgs(args)
		_, t, err := loadAtlas(imagePath, dataPath, flagSheet, logger)
		if err != nil {
			return err
		}
		printFrames(cmd.OutOrStdout(), t)
		return nil
	},
}

func printFrames(w io.Writer, t *stagecraft.Texture) {
	names := t.GetFrameNames(false)
	if len(names) == 0 {
		names = []string{stagecraft.BaseFrame}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSOURCE\tCUT\tSIZE\tTRIM\tROTATED")
	for _, name := range names {
		f := t.Get(name)
		trim := "-"
		if f.Trimmed() {
			trim = fmt.Sprintf("%d,%d", f.Data.SpriteSourceSize.X, f.Data.SpriteSourceSize.Y)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d,%d %dx%d\t%dx%d\t%s\t%t\n",
			f.Name, f.SourceIndex, f.CutX, f.CutY, f.CutWidth, f.CutHeight,
			f.RealWidth(), f.RealHeight(), trim, f.Rotated)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d frames, %d sources\n", len(names), len(t.Source))
}
