package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagFrame string
	flagX     int
	flagY     int
)

var pixelCmd = &cobra.Command{
	Use:   "pixel <image> [data]",
	Short: "Print the color of one pixel of a frame",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		imagePath, dataPath := atlasArgs(args)
		tm, _, err := loadAtlas(imagePath, dataPath, flagSheet, logger)
		if err != nil {
			return err
		}
		c, ok := tm.GetPixel(flagX, flagY, atlasKey, flagFrame)
		if !ok {
			return fmt.Errorf("(%d,%d) is outside frame %q", flagX, flagY, flagFrame)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "#%02x%02x%02x%02x\n", c.R, c.G, c.B, c.A)
		return nil
	},
}

func init() {
	pixelCmd.Flags().StringVarP(&flagFrame, "frame", "f", "", "Frame name (default: the first frame)")
	pixelCmd.Flags().IntVarP(&flagX, "x", "x", 0, "X within the untrimmed frame")
	pixelCmd.Flags().IntVarP(&flagY, "y", "y", 0, "Y within the untrimmed frame")
}
