package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagOut string

var extractCmd = &cobra.Command{
	Use:   "extract <image> [data]",
	Short: "Write every frame of an atlas as a PNG file",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		imagePath, dataPath := atlasArgs(args)
		tm, _, err := loadAtlas(imagePath, dataPath, flagSheet, logger)
		if err != nil {
			return err
		}
		paths, err := tm.ExportFrames(flagOut, atlasKey)
		for _, p := range paths {
			logger.Debug("wrote frame", "path", p)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d frames to %s\n", len(paths), flagOut)
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVarP(&flagOut, "out", "o", "frames", "Output directory")
}
