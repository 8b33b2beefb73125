package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"autolrc/core/pipeline"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the input directory and process audio files as they arrive.",
	RunE: func(cmd *cobra.Command, args []string) error {
		driver, cleanup, err := buildDriver(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signalContext()
		defer stop()

		watcher := pipeline.NewWatcher(driver)
		if err := watcher.Watch(ctx, cfg.InputPath); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
