package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"autolrc/config"
	"autolrc/logger"
)

var (
	cfg *config.Config

	flagInput  string
	flagOutput string
)

var rootCmd = &cobra.Command{
	Use:   "autolrc",
	Short: "autolrc turns audio recordings into time-synchronized lyric files.",
	Long: `autolrc processes one audio file or a directory of files: it optionally
isolates vocals, transcribes them through a remote language model, force-aligns
the transcript against the acoustic signal, and writes .lrc/.txt lyric files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if flagInput != "" {
			cfg.InputPath = flagInput
		}
		if flagOutput != "" {
			cfg.OutputPath = flagOutput
		}

		logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: filepath.Join(cfg.LogsPath, "autolrc.log"),
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		})

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		driver, cleanup, err := buildDriver(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signalContext()
		defer stop()

		summary, err := driver.Run(ctx, cfg.InputPath)
		if err != nil {
			return err
		}
		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d files failed", summary.Failed, summary.Total)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagInput, "input", "i", "", "input audio file or directory (overrides INPUT_PATH)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "output directory (overrides OUTPUT_PATH)")
}

// signalContext returns a context cancelled by SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Execute runs the root command. Exits non-zero if any job failed.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
