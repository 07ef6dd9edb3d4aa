// Package cli is the hopcheck command tree.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/wikilake/hopcheck/internal/metrics"
)

type ExitCode int

const (
	exitCodeSuccess  = 0
	exitCodeError    = 1
	exitCodeRejected = 2
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func Run() ExitCode {
	// Optional .env for bucket settings; absence is fine.
	_ = godotenv.Load()

	metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)

	rootCmd := &cobra.Command{
		Use:   "hopcheck",
		Short: "Grounding and validation for multi-hop QA benchmark tasks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := cmd.Help()
			if err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
	}

	var verbose bool
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "set debug logging level")

	validate := NewValidateCmd()
	index := NewIndexCmd()
	rootCmd.AddCommand(
		validate.Command(),
		index.Command(),
	)

	if err := rootCmd.Execute(); err != nil {
		return exitCodeError
	}
	if validate.rejected {
		return exitCodeRejected
	}
	return exitCodeSuccess
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}
