// Package cli implements the photobox command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"photobox/internal/logging"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "photobox",
	Short:         "Screenshot pages, diff them against the last session and build a report",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "photobox.yaml", "Pipeline configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("PHOTOBOX_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	return logging.New(os.Stderr, logLevel)
}

// signalContext is cancelled on SIGINT/SIGTERM; running processes get killed.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
