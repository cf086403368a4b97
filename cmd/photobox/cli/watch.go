package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"photobox/internal/core"
	"photobox/internal/pipeline"
	"photobox/internal/watch"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run a session now and again whenever the config file changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		logger := newLogger()
		w := &watch.Watcher{
			Runner:   pipeline.NewRunner(configPath, pipeline.WithLogger(logger)),
			Debounce: watchDebounce,
			Logger:   logger,
			OnDone: func(sum *core.Summary) {
				fmt.Fprintln(cmd.OutOrStdout(), pipeline.Describe(sum))
			},
		}
		return w.Run(ctx)
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "Quiet period after a change before a session starts")
	rootCmd.AddCommand(watchCmd)
}
