package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"photobox/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one photo session",
	Long: `Run rotates the previous captures to the baseline, captures every
url × screen size, diffs against the baseline when use_image_magick is set
and writes index.html into the root path.

Do not run two sessions against the same root path at the same time.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		runner := pipeline.NewRunner(configPath, pipeline.WithLogger(newLogger()))
		sum, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), pipeline.Describe(sum))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
