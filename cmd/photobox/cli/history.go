package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"photobox/internal/core"
	"photobox/internal/history"
	"photobox/internal/pipeline"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or verify the session ledger",
}

var historyInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "List recorded sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := openLedger()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "INDEX\tFINISHED\tSESSION\tJOBS\tFAILED\tSIGNED\tHASH")
		for _, e := range ledger.Entries() {
			failed := 0
			for _, j := range e.Jobs {
				if !j.CaptureOK {
					failed++
				}
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%t\t%s\n",
				e.Index, e.Timestamp, e.SessionID, len(e.Jobs), failed, e.Signature != "", short(e.Hash))
		}
		return tw.Flush()
	},
}

var historyVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Recompute hashes, links and signatures of the ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := core.LoadConfig(configPath)
		if err != nil {
			return err
		}
		ledger, err := pipeline.OpenHistory(cfg)
		if err != nil {
			return err
		}
		trusted, err := pipeline.TrustedKey(cfg)
		if err != nil {
			return err
		}
		if err := ledger.VerifyChain(trusted); err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "history verification ok (%d entries)\n", len(ledger.Entries()))
		return nil
	},
}

func short(h string) string {
	if len(h) > 16 {
		return h[:16]
	}
	return h
}

func openLedger() (*history.Ledger, error) {
	cfg, err := core.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return pipeline.OpenHistory(cfg)
}

func init() {
	historyCmd.AddCommand(historyInspectCmd, historyVerifyCmd)
	rootCmd.AddCommand(historyCmd)
}
