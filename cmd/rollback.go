package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"grimm.is/ruleforge/internal/config"
	"grimm.is/ruleforge/internal/firewall"
)

var rollbackFamily string

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Restore the ruleset saved before the last apply",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunRollback(contextFor(cmd), cmd.OutOrStdout(), settings, rollbackFamily)
	},
}

func init() {
	rollbackCmd.Flags().StringVar(&rollbackFamily, "family", "", "ipv4 or ipv6 (defaults to the settings family)")
	rootCmd.AddCommand(rollbackCmd)
}

// RunRollback restores the checkpoint file named in the settings.
func RunRollback(ctx context.Context, w io.Writer, s *config.Settings, family string) error {
	rm := firewall.NewRollbackManager(newRestorer(s, family), s.Checkpoint)
	if err := rm.Rollback(ctx); err != nil {
		return err
	}
	Printer.Fprintf(w, "%s from %s\n", success("Rolled back"), rm.Path())
	return nil
}
