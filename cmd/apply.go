package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"grimm.is/ruleforge/internal/brand"
	"grimm.is/ruleforge/internal/config"
	"grimm.is/ruleforge/internal/firewall"
	"grimm.is/ruleforge/internal/logging"
)

var applyNoRollback bool

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply the firewall definition",
	Long: `Save the running ruleset as a checkpoint, restore the generated
script, verify every chain exists and roll back on failure.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunApply(contextFor(cmd), cmd.OutOrStdout(), configFile, settings, applyNoRollback)
	},
}

func init() {
	applyCmd.Flags().BoolVar(&applyNoRollback, "no-rollback", false, "apply without saving a checkpoint")
	rootCmd.AddCommand(applyCmd)
}

// RunApply loads, compiles and applies the definition.
func RunApply(ctx context.Context, w io.Writer, configFile string, s *config.Settings, noRollback bool) error {
	rs, err := firewall.Load(configFile)
	if err != nil {
		return err
	}
	if err := applyRuleset(ctx, rs, s, noRollback); err != nil {
		return err
	}
	Printer.Fprintf(w, "%s (config hash %s)\n", success("Ruleset applied"), rs.Hash)
	return nil
}

func applyRuleset(ctx context.Context, rs *firewall.Ruleset, s *config.Settings, noRollback bool) error {
	family := rs.Family(s.Family)
	restorer := newRestorer(s, family)

	a := firewall.NewApplier(restorer)
	a.StatePath = brand.AppliedPath()
	if !noRollback {
		a.Rollback = firewall.NewRollbackManager(restorer, s.Checkpoint)
	}
	checker, err := newChainChecker(family)
	if err != nil {
		logging.Warn("skipping chain verification", "error", err)
	} else {
		a.Checker = checker
	}
	return a.Apply(ctx, rs)
}
