package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"grimm.is/ruleforge/internal/brand"
	"grimm.is/ruleforge/internal/config"
	"grimm.is/ruleforge/internal/firewall"
)

var checkTest bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the firewall definition",
	Long: `Validate the firewall definition, compile it and print a summary.
With --test the script is also passed to iptables-restore --test.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunCheck(contextFor(cmd), cmd.OutOrStdout(), configFile, settings, checkTest)
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkTest, "test", false, "dry-run the script with iptables-restore --test")
	rootCmd.AddCommand(checkCmd)
}

// RunCheck validates the configuration file syntax and semantics.
func RunCheck(ctx context.Context, w io.Writer, configFile string, s *config.Settings, test bool) error {
	if len(configFile) == 0 {
		return fmt.Errorf("usage: %s check [--test] -c <config-file>", brand.BinaryName)
	}

	rs, err := firewall.Load(configFile)
	if err != nil {
		return err
	}
	stats, err := rs.Stats()
	if err != nil {
		return err
	}

	cfg := rs.Config
	Printer.Fprintf(w, "%s\n", success("Configuration valid!"))
	Printer.Fprintf(w, "Schema Version: %s\n", cfg.SchemaVersion)
	Printer.Fprintf(w, "Family: %s\n", rs.Family(s.Family))
	Printer.Fprintf(w, "Config Hash: %s\n", rs.Hash)
	Printer.Fprintf(w, "Zones: %d\n", len(cfg.Zones))
	Printer.Fprintf(w, "Locations: %d\n", len(cfg.Locations))
	Printer.Fprintf(w, "Tables: %d\n", stats.Tables)
	Printer.Fprintf(w, "Chains: %d\n", stats.Chains)
	Printer.Fprintf(w, "Statements: %d\n", stats.Statements)

	if missing := firewall.MissingInterfaces(cfg.Interfaces()); len(missing) > 0 {
		Printer.Fprintf(w, "%s %s\n", warn("Missing interfaces:"), strings.Join(missing, ", "))
	}

	meta, err := firewall.ReadMetadata(brand.AppliedPath())
	if err != nil {
		return fmt.Errorf("failed to read applied ruleset: %w", err)
	}
	if meta != nil {
		Printer.Fprintf(w, "Last Applied: %s\n", firewall.FormatMetadata(meta))
		if meta.ConfigHash != rs.Hash {
			Printer.Fprintf(w, "%s\n", warn("Running ruleset was built from a different configuration"))
		}
	}

	if !test {
		return nil
	}
	script, err := rs.Render()
	if err != nil {
		return err
	}
	if err := newRestorer(s, rs.Family(s.Family)).Test(ctx, script); err != nil {
		return fmt.Errorf("restore test failed: %w", err)
	}
	Printer.Fprintf(w, "%s\n", success("Restore test passed"))
	return nil
}
