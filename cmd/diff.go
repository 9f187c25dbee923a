package cmd

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"

	"grimm.is/ruleforge/internal/config"
	"grimm.is/ruleforge/internal/firewall"
)

// ErrDiffers is returned when the running ruleset does not match.
var ErrDiffers = errors.New("configuration differs from running state")

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare the generated ruleset with the running one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunDiff(contextFor(cmd), cmd.OutOrStdout(), configFile, settings)
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}

// RunDiff compares the generated ruleset against the running configuration.
func RunDiff(ctx context.Context, w io.Writer, configFile string, s *config.Settings) error {
	rs, err := firewall.Load(configFile)
	if err != nil {
		return err
	}
	generated, err := rs.Render()
	if err != nil {
		return err
	}
	running, err := newRestorer(s, rs.Family(s.Family)).Save(ctx)
	if err != nil {
		return err
	}

	d, err := firewall.Diff(generated, running)
	if err != nil {
		return err
	}
	if d == "" {
		Printer.Fprintln(w, "No changes detected.")
		return nil
	}
	Printer.Fprintln(w, "Configuration differs from running state:")
	if _, err := io.WriteString(w, d); err != nil {
		return err
	}
	return ErrDiffers
}
