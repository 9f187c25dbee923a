package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"grimm.is/ruleforge/internal/brand"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	// Settings are not needed to print the version.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		RunVersion(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// RunVersion prints the brand name, version and commit.
func RunVersion(w io.Writer) {
	Printer.Fprintf(w, "%s %s (commit %s)\n", brand.Name, brand.Version, brand.GitCommit)
}
