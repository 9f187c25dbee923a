package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"grimm.is/ruleforge/internal/display"
)

var colorizeCmd = &cobra.Command{
	Use:   "colorize",
	Short: "Colorize iptables-restore text read from stdin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunColorize(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(colorizeCmd)
}

// RunColorize copies r to w with restore syntax highlighted.
func RunColorize(r io.Reader, w io.Writer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	_, err = io.WriteString(w, display.Colorize(string(data), true))
	return err
}
