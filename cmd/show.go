package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"grimm.is/ruleforge/internal/display"
	"grimm.is/ruleforge/internal/firewall"
)

// ShowOptions controls how show prints the ruleset.
type ShowOptions struct {
	Color       bool
	LineNumbers bool
}

var showOpts ShowOptions

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the generated iptables-restore script",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunShow(cmd.OutOrStdout(), configFile, showOpts)
	},
}

func init() {
	showCmd.Flags().BoolVar(&showOpts.Color, "color", false, "colorize output even when not writing to a terminal")
	showCmd.Flags().BoolVar(&showOpts.LineNumbers, "line-numbers", false, "prefix each line with its number")
	rootCmd.AddCommand(showCmd)
}

// RunShow compiles the definition and writes the restore script to w.
func RunShow(w io.Writer, configFile string, opts ShowOptions) error {
	rs, err := firewall.Load(configFile)
	if err != nil {
		return err
	}
	out, err := rs.Render()
	if err != nil {
		return err
	}

	out = strings.TrimSuffix(out, "\n")
	if opts.Color || (w == io.Writer(os.Stdout) && !color.NoColor) {
		out = display.Colorize(out, true)
	}
	if opts.LineNumbers {
		out = display.AddLineNumbers(out, 1)
	}
	_, err = io.WriteString(w, out+"\n")
	return err
}
