// Package cmd implements the ruleforge command line.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"grimm.is/ruleforge/internal/brand"
	"grimm.is/ruleforge/internal/config"
	"grimm.is/ruleforge/internal/firewall"
	"grimm.is/ruleforge/internal/i18n"
	"grimm.is/ruleforge/internal/logging"
)

// Printer is the global message printer for the CLI
var Printer = i18n.NewCLIPrinter()

var (
	configFile   string
	settingsFile string
	verbose      bool

	settings *config.Settings
)

var (
	success  = color.New(color.FgGreen).SprintFunc()
	warn     = color.New(color.FgYellow).SprintFunc()
	errPrint = color.New(color.FgRed).FprintfFunc()
)

// Seams replaced in tests.
var (
	newRunner = func() firewall.CommandRunner { return firewall.DefaultCommandRunner }

	newChainChecker = firewall.NewChainChecker
)

var rootCmd = &cobra.Command{
	Use:   brand.BinaryName,
	Short: brand.Description,
	Long: `Compose iptables rulesets from a declarative firewall definition.

Zones, locations, channels and policies are expanded into
iptables-restore input that can be shown, checked, diffed against the
running ruleset, or applied with automatic rollback.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		errPrint(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", brand.DefaultConfigPath(), "firewall definition (.hcl, .yaml or .yml)")
	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "", "runtime settings file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// setup loads runtime settings and installs the default logger.
func setup(cmd *cobra.Command, args []string) error {
	s, err := config.LoadSettings(settingsFile)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if verbose {
		s.LogLevel = "debug"
	}
	logger, err := s.Logger()
	if err != nil {
		return err
	}
	logging.SetDefault(logger)
	settings = s
	return nil
}

// newRestorer builds a restorer for family using the runtime settings.
func newRestorer(s *config.Settings, family string) *firewall.Restorer {
	retry := firewall.DefaultRetryConfig()
	retry.MaxAttempts = s.LockRetries
	retry.InitialDelay = s.LockWait

	restore, save := s.Binaries(family)
	return firewall.NewRestorer(restore, save,
		firewall.WithRunner(newRunner()),
		firewall.WithRetry(retry),
		firewall.WithLogger(logging.WithComponent("restore")),
	)
}

// contextFor returns the command's context, or a background one when
// the command runs outside Execute.
func contextFor(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
