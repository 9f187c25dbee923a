package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"grimm.is/ruleforge/internal/config"
	"grimm.is/ruleforge/internal/firewall"
	"grimm.is/ruleforge/internal/logging"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-apply the definition whenever it changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(contextFor(cmd), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return RunWatch(ctx, configFile, settings)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// RunWatch applies the definition, then again after every change until
// ctx is cancelled. A definition that fails to load or apply is logged
// and the running ruleset is left alone.
func RunWatch(ctx context.Context, configFile string, s *config.Settings) error {
	logger := logging.WithComponent("watch")

	reload := func() {
		rs, err := firewall.Load(configFile)
		if err != nil {
			logger.Error("definition rejected", "path", configFile, "error", err)
			return
		}
		if err := applyRuleset(ctx, rs, s, false); err != nil {
			logger.Error("apply failed", "error", err)
			return
		}
		logger.Info("ruleset applied", "hash", rs.Hash)
	}

	w, err := config.NewWatcher(configFile, s.Debounce, reload, logger)
	if err != nil {
		return err
	}

	reload()
	logger.Info("watching", "path", configFile)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
