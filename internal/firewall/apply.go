package firewall

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"grimm.is/ruleforge/internal/logging"
)

// Applier restores a ruleset, verifies it and rolls back on failure.
type Applier struct {
	Restorer *Restorer
	// Rollback is optional; nil applies without a checkpoint.
	Rollback *RollbackManager
	// Checker is optional; nil skips chain verification.
	Checker ChainChecker
	// StatePath, when set, receives the applied script.
	StatePath string

	logger *logging.Logger
}

// NewApplier returns an applier using restorer.
func NewApplier(restorer *Restorer) *Applier {
	return &Applier{Restorer: restorer, logger: logging.WithComponent("apply")}
}

// Apply renders rs and replaces the running ruleset with it.
func (a *Applier) Apply(ctx context.Context, rs *Ruleset) error {
	script, err := rs.Render()
	if err != nil {
		return err
	}

	apply := func(ctx context.Context) error {
		if err := a.Restorer.Apply(ctx, script); err != nil {
			return err
		}
		if a.Checker != nil {
			if err := VerifyChains(a.Checker, rs.Tables); err != nil {
				return err
			}
		}
		return nil
	}

	if a.Rollback != nil {
		err = a.Rollback.SafeApply(ctx, apply)
	} else {
		err = apply(ctx)
	}
	if err != nil {
		return err
	}

	if a.StatePath != "" {
		if err := os.MkdirAll(filepath.Dir(a.StatePath), 0o750); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
		if err := os.WriteFile(a.StatePath, []byte(script), 0o600); err != nil {
			return fmt.Errorf("failed to record applied ruleset: %w", err)
		}
	}
	a.logger.Info("ruleset applied", "hash", rs.Hash)
	return nil
}
