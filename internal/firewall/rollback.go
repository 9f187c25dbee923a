package firewall

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"grimm.is/ruleforge/internal/logging"
)

// ErrNoCheckpoint is returned by Rollback when nothing was saved.
var ErrNoCheckpoint = errors.New("no checkpoint saved")

// RollbackManager handles ruleset rollback on failure. The checkpoint
// is kept on disk so a later process can roll back too.
type RollbackManager struct {
	restorer *Restorer
	path     string
	logger   *logging.Logger
}

// NewRollbackManager creates a rollback manager storing its checkpoint
// at path.
func NewRollbackManager(restorer *Restorer, path string) *RollbackManager {
	return &RollbackManager{
		restorer: restorer,
		path:     path,
		logger:   logging.WithComponent("rollback"),
	}
}

// Path returns the checkpoint file.
func (m *RollbackManager) Path() string {
	return m.path
}

// SaveCheckpoint saves the current ruleset as a rollback point.
func (m *RollbackManager) SaveCheckpoint(ctx context.Context) error {
	current, err := m.restorer.Save(ctx)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o750); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	if err := os.WriteFile(m.path, []byte(current), 0o600); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	m.logger.Debug("checkpoint saved", "path", m.path)
	return nil
}

// Rollback restores the saved checkpoint.
func (m *RollbackManager) Rollback(ctx context.Context) error {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNoCheckpoint, m.path)
	}
	if err != nil {
		return fmt.Errorf("failed to read checkpoint: %w", err)
	}
	m.logger.Info("rolling back", "path", m.path)
	return m.restorer.Apply(ctx, string(data))
}

// SafeApply applies changes with automatic rollback on failure.
func (m *RollbackManager) SafeApply(ctx context.Context, applyFn func(context.Context) error) error {
	if err := m.SaveCheckpoint(ctx); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	if err := applyFn(ctx); err != nil {
		if rbErr := m.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("apply failed: %w; rollback also failed: %v", err, rbErr)
		}
		return fmt.Errorf("apply failed (rolled back): %w", err)
	}

	return nil
}
