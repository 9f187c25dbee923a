package firewall

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"grimm.is/ruleforge/internal/logging"
)

var (
	// ErrXtablesLocked means another process holds the xtables lock.
	ErrXtablesLocked = errors.New("xtables lock held by another process")

	// ErrRestoreFailed wraps a rejected restore script.
	ErrRestoreFailed = errors.New("restore failed")
)

// lockMessages are printed by iptables when the xtables lock is busy.
var lockMessages = []string{
	"xtables lock",
	"Another app is currently holding the xtables lock",
	"Resource temporarily unavailable",
}

// Restorer feeds rendered scripts to iptables-restore and reads the
// running ruleset with iptables-save.
type Restorer struct {
	runner  CommandRunner
	restore string
	save    string
	retry   RetryConfig
	logger  *logging.Logger
}

// RestorerOption configures a Restorer.
type RestorerOption func(*Restorer)

// WithRunner replaces the command runner.
func WithRunner(runner CommandRunner) RestorerOption {
	return func(r *Restorer) { r.runner = runner }
}

// WithRetry replaces the lock retry policy.
func WithRetry(cfg RetryConfig) RestorerOption {
	return func(r *Restorer) { r.retry = cfg }
}

// WithLogger replaces the logger.
func WithLogger(l *logging.Logger) RestorerOption {
	return func(r *Restorer) { r.logger = l }
}

// NewRestorer returns a restorer using the given restore and save
// commands, e.g. iptables-restore and iptables-save.
func NewRestorer(restore, save string, opts ...RestorerOption) *Restorer {
	r := &Restorer{
		runner:  DefaultCommandRunner,
		restore: restore,
		save:    save,
		retry:   DefaultRetryConfig(),
		logger:  logging.WithComponent("restore"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply replaces the tables named in script.
func (r *Restorer) Apply(ctx context.Context, script string) error {
	r.logger.Info("applying ruleset", "command", r.restore, "bytes", len(script))
	return r.run(ctx, script)
}

// Test parses and checks script without committing it.
func (r *Restorer) Test(ctx context.Context, script string) error {
	r.logger.Debug("testing ruleset", "command", r.restore)
	return r.run(ctx, script, "--test")
}

// Save returns the running ruleset.
func (r *Restorer) Save(ctx context.Context) (string, error) {
	out, err := RetryWithResult(ctx, r.retry, func() ([]byte, error) {
		out, err := r.runner.Output(ctx, r.save)
		return out, classify(err, out)
	})
	if err != nil {
		return "", fmt.Errorf("failed to save ruleset: %w", err)
	}
	return string(out), nil
}

func (r *Restorer) run(ctx context.Context, script string, args ...string) error {
	return Retry(ctx, r.retry, func() error {
		out, err := r.runner.RunInput(ctx, script, r.restore, args...)
		err = classify(err, out)
		if errors.Is(err, ErrXtablesLocked) {
			r.logger.Warn("xtables lock busy, retrying")
		}
		return err
	})
}

// classify marks lock contention as retryable and everything else as a
// failed restore.
func classify(err error, out []byte) error {
	if err == nil {
		return nil
	}
	text := err.Error() + " " + string(out)
	for _, msg := range lockMessages {
		if strings.Contains(text, msg) {
			return fmt.Errorf("%w: %v", ErrXtablesLocked, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrRestoreFailed, err)
}
