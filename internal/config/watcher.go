package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"grimm.is/ruleforge/internal/logging"
)

// Watcher calls a function after a file has changed and then stayed
// unchanged for the debounce interval.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func()
	debounce time.Duration
	logger   *logging.Logger
}

// NewWatcher watches path. The parent directory is watched so editors
// that replace the file by rename are noticed.
func NewWatcher(path string, debounce time.Duration, onChange func(), logger *logging.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch config file: %w", err)
	}

	if logger == nil {
		logger = logging.WithComponent("watch")
	}
	return &Watcher{
		watcher:  w,
		path:     filepath.Clean(path),
		onChange: onChange,
		debounce: debounce,
		logger:   logger,
	}, nil
}

// Run blocks until ctx is done, triggering onChange for changes to the
// watched file. onChange runs on the Run goroutine, so calls never
// overlap; changes made while it runs coalesce into one more call.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("config file change detected", "path", event.Name, "op", event.Op.String())

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			w.logger.Info("config changed", "path", w.path)
			w.onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
