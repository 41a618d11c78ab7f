package store

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads a Holder when any of its tables change on disk. Bursts of
// events are coalesced: the reload runs once the files have been quiet for
// the debounce interval.
type Watcher struct {
	holder   *Holder
	debounce time.Duration
	logger   zerolog.Logger
}

// NewWatcher creates a watcher for holder's tables.
func NewWatcher(holder *Holder, debounce time.Duration, logger zerolog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		holder:   holder,
		debounce: debounce,
		logger:   logger.With().Str("component", "watcher").Logger(),
	}
}

// Serve watches until ctx is cancelled. Directories are watched rather than
// files so editors that replace a file by rename are still seen.
func (w *Watcher) Serve(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	targets := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range w.holder.Paths().All() {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for d := range dirs {
		if err := fw.Add(d); err != nil {
			return fmt.Errorf("watching %s: %w", d, err)
		}
	}
	w.logger.Info().Int("files", len(targets)).Dur("debounce", w.debounce).Msg("watching data files")

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			abs, _ := filepath.Abs(ev.Name)
			if !targets[abs] || !relevant(ev.Op) {
				continue
			}
			w.logger.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("data file changed")
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watch error")

		case <-timer.C:
			// Reload logs and keeps the previous snapshot on failure.
			_, _ = w.holder.Reload(ctx)
		}
	}
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Write) || op.Has(fsnotify.Create) || op.Has(fsnotify.Rename) || op.Has(fsnotify.Remove)
}

func (w *Watcher) String() string { return "snapshot-watcher" }
