package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

const minWatchTick = 50 * time.Millisecond

// Watch keeps processing the input directory after the initial batch. Each
// created or written path is handled once it has been quiet for
// cfg.WatchDebounce, on this goroutine, through the same per-file path as
// Run. Watch returns nil when ctx is cancelled and an error when the watcher
// fails.
func (r *Runner) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(r.cfg.InputDir); err != nil {
		return fmt.Errorf("watch %s: %w", r.cfg.InputDir, err)
	}
	if r.watchReady != nil {
		close(r.watchReady)
	}

	debounce := r.cfg.WatchDebounce
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	tick := debounce / 4
	if tick < minWatchTick {
		tick = minWatchTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	r.log.Info("watching for new files", "dir", r.cfg.InputDir, "debounce", debounce.String())

	pending := make(map[string]time.Time) // path -> last event
	for {
		select {
		case <-ctx.Done():
			r.log.Info("watch stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				pending[ev.Name] = time.Now()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher: %w", err)

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < debounce {
					continue
				}
				delete(pending, path)
				if ctx.Err() != nil {
					break
				}
				r.processWatched(ctx, path)
			}
		}
	}
}

// processWatched classifies a settled path and runs it through processEntry
// when it is a recognized video.
func (r *Runner) processWatched(ctx context.Context, path string) {
	e := classifyEntry(path, r.cfg.Extensions)
	if e.Kind != KindVideo {
		r.log.Debug("watch: ignoring entry", "file", e.Name, "kind", e.Kind.String())
		return
	}
	r.update(func(s *RunStats) {
		s.Total++
		s.Current++
	})
	r.processEntry(ctx, e)
}
