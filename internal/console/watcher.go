package console

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ///////////////////////////////////////////////
// Watcher
// ///////////////////////////////////////////////

// Watcher signals when console.log grows so the main loop can tick early
// instead of waiting out its full sleep. fsnotify is the primary mechanism
// with a stat-polling fallback.
type Watcher struct {
	// path is the console.log being monitored.
	path string
	// events delivers a signal per change, buffered to 1 so bursts of
	// writes coalesce.
	events chan struct{}
	// done is closed by [Watcher.Close].
	done chan struct{}
	// fsw is the underlying fsnotify watcher; nil when construction fell
	// back to polling. Not reassigned after NewWatcher returns, so Close
	// and the watch goroutine may both read it.
	fsw *fsnotify.Watcher
	// once makes Close idempotent.
	once sync.Once
	// polling is true after falling back to stat-based polling.
	polling atomic.Bool
	// pollInterval is the stat cadence in polling mode.
	pollInterval time.Duration
}

// NewWatcher watches the console.log at path. fsnotify failures are not
// fatal: the watcher silently downgrades to polling.
func NewWatcher(path string) (*Watcher, error) {
	w := &Watcher{
		path:         path,
		events:       make(chan struct{}, 1),
		done:         make(chan struct{}),
		pollInterval: 2 * time.Second,
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Info("fsnotify unavailable, falling back to polling", "error", err)
		w.polling.Store(true)
		go w.poll()
		return w, nil
	}

	w.fsw = fsw
	if err := fsw.Add(path); err != nil {
		// console.log may not exist until the game first launches with
		// -condebug; polling handles its later appearance.
		slog.Info("cannot watch console log, falling back to polling", "path", path, "error", err)
		fsw.Close()
		w.fsw = nil
		w.polling.Store(true)
		go w.poll()
		return w, nil
	}

	go w.watch()
	return w, nil
}

// Events returns the change-signal channel.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Polling reports whether the watcher runs on the polling fallback.
func (w *Watcher) Polling() bool {
	return w.polling.Load()
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		if w.fsw != nil {
			if closeErr := w.fsw.Close(); closeErr != nil {
				err = fmt.Errorf("closing fsnotify watcher: %w", closeErr)
			}
		}
	})
	return err
}

// watch forwards write/create notifications and switches to polling when
// fsnotify reports an error.
func (w *Watcher) watch() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.notify()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Info("fsnotify error, switching to polling", "error", err)
			// fsw stays set so Close can read it without synchronization;
			// fsnotify tolerates a second Close.
			w.fsw.Close()
			w.polling.Store(true)
			go w.poll()
			return
		}
	}
}

// poll stats the log on a ticker and notifies when its size or mtime
// advances.
func (w *Watcher) poll() {
	var lastMod time.Time
	var lastSize int64
	if info, err := os.Stat(w.path); err == nil {
		lastMod = info.ModTime()
		lastSize = info.Size()
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			info, err := os.Stat(w.path)
			if err != nil {
				continue
			}
			if info.ModTime().After(lastMod) || info.Size() != lastSize {
				lastMod = info.ModTime()
				lastSize = info.Size()
				w.notify()
			}
		}
	}
}

// notify sends one signal, dropping it if one is already pending.
func (w *Watcher) notify() {
	select {
	case w.events <- struct{}{}:
	default:
	}
}
