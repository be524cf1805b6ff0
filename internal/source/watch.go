package source

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchOptions controls the data directory watcher.
type WatchOptions struct {
	// Dir is the local directory backing the served data files.
	Dir string
	// Debounce collapses bursts of write events into one refresh signal.
	Debounce time.Duration
	Logger   *log.Logger
}

// Watcher observes the data directory for out-of-band updates and signals
// a refresh. The viewer itself never writes to the directory.
type Watcher struct {
	opts    WatchOptions
	refresh chan struct{}
}

// NewWatcher constructs a directory watcher.
func NewWatcher(opts WatchOptions) *Watcher {
	if opts.Logger == nil {
		opts.Logger = log.New(log.Writer(), "[watch] ", log.LstdFlags)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	return &Watcher{
		opts:    opts,
		refresh: make(chan struct{}, 1),
	}
}

// Refresh returns the channel that receives one signal per detected change
// burst. The channel has capacity 1; unconsumed signals coalesce.
func (w *Watcher) Refresh() <-chan struct{} {
	return w.refresh
}

// Run blocks watching the directory until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.opts.Dir); err != nil {
		return fmt.Errorf("watch add: %w", err)
	}
	// The per-case files live one level down.
	casosDir := filepath.Join(w.opts.Dir, "casos")
	if err := fw.Add(casosDir); err != nil {
		w.opts.Logger.Printf("not watching %s: %v", casosDir, err)
	}

	w.opts.Logger.Printf("Watching data directory: %s", w.opts.Dir)

	var pending *time.Timer
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()

	for {
		var fire <-chan time.Time
		if pending != nil {
			fire = pending.C
		}
		select {
		case <-ctx.Done():
			w.opts.Logger.Println("Watch stopping")
			return ctx.Err()
		case ev := <-fw.Events:
			if !strings.HasSuffix(strings.ToLower(ev.Name), ".json") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if pending == nil {
				pending = time.NewTimer(w.opts.Debounce)
			} else {
				pending.Reset(w.opts.Debounce)
			}
		case <-fire:
			pending = nil
			select {
			case w.refresh <- struct{}{}:
				w.opts.Logger.Println("Data changed, refresh signalled")
			default:
			}
		case err := <-fw.Errors:
			if err != nil {
				w.opts.Logger.Printf("watch error: %v", err)
			}
		}
	}
}
