// Package watch provides a debounced recursive file watcher. The server
// uses it to notice build-configuration changes even when the client
// never sends workspace/didChangeWatchedFiles.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Handler receives a debounced batch of changed paths. Each path
// appears once per batch, in first-seen order. Called from a single
// goroutine.
type Handler func(paths []string)

var skipDirs = map[string]bool{
	".git":         true,
	".idea":        true,
	"node_modules": true,
}

// Watcher watches a directory tree and batches change events over a
// debounce window so a burst of writes triggers one handler call.
type Watcher struct {
	root     string
	debounce time.Duration
	handler  Handler

	fsw      *fsnotify.Watcher
	changes  chan string
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a watcher over root. Start must be called before any
// events are delivered.
func New(root string, debounce time.Duration, handler Handler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		root:     root,
		debounce: debounce,
		handler:  handler,
		fsw:      fsw,
		changes:  make(chan string, 256),
		done:     make(chan struct{}),
	}, nil
}

// Start registers the tree and launches the event and debounce loops.
// Both stop when ctx is canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop closes the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.fsw.Close()
	})
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if skipDirs[d.Name()] && path != root {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if skipDirs[filepath.Base(event.Name)] {
				continue
			}
			select {
			case w.changes <- event.Name:
			default:
				// Buffer full during a burst; the debounced batch
				// still fires for the events already queued.
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.addRecursive(event.Name)
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("watch error",
				slog.String("root", w.root),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	var batch []string
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(batch) > 0 && w.handler != nil {
			w.handler(dedupe(batch))
		}
		batch = nil
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-w.done:
			flush()
			return
		case path := <-w.changes:
			batch = append(batch, path)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					// Already fired: drop the stale tick so Reset
					// arms a full window instead of flushing early.
					select {
					case <-timerC:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case <-timerC:
			flush()
		}
	}
}

// dedupe drops repeated paths, keeping first-seen order.
func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
