// Package watch re-runs the pipeline when canonical documents change.
//
// Events are debounced so a burst of editor writes triggers one run, and
// the pipeline's own artifact commits are filtered out so a run never
// re-triggers itself.
package watch

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stylebook/tiermill/internal/manifest"
)

// Watcher monitors a corpus root and invokes a handler after a quiet
// debounce window follows a relevant change.
type Watcher struct {
	root     string
	debounce time.Duration
	handler  func()
	log      *slog.Logger

	fsw      *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a Watcher. The handler runs on the watcher's goroutine;
// runs are therefore sequential, matching the pipeline's model.
func New(root string, debounce time.Duration, handler func(), log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		root:     root,
		debounce: debounce,
		handler:  handler,
		log:      log,
		fsw:      fsw,
		done:     make(chan struct{}),
	}, nil
}

// Start registers the root and all its subdirectories and begins the
// event loop. It returns once watching is established.
func (w *Watcher) Start() error {
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
	if err != nil {
		w.fsw.Close()
		return err
	}

	go w.loop()
	return nil
}

// Stop ends the event loop and releases the underlying watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.fsw.Close()
	})
}

func (w *Watcher) loop() {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			// New directories must be registered to keep the
			// recursive watch complete.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.fsw.Add(ev.Name)
					continue
				}
			}
			if !Relevant(filepath.Base(ev.Name)) {
				continue
			}
			w.log.Debug("source change detected", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.handler()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

// Relevant reports whether a file name should trigger a re-run: only
// canonical complete-tier documents count; derived artifacts and the
// committer's temp files must never re-trigger the pipeline.
func Relevant(name string) bool {
	if manifest.IsTempArtifact(name) || manifest.IsDerived(name) {
		return false
	}
	return manifest.IsCanonical(name)
}
