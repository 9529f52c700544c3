package source

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jwkaltz/gravitas/pkg/errors"
	"github.com/jwkaltz/gravitas/pkg/graph"
)

// debounceDelay coalesces the burst of filesystem events an editor save
// produces (write, chmod, rename) into a single reload.
const debounceDelay = 100 * time.Millisecond

// Watcher reloads a snapshot file whenever it changes on disk and delivers
// the result on [Watcher.Snapshots]. Files that fail to load after a change
// are reported on [Watcher.Errors] instead; the watcher keeps running either
// way, so a half-saved file recovers on the next write.
//
// Only changes are emitted. Callers load the initial snapshot themselves,
// typically via [LoadFile], before starting to watch.
//
// The zero value is not usable - use NewWatcher.
type Watcher struct {
	path  string
	fw    *fsnotify.Watcher
	snaps chan *graph.Snapshot
	errs  chan error
	done  chan struct{}
	once  sync.Once
}

// NewWatcher starts watching the snapshot file at path. Close releases the
// underlying filesystem watcher.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve %s", path)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create file watcher")
	}
	// Watch the directory, not the file: editors that save via rename
	// replace the inode, which a direct file watch loses track of.
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "watch %s", filepath.Dir(abs))
	}

	w := &Watcher{
		path:  abs,
		fw:    fw,
		snaps: make(chan *graph.Snapshot, 1),
		errs:  make(chan error, 1),
		done:  make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Snapshots delivers freshly loaded snapshots after file changes. A slow
// consumer only ever sees the latest snapshot; intermediate ones are
// dropped.
func (w *Watcher) Snapshots() <-chan *graph.Snapshot { return w.snaps }

// Errors delivers load failures after file changes.
func (w *Watcher) Errors() <-chan error { return w.errs }

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fw.Close()
	})
	return err
}

func (w *Watcher) loop() {
	debounce := time.NewTimer(0)
	<-debounce.C // drain initial timer
	pending := false

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			pending = true
			debounce.Reset(debounceDelay)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.sendErr(errors.Wrap(errors.ErrCodeInternal, err, "watch %s", w.path))

		case <-debounce.C:
			if !pending {
				continue
			}
			pending = false
			snap, err := LoadFile(w.path)
			if err != nil {
				w.sendErr(err)
				continue
			}
			w.sendSnap(snap)
		}
	}
}

// relevant reports whether ev concerns the watched file. Create covers
// rename-based saves, where the event carries the target name.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	return filepath.Clean(ev.Name) == w.path
}

func (w *Watcher) sendSnap(s *graph.Snapshot) {
	// Drop a stale undelivered snapshot so the consumer always gets the
	// latest one. The loop goroutine is the only sender, so space is
	// guaranteed after the drain.
	select {
	case <-w.snaps:
	default:
	}
	select {
	case w.snaps <- s:
	case <-w.done:
	}
}

func (w *Watcher) sendErr(err error) {
	select {
	case <-w.errs:
	default:
	}
	select {
	case w.errs <- err:
	case <-w.done:
	}
}
