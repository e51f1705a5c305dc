package daemon

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// watcher signals on C once writes to a single file have been quiet for
// the debounce delay. It watches the parent directory so editors that
// replace the file by rename are still noticed.
type watcher struct {
	C <-chan struct{}

	path  string
	fs    *fsnotify.Watcher
	debo  *debouncer
	close sync.Once
}

func newWatcher(path string, delay time.Duration) (*watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s", path)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating file watcher")
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, errors.Wrapf(err, "watching %s", filepath.Dir(abs))
	}

	d := newDebouncer(delay)
	return &watcher{C: d.C, path: abs, fs: fw, debo: d}, nil
}

// Run forwards matching events until ctx is canceled or the watcher closes.
func (w *watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				w.debo.Trigger()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Str("path", w.path).Msg("file watcher error")
		}
	}
}

func (w *watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *watcher) Close() error {
	var err error
	w.close.Do(func() {
		w.debo.Stop()
		err = w.fs.Close()
	})
	return err
}

// debouncer coalesces bursts of Trigger calls into one signal on C.
type debouncer struct {
	C <-chan struct{}

	c     chan struct{}
	delay time.Duration
	mu    sync.Mutex
	timer *time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	c := make(chan struct{}, 1)
	return &debouncer{C: c, c: c, delay: delay}
}

// Trigger restarts the quiet period.
func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		select {
		case d.c <- struct{}{}:
		default:
		}
	})
}

// Stop cancels a pending signal.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
