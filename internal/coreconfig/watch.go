package coreconfig

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceDelay coalesces the burst of write events most editors
// produce for a single save.
const DefaultDebounceDelay = 100 * time.Millisecond

// Watcher reloads a config file whenever it changes on disk and delivers
// the reloaded Config on a channel. Grounded in the teacher's
// internal/behavioral/filewatcher.go: an fsnotify watcher on the file's
// parent directory (fsnotify can't watch a single file reliably across
// editors that write-then-rename), with a debounce timer per path to
// coalesce rapid successive writes into one reload.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	changes  chan *Config
	errs     chan error
	done     chan struct{}
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher starts watching path's parent directory and emits a reloaded
// Config on Changes() each time path is written.
func NewWatcher(path string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	cw := &Watcher{
		watcher:  w,
		path:     filepath.Clean(path),
		changes:  make(chan *Config, 1),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
		debounce: DefaultDebounceDelay,
	}

	go cw.run()
	return cw, nil
}

// Changes returns the channel config reloads are delivered on.
func (w *Watcher) Changes() <-chan *Config { return w.changes }

// Errors returns the channel reload failures are delivered on.
func (w *Watcher) Errors() <-chan error { return w.errs }

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		cfg, err := LoadConfig(w.path)
		if err != nil {
			select {
			case w.errs <- err:
			default:
			}
			return
		}
		select {
		case w.changes <- cfg:
		default:
		}
	})
}
