package scenario

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce is how long the file must stay quiet before it is reparsed.
const debounce = 100 * time.Millisecond

// Watcher reparses a scenario file whenever it changes on disk and delivers
// the result on Updates. Parse failures go to Errors and the previous
// scenario stays in effect.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
	Updates chan *File
	Errors  chan error
	closeCh chan struct{}
	done    sync.WaitGroup
	once    sync.Once
}

// NewWatcher watches path. The parent directory is watched so editors that
// replace the file by rename are still seen.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: watch %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("scenario: watch %s: %w", path, err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("scenario: watch %s: %w", path, err)
	}

	w := &Watcher{
		watcher: fw,
		path:    abs,
		Updates: make(chan *File, 4),
		Errors:  make(chan error, 4),
		closeCh: make(chan struct{}),
	}
	w.done.Add(1)
	go w.run()
	return w, nil
}

// Close stops the watcher. Updates and Errors are closed once the event
// loop has exited.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		w.done.Wait()
		close(w.Updates)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	defer w.done.Done()
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			// Editors write in bursts; parse once the file has settled.
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			f, err := Load(w.path)
			if err != nil {
				w.send(nil, err)
				continue
			}
			w.send(f, nil)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.send(nil, err)
		case <-w.closeCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// send delivers without blocking past Close.
func (w *Watcher) send(f *File, err error) {
	if err != nil {
		select {
		case w.Errors <- err:
		case <-w.closeCh:
		}
		return
	}
	select {
	case w.Updates <- f:
	case <-w.closeCh:
	}
}
