// Package watch signals when a directory tree changes shape, which makes
// previously resolved ranks stale.
package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/brettbedarf/treenav/internal/util"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// rankOps are the operations that can move files between ranks. Writes and
// attribute changes leave the enumeration untouched.
const rankOps = fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// Change reports that the tree under the watched root changed.
type Change struct {
	Path string
	Op   fsnotify.Op
	Time time.Time
}

// Watcher monitors a root and every directory below it using fsnotify.
// Changes are coalesced: while one is pending, further ones are dropped.
type Watcher struct {
	root string

	// Directories being watched
	dirs map[string]struct{}

	changes  chan Change
	stopChan chan struct{}

	fsWatcher *fsnotify.Watcher

	// Lock for running state and the directory set
	mutex   sync.RWMutex
	running bool

	logger zerolog.Logger
}

// New creates a watcher covering root and all of its subdirectories.
func New(root string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:      root,
		dirs:      map[string]struct{}{},
		changes:   make(chan Change, 1),
		fsWatcher: fsWatcher,
		logger:    util.GetLogger("Watcher").With().Str("root", root).Logger(),
	}
	if err := w.addTree(root); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches dir and every directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// vanished between listing and visiting
			if errors.Is(err, fs.ErrNotExist) && p != dir {
				return nil
			}
			return fmt.Errorf("error accessing directory: %w", err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsWatcher.Add(p); err != nil {
			return fmt.Errorf("failed to add directory %s to watcher: %w", p, err)
		}
		w.mutex.Lock()
		w.dirs[p] = struct{}{}
		w.mutex.Unlock()
		w.logger.Trace().Str("directory", p).Msg("Watching directory")
		return nil
	})
}

// Changes returns the channel that delivers tree changes. It is closed by Stop.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Start begins processing events in a separate goroutine.
func (w *Watcher) Start() error {
	w.mutex.Lock()
	if w.running {
		w.mutex.Unlock()
		return errors.New("watcher already running")
	}
	if w.stopChan != nil {
		w.mutex.Unlock()
		return errors.New("watcher was stopped")
	}
	w.running = true
	w.stopChan = make(chan struct{})
	stop := w.stopChan
	w.mutex.Unlock()

	go w.loop(stop)
	w.logger.Debug().Msg("Watcher started")
	return nil
}

func (w *Watcher) loop(stop <-chan struct{}) {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("fsnotify watcher error")

		case <-stop:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn().Err(err).Str("directory", event.Name).Msg("Failed to watch new directory")
			}
		}
	} else {
		w.mutex.Lock()
		delete(w.dirs, event.Name)
		w.mutex.Unlock()
	}

	change := Change{Path: event.Name, Op: event.Op & rankOps, Time: time.Now()}
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	if !w.running {
		return
	}
	select {
	case w.changes <- change:
	default:
		w.logger.Trace().Str("path", event.Name).Msg("Change already pending, coalesced")
	}
}

// Stop halts the watcher and closes the Changes channel. Stopping twice
// is a no-op.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if !w.running {
		return
	}
	close(w.stopChan)
	if err := w.fsWatcher.Close(); err != nil {
		w.logger.Error().Err(err).Msg("Error closing fsnotify watcher")
	}
	w.running = false
	close(w.changes)
	w.logger.Debug().Msg("Watcher stopped")
}

// Close releases the watcher whether or not it was started.
func (w *Watcher) Close() error {
	w.mutex.RLock()
	running := w.running
	w.mutex.RUnlock()
	if running {
		w.Stop()
		return nil
	}
	return w.fsWatcher.Close()
}

// IsRunning returns whether the watcher is currently active
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}

// Directories returns the watched directories, sorted.
func (w *Watcher) Directories() []string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	dirs := make([]string, 0, len(w.dirs))
	for d := range w.dirs {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}
