package notes

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/notewire/notewire/pkg/events"
)

const (
	// watchDebounce coalesces bursts of fsnotify events for one key.
	watchDebounce = 100 * time.Millisecond

	// ownWriteWindow is how long after a store write the watcher treats
	// change events for that key as self-inflicted.
	ownWriteWindow = 500 * time.Millisecond
)

// fsWatcher surfaces edits made to the storage root by other processes as
// updated events, so live views refresh when someone edits a note file by
// hand. The store's own writes are suppressed via recentlyWritten.
type fsWatcher struct {
	store   *FSStore
	watcher *fsnotify.Watcher
	done    chan struct{}

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newFSWatcher(store *FSStore) (*fsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(store.root); err != nil {
		watcher.Close()
		return nil, err
	}

	w := &fsWatcher{
		store:   store,
		watcher: watcher,
		done:    make(chan struct{}),
		timers:  make(map[string]*time.Timer),
	}
	go w.run()
	return w, nil
}

func (w *fsWatcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if !strings.HasSuffix(name, noteExt) || strings.HasPrefix(name, tmpPrefix) {
				continue
			}
			key := strings.TrimSuffix(name, noteExt)
			if w.store.recentlyWritten(key, ownWriteWindow) {
				continue
			}
			w.debounce(key)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.store.logger.Warn().Err(err).Msg("watcher error")
		case <-w.done:
			return
		}
	}
}

// debounce schedules (or reschedules) the emit for a key.
func (w *fsWatcher) debounce(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[key]; ok {
		timer.Reset(watchDebounce)
		return
	}
	w.timers[key] = time.AfterFunc(watchDebounce, func() {
		w.mu.Lock()
		delete(w.timers, key)
		w.mu.Unlock()
		w.emit(key)
	})
}

func (w *fsWatcher) emit(key string) {
	if w.store.closed.Load() {
		return
	}
	note, err := w.store.readFile(key)
	if err != nil {
		w.store.logger.Warn().Err(err).Str("key", key).Msg("ignoring unreadable external edit")
		return
	}
	w.store.logger.Debug().Str("key", key).Msg("external edit detected")
	w.store.broker.Publish(&events.Event{Type: events.EventNoteUpdated, Key: key, Note: note})
}

func (w *fsWatcher) stop() {
	close(w.done)
	w.watcher.Close()

	w.mu.Lock()
	defer w.mu.Unlock()
	for key, timer := range w.timers {
		timer.Stop()
		delete(w.timers, key)
	}
}
