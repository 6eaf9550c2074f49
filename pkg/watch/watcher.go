// Package watch monitors the corpus directories and re-extracts
// documents as their source files change, with per-file debouncing so
// editors that write in bursts trigger one extraction.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/fsnotify.v1"

	"github.com/coolbeans/lexcan/pkg/corpus"
)

// DefaultDebounce is the quiet period required after the last write to
// a file before it is handed to the handler.
const DefaultDebounce = 500 * time.Millisecond

// Handler is invoked with the path of a changed corpus file.
type Handler func(path string)

// Watcher re-extracts corpus files on change.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	handler   Handler
	debounce  time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a watcher over the four corpus directories under root.
func New(root string, handler Handler) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	dirs := []string{
		filepath.Join(root, corpus.EnglishActsDir),
		filepath.Join(root, corpus.EnglishRegulationsDir),
		filepath.Join(root, corpus.FrenchActsDir),
		filepath.Join(root, corpus.FrenchRegulationsDir),
	}
	for _, dir := range dirs {
		if err := fsWatcher.Add(dir); err != nil {
			fsWatcher.Close()
			return nil, fmt.Errorf("failed to watch corpus directory %s: %w", dir, err)
		}
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		handler:   handler,
		debounce:  DefaultDebounce,
		timers:    make(map[string]*time.Timer),
	}, nil
}

// Run processes filesystem events until the context is canceled.
func (watcher *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.fsWatcher.Events:
			if !ok {
				return nil
			}
			watcher.handleEvent(event)

		case err, ok := <-watcher.fsWatcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// Close stops watching and cancels pending debounce timers.
func (watcher *Watcher) Close() error {
	watcher.mu.Lock()
	for path, timer := range watcher.timers {
		timer.Stop()
		delete(watcher.timers, path)
	}
	watcher.mu.Unlock()

	return watcher.fsWatcher.Close()
}

// handleEvent schedules the handler for relevant events, resetting the
// file's debounce timer on every new write.
func (watcher *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if !IsCorpusFile(event.Name) {
		return
	}

	watcher.mu.Lock()
	defer watcher.mu.Unlock()

	if timer, ok := watcher.timers[event.Name]; ok {
		timer.Stop()
	}

	path := event.Name
	watcher.timers[path] = time.AfterFunc(watcher.debounce, func() {
		watcher.mu.Lock()
		delete(watcher.timers, path)
		watcher.mu.Unlock()

		watcher.handler(path)
	})
}

// IsCorpusFile reports whether a path names a corpus XML document.
func IsCorpusFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xml")
}
