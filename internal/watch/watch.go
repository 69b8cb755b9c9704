// Package watch monitors a search root for file changes so watch mode
// can re-run a search once the tree settles.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/harrison/searchex/internal/walker"
)

// Kind classifies a file change.
type Kind int

const (
	// Created indicates a new file appeared
	Created Kind = iota
	// Modified indicates a file was written to
	Modified
	// Removed indicates a file was removed or renamed away
	Removed
)

// String returns a human-readable representation of the change kind
func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Change is one debounced file change below the watched root.
type Change struct {
	Path string    // Path as reported by the OS watcher
	Kind Kind      // Type of change
	Time time.Time // When the change was accepted
}

// DefaultDebounceDelay is the default delay for coalescing rapid writes
const DefaultDebounceDelay = 100 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// IncludeHidden also watches hidden directories and reports changes
	// to hidden files, mirroring the search-side option.
	IncludeHidden bool

	// DebounceDelay overrides how long rapid writes to one file are
	// coalesced. Zero means DefaultDebounceDelay.
	DebounceDelay time.Duration
}

// Watcher reports debounced changes below a root directory. Directories
// created while watching are picked up automatically.
type Watcher struct {
	watcher       *fsnotify.Watcher
	changes       chan Change
	errors        chan error
	done          chan struct{}
	root          string
	includeHidden bool

	mu            sync.Mutex
	debounceDelay time.Duration
	debounceMap   map[string]*time.Timer
	closed        bool
}

// New creates a Watcher over root and starts delivering changes.
func New(root string, opts Options) (*Watcher, error) {
	root = filepath.Clean(root)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	delay := opts.DebounceDelay
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}

	w := &Watcher{
		watcher:       watcher,
		changes:       make(chan Change, 100),
		errors:        make(chan error, 10),
		done:          make(chan struct{}),
		root:          root,
		includeHidden: opts.IncludeHidden,
		debounceDelay: delay,
		debounceMap:   make(map[string]*time.Timer),
	}

	if err := w.addRecursive(root); err != nil {
		watcher.Close()
		return nil, err
	}

	go w.processEvents()

	return w, nil
}

// addRecursive adds dir and all its subdirectories to the watcher,
// honoring the hidden rule. The root itself is watched even when its
// own name is hidden, matching how enumeration treats the root.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			return nil
		}

		if path != w.root && !w.includeHidden && walker.IsHidden(path, info.Name()) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			if os.IsPermission(err) {
				return nil
			}
			return err
		}
		return nil
	})
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				// Error channel full, drop the error
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	// New directories join the watch set immediately so files created
	// inside them are seen.
	if event.Has(fsnotify.Create) {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				select {
				case w.errors <- err:
				default:
				}
			}
			return
		}
	}

	if !w.includeHidden && walker.IsHidden(path, filepath.Base(path)) {
		return
	}

	var kind Kind
	switch {
	case event.Has(fsnotify.Create):
		kind = Created
	case event.Has(fsnotify.Write):
		kind = Modified
	case event.Has(fsnotify.Remove):
		kind = Removed
	case event.Has(fsnotify.Rename):
		// A rename moves the file away from the watched name.
		kind = Removed
	default:
		// Ignore chmod events
		return
	}

	// Writes arrive in rapid bursts while a file is being saved;
	// coalesce them. Creates and removes pass through immediately.
	if kind == Modified {
		w.debounce(path, kind)
	} else {
		w.send(path, kind)
	}
}

// debounce coalesces rapid writes for the same file
func (w *Watcher) debounce(path string, kind Kind) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	if timer, exists := w.debounceMap[path]; exists {
		timer.Stop()
	}

	w.debounceMap[path] = time.AfterFunc(w.debounceDelay, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()

		w.send(path, kind)
	})
}

func (w *Watcher) send(path string, kind Kind) {
	change := Change{
		Path: path,
		Kind: kind,
		Time: time.Now(),
	}

	select {
	case w.changes <- change:
	case <-w.done:
	default:
		// Changes channel full, drop the change
	}
}

// Changes returns the channel delivering debounced file changes.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Errors returns the channel for receiving watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Root returns the directory being watched.
func (w *Watcher) Root() string {
	return w.root
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true

	for _, timer := range w.debounceMap {
		timer.Stop()
	}
	w.debounceMap = nil
	w.mu.Unlock()

	close(w.done)

	return w.watcher.Close()
}
