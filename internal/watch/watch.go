// Package watch reports changes to entity documents anywhere under a
// directory tree.
package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Op is the kind of change observed.
type Op int

const (
	// OpCreate indicates a document appeared at a new path.
	OpCreate Op = iota
	// OpModify indicates an existing document was rewritten.
	OpModify
	// OpDelete indicates a document was removed or moved away.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// MarshalText renders the operation by name in JSON output.
func (op Op) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

// Event is one change to a document.
type Event struct {
	Path string `json:"path"`
	Kind string `json:"kind"` // type tag of the document's kind
	Op   Op     `json:"op"`
}

// Matcher maps a file's base name to a kind's type tag.
// ok is false for files that are not entity documents.
type Matcher func(base string) (tag string, ok bool)

// Watcher watches a directory tree for entity document changes.
//
// fsnotify only watches single directories, so every directory in the tree
// is added, and directories created later are added as they appear.
// Documents are written by rename, which fsnotify reports as a create;
// a create for a path already seen is reported as OpModify.
type Watcher struct {
	watcher *fsnotify.Watcher
	match   Matcher

	events chan Event
	errors chan error
	done   chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
	known   map[string]bool
}

// New creates a Watcher. It emits nothing until Start is called.
func New(match Matcher) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &Watcher{
		watcher: w,
		match:   match,
		events:  make(chan Event, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
		known:   make(map[string]bool),
	}, nil
}

// Start watches root and every directory below it.
// Documents already present are recorded but not reported.
func (w *Watcher) Start(root string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}
	if _, err := w.addTree(root); err != nil {
		return err
	}

	w.running = true
	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop stops watching and closes the Events and Errors channels.
// It blocks until the event loop has exited.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)
	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	w.wg.Wait()

	close(w.events)
	close(w.errors)
	return nil
}

// Events returns the channel of document changes.
func (w *Watcher) Events() <-chan Event { return w.events }

// Errors returns the channel of watch errors.
func (w *Watcher) Errors() <-chan error { return w.errors }

// addTree watches dir and its subdirectories and returns the documents
// found that were not known before. Caller holds mu.
func (w *Watcher) addTree(dir string) ([]Event, error) {
	var found []Event
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			return nil
		}
		if tag, ok := w.match(d.Name()); ok && !w.known[path] {
			w.known[path] = true
			found = append(found, Event{Path: path, Kind: tag, Op: OpCreate})
		}
		return nil
	})
	return found, err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			for _, out := range w.convert(ev) {
				select {
				case w.events <- out:
				case <-w.done:
					return
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-w.done:
				return
			}
		}
	}
}

// convert turns one fsnotify event into zero or more document events.
func (w *Watcher) convert(ev fsnotify.Event) []Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			// Files may land in a new directory before it is watched.
			found, err := w.addTree(ev.Name)
			if err != nil {
				select {
				case w.errors <- err:
				default:
				}
			}
			return found
		}
	}

	tag, ok := w.match(filepath.Base(ev.Name))
	if !ok {
		return nil
	}

	switch {
	case ev.Has(fsnotify.Create):
		if w.known[ev.Name] {
			return []Event{{Path: ev.Name, Kind: tag, Op: OpModify}}
		}
		w.known[ev.Name] = true
		return []Event{{Path: ev.Name, Kind: tag, Op: OpCreate}}
	case ev.Has(fsnotify.Write):
		w.known[ev.Name] = true
		return []Event{{Path: ev.Name, Kind: tag, Op: OpModify}}
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		delete(w.known, ev.Name)
		return []Event{{Path: ev.Name, Kind: tag, Op: OpDelete}}
	}
	return nil
}
