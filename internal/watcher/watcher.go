// Package watcher provides debounced file watching for macro definition
// files and documentation sources, so rapid editor saves collapse into a
// single re-render.
package watcher

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType classifies a file change.
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ChangeEvent is one debounced file change.
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
	Size    int64
}

// FileFilter reports whether a path is interesting. All registered
// filters must accept a path for its events to be delivered.
type FileFilter func(path string) bool

// ChangeHandler receives a debounced batch of change events.
type ChangeHandler func(events []ChangeEvent) error

// FileWatcher wraps fsnotify with path validation, filtering, and
// debouncing.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	filters   []FileFilter
	handlers  []ChangeHandler
	mutex     sync.RWMutex
}

// NewFileWatcher creates a watcher that batches changes arriving within
// debounceDelay of each other.
func NewFileWatcher(debounceDelay time.Duration) (*FileWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &FileWatcher{
		watcher:   fsWatcher,
		debouncer: newDebouncer(debounceDelay),
	}, nil
}

// AddFilter registers a file filter.
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.filters = append(fw.filters, filter)
}

// AddHandler registers a change handler.
func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// AddPath watches a single file or directory.
func (fw *FileWatcher) AddPath(path string) error {
	cleanPath, err := fw.validatePath(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	return fw.watcher.Add(cleanPath)
}

// AddRecursive watches a directory tree. fsnotify has no recursive
// mode, so every subdirectory gets its own watch.
func (fw *FileWatcher) AddRecursive(root string) error {
	cleanRoot, err := fw.validatePath(root)
	if err != nil {
		return fmt.Errorf("invalid root path: %w", err)
	}

	return filepath.Walk(cleanRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}

		cleanPath, err := fw.validatePath(path)
		if err != nil {
			log.Printf("Skipping invalid directory path: %s", path)
			return nil
		}
		return fw.watcher.Add(cleanPath)
	})
}

// validatePath cleans a path and rejects anything escaping the working
// tree. Watching outside the project is never intended.
func (fw *FileWatcher) validatePath(path string) (string, error) {
	cleanPath := filepath.Clean(path)

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}

	if !strings.HasPrefix(absPath, cwd) {
		return "", fmt.Errorf("path %s is outside current working directory", path)
	}
	if strings.Contains(cleanPath, "..") {
		return "", fmt.Errorf("path contains directory traversal: %s", path)
	}

	return cleanPath, nil
}

// Start launches the watch goroutines. They exit when ctx is canceled.
func (fw *FileWatcher) Start(ctx context.Context) error {
	go fw.debouncer.run(ctx)
	go fw.run(ctx)
	return nil
}

// Stop closes the underlying watcher and cancels any pending flush.
func (fw *FileWatcher) Stop() error {
	if fw.debouncer.timer != nil {
		fw.debouncer.timer.Stop()
	}
	return fw.watcher.Close()
}

// run drives both sides of the pipeline: raw fsnotify events into the
// debouncer, debounced batches out to the handlers.
func (fw *FileWatcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event := <-fw.watcher.Events:
			fw.accept(event)

		case err := <-fw.watcher.Errors:
			log.Printf("File watcher error: %v", err)

		case events := <-fw.debouncer.output:
			fw.dispatch(events)
		}
	}
}

// accept filters a raw fsnotify event and queues it for debouncing.
func (fw *FileWatcher) accept(event fsnotify.Event) {
	fw.mutex.RLock()
	filters := fw.filters
	fw.mutex.RUnlock()

	for _, filter := range filters {
		if !filter(event.Name) {
			return
		}
	}

	change := ChangeEvent{
		Type: eventTypeOf(event.Op),
		Path: event.Name,
	}
	if info, err := os.Stat(event.Name); err == nil {
		change.ModTime = info.ModTime()
		change.Size = info.Size()
	}

	fw.debouncer.addEvent(change)
}

func (fw *FileWatcher) dispatch(events []ChangeEvent) {
	fw.mutex.RLock()
	handlers := fw.handlers
	fw.mutex.RUnlock()

	for _, handler := range handlers {
		if err := handler(events); err != nil {
			log.Printf("File watcher handler error: %v", err)
		}
	}
}

func eventTypeOf(op fsnotify.Op) EventType {
	switch {
	case op&fsnotify.Create != 0:
		return EventTypeCreated
	case op&fsnotify.Remove != 0:
		return EventTypeDeleted
	case op&fsnotify.Rename != 0:
		return EventTypeRenamed
	default:
		return EventTypeModified
	}
}

// Debouncer collects change events and emits them as one batch after a
// quiet period, deduplicated by path.
type Debouncer struct {
	delay   time.Duration
	output  chan []ChangeEvent
	timer   *time.Timer
	pending []ChangeEvent
	mutex   sync.Mutex
}

func newDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:  delay,
		output: make(chan []ChangeEvent, 10),
	}
}

// run keeps the debouncer alive for the watch session. Events arrive
// via addEvent; run only pins the timer goroutine lifetime to ctx.
func (d *Debouncer) run(ctx context.Context) {
	<-ctx.Done()

	d.mutex.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mutex.Unlock()
}

func (d *Debouncer) addEvent(event ChangeEvent) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pending = append(d.pending, event)

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

func (d *Debouncer) flush() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if len(d.pending) == 0 {
		return
	}

	// Last event per path wins within a batch.
	byPath := make(map[string]ChangeEvent)
	for _, event := range d.pending {
		byPath[event.Path] = event
	}

	events := make([]ChangeEvent, 0, len(byPath))
	for _, event := range byPath {
		events = append(events, event)
	}

	select {
	case d.output <- events:
	default:
		// Nobody draining, drop the batch
	}

	d.pending = d.pending[:0]
}

// Common file filters

// MacroFilter matches macro definition files.
func MacroFilter(path string) bool {
	return filepath.Ext(path) == ".ddoc"
}

// DocFilter returns a filter matching documentation sources by extension.
func DocFilter(extensions []string) FileFilter {
	return func(path string) bool {
		for _, ext := range extensions {
			if strings.HasSuffix(path, ext) {
				return true
			}
		}
		return false
	}
}

// SourceFilter matches anything macrodoc renders from: macro files or
// documentation sources.
func SourceFilter(extensions []string) FileFilter {
	docs := DocFilter(extensions)
	return func(path string) bool {
		return MacroFilter(path) || docs(path)
	}
}

// NoBackupFilter drops editor backup files.
func NoBackupFilter(path string) bool {
	base := filepath.Base(path)
	return !strings.HasSuffix(base, "~") && !strings.HasSuffix(base, ".bak")
}

// NoGitFilter drops anything under .git.
func NoGitFilter(path string) bool {
	return !filepath.HasPrefix(path, ".git/") && !strings.Contains(path, "/.git/")
}
