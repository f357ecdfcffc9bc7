// Package macro implements the macro substitution engine: a named table
// of parameterized text templates, a loader for NAME = VALUE definition
// files, and a recursive expander for $(NAME arg1, arg2, ...) invocations.
//
// The table is safe for concurrent use and broadcasts change events so
// the file watcher and preview server can react to macro redefinitions.
// A render pass treats the table as immutable: the expander only reads.
package macro

import (
	"sort"
	"sync"
	"time"
)

// Table manages all known macro definitions.
type Table struct {
	defs     map[string]string
	mutex    sync.RWMutex
	watchers []chan Event
}

// Event represents a change in the macro table.
type Event struct {
	Type      EventType
	Name      string
	Value     string
	Timestamp time.Time
}

// EventType represents the type of macro table event.
type EventType int

const (
	EventTypeDefined EventType = iota
	EventTypeRedefined
	EventTypeRemoved
)

// String returns the string representation of the EventType.
func (e EventType) String() string {
	switch e {
	case EventTypeDefined:
		return "defined"
	case EventTypeRedefined:
		return "redefined"
	case EventTypeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// NewTable creates an empty macro table.
func NewTable() *Table {
	return &Table{
		defs:     make(map[string]string),
		watchers: make([]chan Event, 0),
	}
}

// Define adds or replaces a macro definition. Redefinition wins over any
// earlier definition of the same name.
func (t *Table) Define(name, value string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	eventType := EventTypeDefined
	if _, exists := t.defs[name]; exists {
		eventType = EventTypeRedefined
	}

	t.defs[name] = value

	t.notify(Event{
		Type:      eventType,
		Name:      name,
		Value:     value,
		Timestamp: time.Now(),
	})
}

// Lookup retrieves a macro template by name.
func (t *Table) Lookup(name string) (string, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	value, exists := t.defs[name]
	return value, exists
}

// Remove deletes a macro definition.
func (t *Table) Remove(name string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, exists := t.defs[name]; !exists {
		return
	}

	delete(t.defs, name)

	t.notify(Event{
		Type:      EventTypeRemoved,
		Name:      name,
		Timestamp: time.Now(),
	})
}

// Names returns all defined macro names in sorted order.
func (t *Table) Names() []string {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	names := make([]string, 0, len(t.defs))
	for name := range t.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of all definitions.
func (t *Table) Snapshot() map[string]string {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	result := make(map[string]string, len(t.defs))
	for name, value := range t.defs {
		result[name] = value
	}
	return result
}

// Clone returns an independent copy of the table without watchers.
// Render passes clone the shared table so per-document definitions like
// BODY and TITLE never leak between documents.
func (t *Table) Clone() *Table {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	clone := NewTable()
	for name, value := range t.defs {
		clone.defs[name] = value
	}
	return clone
}

// Count returns the number of defined macros.
func (t *Table) Count() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return len(t.defs)
}

// Watch returns a channel that receives macro table events.
func (t *Table) Watch() <-chan Event {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	ch := make(chan Event, 100)
	t.watchers = append(t.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it.
func (t *Table) UnWatch(ch <-chan Event) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for i, watcher := range t.watchers {
		if watcher == ch {
			close(watcher)
			t.watchers = append(t.watchers[:i], t.watchers[i+1:]...)
			break
		}
	}
}

// notify sends an event to all watchers. Callers must hold the lock.
func (t *Table) notify(event Event) {
	for _, watcher := range t.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}
