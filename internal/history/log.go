package history

import (
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MaxEntries bounds the log.
const MaxEntries = 10

// ErrEntryNotFound is returned when an ID is not in the log.
var ErrEntryNotFound = errors.New("history entry not found")

// Log is an ordered, newest-first list of at most MaxEntries entries.
// Entries are addressed by ID, never by position.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewLog creates a log holding entries, keeping the first MaxEntries.
func NewLog(entries []Entry) *Log {
	l := &Log{}
	l.Replace(entries)
	return l
}

// Add inserts e at the front and drops anything past MaxEntries. An entry
// without an ID gets one. The stored entry is returned.
func (l *Log) Add(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = slices.Insert(l.entries, 0, e)
	if len(l.entries) > MaxEntries {
		l.entries = l.entries[:MaxEntries:MaxEntries]
	}
	return e
}

// Get returns the entry with id.
func (l *Log) Get(id string) (Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := l.index(id)
	if i < 0 {
		return Entry{}, ErrEntryNotFound
	}
	return l.entries[i], nil
}

// Delete removes the entry with id.
func (l *Log) Delete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(id)
	if i < 0 {
		return ErrEntryNotFound
	}
	l.entries = slices.Delete(l.entries, i, i+1)
	return nil
}

// Entries returns a copy of the log, newest first.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return slices.Clone(l.entries)
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.entries)
}

// Clear empties the log.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = nil
}

// Replace swaps the contents for entries, truncated to MaxEntries.
func (l *Log) Replace(entries []Entry) {
	entries = slices.Clone(entries)
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = entries
}

func (l *Log) index(id string) int {
	return slices.IndexFunc(l.entries, func(e Entry) bool { return e.ID == id })
}
