package requestlog

import (
	"strings"
	"sync"
)

// Logger is the minimal interface the engine needs to offer entries to a
// logging collaborator. Implementations decide what to do with them.
type Logger interface {
	Log(entry *Entry)
}

// Store extends Logger with history inspection.
type Store interface {
	Logger

	// Get retrieves an entry by ID, or nil.
	Get(id string) *Entry

	// List returns entries matching the filter, newest last.
	List(filter *Filter) []*Entry

	// Clear removes all entries.
	Clear()

	// Count returns the number of stored entries.
	Count() int
}

// Filter selects entries from a Store.
type Filter struct {
	// Protocol filters by handler protocol (rest, graphql).
	Protocol string

	// Method filters by HTTP method.
	Method string

	// URLPrefix filters by URL prefix.
	URLPrefix string

	// Status filters by response status code.
	Status int

	// Mocked filters by the mock marker, when non-nil.
	Mocked *bool

	// Limit caps the number of returned entries; 0 means no cap.
	Limit int
}

// MemoryStore keeps the most recent entries in memory, evicting the
// oldest once capacity is reached.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	entries  []*Entry
}

var _ Store = (*MemoryStore)(nil)

// DefaultCapacity bounds a MemoryStore constructed with capacity <= 0.
const DefaultCapacity = 1000

// NewMemoryStore creates an in-memory store holding at most capacity
// entries.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{capacity: capacity}
}

// Log implements Logger.
func (s *MemoryStore) Log(entry *Entry) {
	if entry == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	if len(s.entries) > s.capacity {
		s.entries = s.entries[len(s.entries)-s.capacity:]
	}
}

// Get implements Store.
func (s *MemoryStore) Get(id string) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// List implements Store.
func (s *MemoryStore) List(filter *Filter) []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Entry
	for _, e := range s.entries {
		if !matches(e, filter) {
			continue
		}
		out = append(out, e)
		if filter != nil && filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out
}

// Clear implements Store.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// Count implements Store.
func (s *MemoryStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func matches(e *Entry, f *Filter) bool {
	if f == nil {
		return true
	}
	if f.Protocol != "" && e.Protocol != f.Protocol {
		return false
	}
	if f.Method != "" && !strings.EqualFold(f.Method, e.Method) {
		return false
	}
	if f.URLPrefix != "" && !strings.HasPrefix(e.URL, f.URLPrefix) {
		return false
	}
	if f.Status != 0 && e.ResponseStatus != f.Status {
		return false
	}
	if f.Mocked != nil && e.Mocked != *f.Mocked {
		return false
	}
	return true
}

// Nop returns a Logger that discards every entry.
func Nop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Log(*Entry) {}
