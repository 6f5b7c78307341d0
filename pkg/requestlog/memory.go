package requestlog

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxEntries bounds a MemoryStore created with a non-positive size.
const DefaultMaxEntries = 1000

// subscriberBuffer is the channel capacity of each subscriber.
const subscriberBuffer = 64

// MemoryStore is a SubscribableStore backed by a bounded FIFO buffer.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    []*Entry
	maxEntries int

	subMu       sync.RWMutex
	subscribers map[Subscriber]struct{}
}

// NewMemoryStore creates a store keeping at most maxEntries entries.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{
		entries:     make([]*Entry, 0, min(maxEntries, 64)),
		maxEntries:  maxEntries,
		subscribers: make(map[Subscriber]struct{}),
	}
}

// Log records entry, assigning an ID and timestamp when missing.
func (s *MemoryStore) Log(entry *Entry) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	s.mu.Lock()
	// FIFO eviction: remove oldest if at capacity
	if len(s.entries) >= s.maxEntries {
		s.entries = s.entries[1:]
	}
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	s.subMu.RLock()
	for sub := range s.subscribers {
		select {
		case sub <- entry:
		default:
			// Drop if subscriber is slow
		}
	}
	s.subMu.RUnlock()
}

// Get retrieves a log entry by ID.
func (s *MemoryStore) Get(id string) *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.entries {
		if entry.ID == id {
			return entry
		}
	}
	return nil
}

// List returns entries newest first.
func (s *MemoryStore) List(filter *Filter) []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Entry, 0, len(s.entries))
	skipped := 0
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if filter != nil && !matchesFilter(entry, filter) {
			continue
		}
		if filter != nil && skipped < filter.Offset {
			skipped++
			continue
		}
		result = append(result, entry)
		if filter != nil && filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}
	return result
}

func matchesFilter(entry *Entry, filter *Filter) bool {
	if filter.Method != "" && !strings.EqualFold(entry.Method, filter.Method) {
		return false
	}
	if filter.Path != "" && !strings.HasPrefix(entry.Path, filter.Path) {
		return false
	}
	if filter.Route != "" && entry.Route != filter.Route {
		return false
	}
	if filter.StatusCode != 0 && entry.ResponseStatus != filter.StatusCode {
		return false
	}
	return true
}

// Clear removes all entries.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
}

// Count returns the number of entries.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Subscribe registers a subscriber. The returned function unsubscribes and
// closes the channel; it is safe to call more than once.
func (s *MemoryStore) Subscribe() (Subscriber, func()) {
	sub := make(Subscriber, subscriberBuffer)

	s.subMu.Lock()
	s.subscribers[sub] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	return sub, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, sub)
			s.subMu.Unlock()
			close(sub)
		})
	}
}
