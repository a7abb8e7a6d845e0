package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/tweetsmith/backend/internal/model/tweet"
)

// Service keeps generated tweets in arrival order for the lifetime of the process.
// The list is append-only and unbounded.
type Service struct {
	mu          sync.RWMutex
	entries     []tweet.Entry
	subscribers map[uint64]chan tweet.Entry
	nextID      uint64
}

// NewService bootstraps an empty in-memory history.
func NewService() *Service {
	return &Service{
		entries:     make([]tweet.Entry, 0, 16),
		subscribers: make(map[uint64]chan tweet.Entry),
	}
}

// Append stores entry, assigning its id and timestamp, and notifies subscribers.
func (s *Service) Append(_ context.Context, entry tweet.Entry) tweet.Entry {
	entry.ID = uuid.NewString()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	for _, ch := range s.subscribers {
		// slow subscribers miss entries instead of stalling generation
		select {
		case ch <- entry:
		default:
		}
	}
	return entry
}

// List returns a copy of the history in insertion order.
func (s *Service) List(_ context.Context) []tweet.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]tweet.Entry, len(s.entries))
	copy(copied, s.entries)
	return copied
}

// Len reports how many entries have been appended.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Subscribe atomically returns the current snapshot and a channel of later entries.
// The returned cancel func closes the channel and must be called once.
func (s *Service) Subscribe(buffer int) ([]tweet.Entry, <-chan tweet.Entry, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan tweet.Entry, buffer)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = ch
	snapshot := make([]tweet.Entry, len(s.entries))
	copy(snapshot, s.entries)
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			close(ch)
			s.mu.Unlock()
		})
	}
	return snapshot, ch, cancel
}
