package attemptlog

import (
	"context"
	"sync"
)

// DefaultMemoryAttempts is how many attempts NewMemoryRepository keeps.
const DefaultMemoryAttempts = 500

// MemoryRepository keeps the entries of the most recent attempts in memory.
// Once more than maxAttempts attempts have been seen, the oldest attempt is
// forgotten as a whole.
type MemoryRepository struct {
	mu          sync.RWMutex
	maxAttempts int
	order       []string
	entries     map[string][]Entry
}

func NewMemoryRepository() *MemoryRepository {
	return NewBoundedMemoryRepository(DefaultMemoryAttempts)
}

// NewBoundedMemoryRepository keeps at most maxAttempts attempts (minimum 1).
func NewBoundedMemoryRepository(maxAttempts int) *MemoryRepository {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &MemoryRepository{
		maxAttempts: maxAttempts,
		entries:     make(map[string][]Entry),
	}
}

func (m *MemoryRepository) Save(_ context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[entry.AttemptID]; !ok {
		m.order = append(m.order, entry.AttemptID)
		if len(m.order) > m.maxAttempts {
			delete(m.entries, m.order[0])
			m.order = m.order[1:]
		}
	}
	m.entries[entry.AttemptID] = append(m.entries[entry.AttemptID], *entry)
	return nil
}

func (m *MemoryRepository) GetLatest(_ context.Context, attemptID string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.entries[attemptID]
	if len(history) == 0 {
		return nil, ErrNotFound
	}
	e := history[len(history)-1]
	return &e, nil
}

// History returns every entry of an attempt, oldest first.
func (m *MemoryRepository) History(attemptID string) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]Entry(nil), m.entries[attemptID]...)
}

// Len is the number of attempts currently kept.
func (m *MemoryRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order)
}
