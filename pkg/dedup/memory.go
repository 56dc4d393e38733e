package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// MemoryStore is the default in-process deduplicator: a map of event id to
// first-seen time guarded by a mutex. State resets on restart, which the
// at-least-once webhook contract tolerates.
type MemoryStore struct {
	ttl     time.Duration
	horizon time.Duration
	logger  *logrus.Logger
	clock   func() time.Time

	mu   sync.Mutex
	seen map[string]time.Time
}

// NewMemoryStore builds a store that rejects ids seen within ttl and sweeps
// entries older than horizon. horizon must be at least ttl.
func NewMemoryStore(ttl, horizon time.Duration, logger *logrus.Logger) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		horizon: horizon,
		logger:  logger,
		clock:   time.Now,
		seen:    make(map[string]time.Time),
	}
}

func (m *MemoryStore) ShouldProcess(_ context.Context, eventID string) bool {
	now := m.clock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if first, ok := m.seen[eventID]; ok && now.Sub(first) < m.ttl {
		return false
	}
	// First sight, or old enough to count as a new logical event.
	m.seen[eventID] = now
	return true
}

func (m *MemoryStore) Sweep(_ context.Context) int {
	cutoff := m.clock().Add(-m.horizon)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, first := range m.seen {
		if first.Before(cutoff) {
			delete(m.seen, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.WithField("removed_count", removed).Debug("Swept expired dedup entries")
	}
	return removed
}

// Len returns the number of tracked ids, for the status endpoint.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}
