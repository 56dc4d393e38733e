package session

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/snippymart/whatsapp-bot/pkg/models"
)

// MemoryStore keeps all sessions in a map under one mutex. Critical
// sections only touch the map, never the network, so read-modify-write
// sequences on a sender are atomic with respect to concurrent events.
type MemoryStore struct {
	logger *logrus.Logger

	mu       sync.Mutex
	sessions map[string]*models.UserSession
}

func NewMemoryStore(logger *logrus.Logger) *MemoryStore {
	return &MemoryStore{
		logger:   logger,
		sessions: make(map[string]*models.UserSession),
	}
}

func (m *MemoryStore) Get(senderID string) (models.UserSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[senderID]
	if !ok {
		return models.UserSession{}, false
	}
	return cloneSession(s), true
}

func (m *MemoryStore) Update(senderID string, fn func(*models.UserSession)) models.UserSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[senderID]
	if !ok {
		s = &models.UserSession{
			SenderID:     senderID,
			Mode:         models.ModeInactive,
			LastActivity: time.Now(),
		}
		m.sessions[senderID] = s
	}
	fn(s)
	return cloneSession(s)
}

func (m *MemoryStore) Delete(senderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, senderID)
}

func (m *MemoryStore) ForEach(fn func(models.UserSession)) {
	m.mu.Lock()
	snapshot := make([]models.UserSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		snapshot = append(snapshot, cloneSession(s))
	}
	m.mu.Unlock()

	// Callbacks run outside the lock: broadcast sends network traffic.
	for _, s := range snapshot {
		fn(s)
	}
}

func (m *MemoryStore) ModeCounts() map[models.UserMode]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[models.UserMode]int)
	for _, s := range m.sessions {
		counts[s.Mode]++
	}
	return counts
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// SweepStale applies the independent expiries: whole sessions past the
// session TTL are removed, stale transcripts are cleared in place, and
// stale handoffs fall back to bot_active. Returns the number of sessions
// removed outright.
func (m *MemoryStore) SweepStale(now time.Time, ttls TTLs) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if ttls.Session > 0 && now.Sub(s.LastActivity) > ttls.Session {
			delete(m.sessions, id)
			removed++
			continue
		}
		if ttls.Transcript > 0 && len(s.Transcript) > 0 && now.Sub(s.TranscriptAt) > ttls.Transcript {
			s.Transcript = nil
		}
		if ttls.Handoff > 0 && s.Mode == models.ModeHumanHandoff && now.Sub(s.HandoffAt) > ttls.Handoff {
			s.Mode = models.ModeBotActive
			m.logger.WithField("sender_id", id).Info("Expired stale human handoff")
		}
	}
	if removed > 0 {
		m.logger.WithField("removed_count", removed).Debug("Swept stale sessions")
	}
	return removed
}

func cloneSession(s *models.UserSession) models.UserSession {
	out := *s
	out.LastCatalog = append([]models.CatalogEntry(nil), s.LastCatalog...)
	out.Transcript = append([]models.Turn(nil), s.Transcript...)
	return out
}
