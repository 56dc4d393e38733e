package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/snippymart/whatsapp-bot/pkg/models"
)

// Service fronts the content service with a cached snapshot so menu
// rendering does not hit the collaborator on every greeting. On refresh
// failure it keeps serving the last good snapshot.
type Service struct {
	client  Client
	refresh time.Duration
	logger  *logrus.Logger
	clock   func() time.Time

	mu       sync.Mutex
	entries  []models.CatalogEntry
	loadedAt time.Time
}

func NewService(client Client, refresh time.Duration, logger *logrus.Logger) *Service {
	return &Service{
		client:  client,
		refresh: refresh,
		logger:  logger,
		clock:   time.Now,
	}
}

// Entries returns the cached catalog, refreshing it first when stale. A
// refresh failure is logged and the previous snapshot (possibly empty) is
// returned instead of an error.
func (s *Service) Entries(ctx context.Context) []models.CatalogEntry {
	s.mu.Lock()
	fresh := !s.loadedAt.IsZero() && s.clock().Sub(s.loadedAt) < s.refresh
	cached := append([]models.CatalogEntry(nil), s.entries...)
	s.mu.Unlock()

	if fresh {
		return cached
	}
	if _, err := s.Reload(ctx); err != nil {
		s.logger.WithError(err).Warn("Catalog refresh failed, serving last good snapshot")
		return cached
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CatalogEntry(nil), s.entries...)
}

// Reload forces a fetch from the content service and returns the new size.
func (s *Service) Reload(ctx context.Context) (int, error) {
	entries, err := s.client.ListCatalog(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.entries = entries
	s.loadedAt = s.clock()
	s.mu.Unlock()

	s.logger.WithField("catalog_size", len(entries)).Info("Catalog reloaded")
	return len(entries), nil
}

// Detail passes through to the content service; flows are not cached, they
// change more often than the listing and are fetched per selection.
func (s *Service) Detail(ctx context.Context, id string) (models.EntryDetail, error) {
	return s.client.GetEntryDetail(ctx, id)
}

// Size returns the cached catalog size without triggering a refresh.
func (s *Service) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
