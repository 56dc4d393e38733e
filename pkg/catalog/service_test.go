package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snippymart/whatsapp-bot/pkg/models"
)

type fakeClient struct {
	entries  []models.CatalogEntry
	detail   models.EntryDetail
	err      error
	listHits int
}

func (f *fakeClient) ListCatalog(ctx context.Context) ([]models.CatalogEntry, error) {
	f.listHits++
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

func (f *fakeClient) GetEntryDetail(ctx context.Context, id string) (models.EntryDetail, error) {
	if f.err != nil {
		return models.EntryDetail{}, f.err
	}
	return f.detail, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestService_EntriesCachesWithinRefresh(t *testing.T) {
	client := &fakeClient{entries: []models.CatalogEntry{{ID: "p1", Title: "Coffee"}}}
	svc := NewService(client, 15*time.Minute, testLogger())

	first := svc.Entries(context.Background())
	second := svc.Entries(context.Background())

	assert.Len(t, first, 1)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.listHits, "second read should hit the cache")
}

func TestService_EntriesRefreshesWhenStale(t *testing.T) {
	client := &fakeClient{entries: []models.CatalogEntry{{ID: "p1", Title: "Coffee"}}}
	svc := NewService(client, 15*time.Minute, testLogger())

	now := time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return now }

	svc.Entries(context.Background())
	now = now.Add(16 * time.Minute)
	client.entries = append(client.entries, models.CatalogEntry{ID: "p2", Title: "Tea"})

	refreshed := svc.Entries(context.Background())
	assert.Len(t, refreshed, 2)
	assert.Equal(t, 2, client.listHits)
}

func TestService_ServesLastGoodSnapshotOnFailure(t *testing.T) {
	client := &fakeClient{entries: []models.CatalogEntry{{ID: "p1", Title: "Coffee"}}}
	svc := NewService(client, time.Nanosecond, testLogger())

	require.Len(t, svc.Entries(context.Background()), 1)

	client.err = errors.New("content service down")
	got := svc.Entries(context.Background())
	assert.Len(t, got, 1, "failure must serve the previous snapshot")
	assert.Equal(t, "Coffee", got[0].Title)
}

func TestService_ReloadReportsError(t *testing.T) {
	client := &fakeClient{err: errors.New("boom")}
	svc := NewService(client, time.Minute, testLogger())

	_, err := svc.Reload(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, svc.Size())
}
