package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestMemoryStore_SuppressesReplayWithinTTL(t *testing.T) {
	store := NewMemoryStore(60*time.Second, 5*time.Minute, testLogger())
	ctx := context.Background()

	assert.True(t, store.ShouldProcess(ctx, "wamid.1"))
	assert.False(t, store.ShouldProcess(ctx, "wamid.1"))
	assert.False(t, store.ShouldProcess(ctx, "wamid.1"))

	// A different id is unaffected.
	assert.True(t, store.ShouldProcess(ctx, "wamid.2"))
}

func TestMemoryStore_ReacceptsAfterTTL(t *testing.T) {
	store := NewMemoryStore(60*time.Second, 5*time.Minute, testLogger())
	ctx := context.Background()

	now := time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return now }

	require.True(t, store.ShouldProcess(ctx, "wamid.1"))

	now = now.Add(59 * time.Second)
	assert.False(t, store.ShouldProcess(ctx, "wamid.1"))

	// Past the TTL the same id counts as a new logical event.
	now = now.Add(2 * time.Second)
	assert.True(t, store.ShouldProcess(ctx, "wamid.1"))
}

func TestMemoryStore_SweepBoundsMemory(t *testing.T) {
	store := NewMemoryStore(60*time.Second, 5*time.Minute, testLogger())
	ctx := context.Background()

	now := time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return now }

	require.True(t, store.ShouldProcess(ctx, "old.1"))
	require.True(t, store.ShouldProcess(ctx, "old.2"))

	now = now.Add(6 * time.Minute)
	require.True(t, store.ShouldProcess(ctx, "fresh.1"))

	removed := store.Sweep(ctx)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, store.Len())

	// The fresh entry still dedups.
	assert.False(t, store.ShouldProcess(ctx, "fresh.1"))
}
