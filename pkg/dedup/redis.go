package dedup

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const redisKeyPrefix = "dedup:event:"

// RedisStore deduplicates through a shared Redis instance using SET NX with
// the dedup TTL, so suppression survives process restarts. Key expiry
// replaces the manual sweep.
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *RedisStore {
	return &RedisStore{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *RedisStore) ShouldProcess(ctx context.Context, eventID string) bool {
	ok, err := r.rdb.SetNX(ctx, redisKeyPrefix+eventID, time.Now().UnixMilli(), r.ttl).Result()
	if err != nil {
		// Favor availability: a Redis outage must not silence the bot, so
		// the event is admitted and duplicate suppression degrades.
		r.logger.WithError(err).WithField("event_id", eventID).Warn("Dedup check failed, admitting event")
		return true
	}
	return ok
}

func (r *RedisStore) Sweep(_ context.Context) int {
	// Redis expires dedup keys on its own.
	return 0
}
