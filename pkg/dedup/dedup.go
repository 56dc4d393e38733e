package dedup

import "context"

// Deduplicator suppresses provider webhook replays. ShouldProcess is a
// check-and-set: it returns true and records the id's first-seen time in a
// single atomic step, so concurrent deliveries of the same id admit exactly
// one. An id older than the TTL is re-accepted as a new logical event.
type Deduplicator interface {
	ShouldProcess(ctx context.Context, eventID string) bool

	// Sweep removes entries past the cleanup horizon and returns how many
	// were dropped. Implementations with native expiry may no-op.
	Sweep(ctx context.Context) int
}
