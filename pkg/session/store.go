package session

import (
	"time"

	"github.com/snippymart/whatsapp-bot/pkg/models"
)

// TTLs bundles the independent expiry horizons applied by SweepStale.
type TTLs struct {
	// Session removes a sender's state entirely after this much inactivity.
	Session time.Duration
	// Transcript clears only the rolling transcript once it goes stale.
	Transcript time.Duration
	// Handoff returns a stale human_handoff session to bot_active so the
	// bot is not muted forever when an operator never replies.
	Handoff time.Duration
}

// Store is the per-sender state abstraction injected into the router. The
// reference implementation is memory-resident; the interface exists so an
// external store can replace it without touching router logic.
//
// Update runs fn atomically against the sender's session (creating an
// inactive one on first use), which is how mode check-and-transitions stay
// race-free: no I/O ever happens inside fn.
type Store interface {
	Get(senderID string) (models.UserSession, bool)
	Update(senderID string, fn func(*models.UserSession)) models.UserSession
	Delete(senderID string)
	ForEach(fn func(models.UserSession))
	ModeCounts() map[models.UserMode]int
	Len() int
	SweepStale(now time.Time, ttls TTLs) int
}
