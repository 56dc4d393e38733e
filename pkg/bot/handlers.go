package bot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/snippymart/whatsapp-bot/pkg/models"
)

const maxWebhookBodyBytes = 1 << 20

// handleWebhook acks the provider immediately and processes the payload on
// its own goroutine. Downstream failures must never surface as webhook
// errors, or the provider would retry and multiply deliveries.
func (s *Service) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read webhook body")
		w.WriteHeader(http.StatusOK)
		return
	}

	w.WriteHeader(http.StatusOK)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		s.router.HandleRaw(ctx, body)
	}()
}

// handleVerify answers the provider's webhook registration handshake.
func (s *Service) handleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == s.cfg.VerifyToken {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	http.Error(w, "Verification failed", http.StatusForbidden)
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":      "healthy",
		"instance_id": s.cfg.InstanceID,
		"uptime":      s.uptime(),
		"timestamp":   time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	counts := s.sessions.ModeCounts()
	modes := map[string]int{}
	for _, m := range []models.UserMode{models.ModeInactive, models.ModeBotActive, models.ModeHumanHandoff, models.ModeBlocked} {
		modes[string(m)] = counts[m]
	}

	response := map[string]interface{}{
		"instance_id":  s.cfg.InstanceID,
		"uptime":       s.uptime(),
		"sessions":     s.sessions.Len(),
		"modes":        modes,
		"catalog_size": s.catalog.Size(),
		"hours": map[string]interface{}{
			"open":      s.gate.IsOpen(now),
			"window_id": s.gate.WindowID(now),
		},
		"timestamp": now,
	}

	if sized, ok := s.dedup.(interface{ Len() int }); ok {
		response["dedup_entries"] = sized.Len()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
