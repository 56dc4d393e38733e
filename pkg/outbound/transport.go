package outbound

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/snippymart/whatsapp-bot/pkg/metrics"
)

const (
	KindText        = "text"
	KindInteractive = "interactive"
)

// Option is one row of an interactive list or button message.
type Option struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Message is the outbound API payload. SessionID is the opaque routing
// token the transport needs to address the right conversation thread.
type Message struct {
	Recipient string   `json:"recipient"`
	SessionID string   `json:"session_id"`
	Kind      string   `json:"kind"`
	Body      string   `json:"body"`
	Options   []Option `json:"options,omitempty"`
}

// Transport delivers a single outbound message and reports failure so the
// dispatcher can fall back.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

type HTTPTransport struct {
	url     string
	token   string
	client  *http.Client
	metrics *metrics.Metrics
}

func NewHTTPTransport(url, token string, m *metrics.Metrics) *HTTPTransport {
	return &HTTPTransport{
		url:     url,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
		metrics: m,
	}
}

func (t *HTTPTransport) Send(ctx context.Context, msg Message) error {
	start := time.Now()
	defer func() {
		t.metrics.CollaboratorDuration.WithLabelValues("outbound").Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("outbound API returned status %d", resp.StatusCode)
	}
	return nil
}

var _ Transport = (*HTTPTransport)(nil)
