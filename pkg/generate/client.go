package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/snippymart/whatsapp-bot/pkg/metrics"
	"github.com/snippymart/whatsapp-bot/pkg/models"
)

// Request carries the free-text query plus the rolling transcript used as
// generation context.
type Request struct {
	Query      string        `json:"query"`
	Transcript []models.Turn `json:"transcript,omitempty"`
}

// Client is the generative-reply collaborator. Besides prose it may answer
// with a routing signal; both are expressed through the GenReply variant,
// and a transport failure maps to GenUnavailable rather than an error the
// router would have to interpret.
type Client interface {
	Generate(ctx context.Context, req Request) models.GenReply
}

type HTTPClient struct {
	url     string
	client  *http.Client
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

func NewHTTPClient(url string, logger *logrus.Logger, m *metrics.Metrics) *HTTPClient {
	return &HTTPClient{
		url:     url,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
		metrics: m,
	}
}

func (c *HTTPClient) Generate(ctx context.Context, req Request) models.GenReply {
	start := time.Now()
	defer func() {
		c.metrics.CollaboratorDuration.WithLabelValues("generate").Observe(time.Since(start).Seconds())
	}()

	reply, err := c.generate(ctx, req)
	if err != nil {
		c.logger.WithError(err).Warn("Generation call failed")
		return models.GenReply{Kind: models.GenUnavailable}
	}
	return reply
}

func (c *HTTPClient) generate(ctx context.Context, req Request) (models.GenReply, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return models.GenReply{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return models.GenReply{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return models.GenReply{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.GenReply{}, fmt.Errorf("generation service returned status %d", resp.StatusCode)
	}

	var payload struct {
		Reply  string `json:"reply"`
		Signal string `json:"signal"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.GenReply{}, err
	}

	// Signals are decoded at this edge so magic strings never leak into
	// the router.
	switch payload.Signal {
	case "ESCALATE":
		return models.GenReply{Kind: models.GenEscalate}, nil
	case "ORDER_INFO":
		return models.GenReply{Kind: models.GenOrderInfo}, nil
	}
	if payload.Reply == "" {
		return models.GenReply{Kind: models.GenUnavailable}, nil
	}
	return models.GenReply{Kind: models.GenText, Text: payload.Reply}, nil
}
