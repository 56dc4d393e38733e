package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/snippymart/whatsapp-bot/pkg/metrics"
	"github.com/snippymart/whatsapp-bot/pkg/models"
)

// Client is the content-service collaborator. It is fallible and possibly
// slow; callers degrade gracefully instead of surfacing its errors.
type Client interface {
	ListCatalog(ctx context.Context) ([]models.CatalogEntry, error)
	GetEntryDetail(ctx context.Context, id string) (models.EntryDetail, error)
}

type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

func NewHTTPClient(baseURL string, logger *logrus.Logger, m *metrics.Metrics) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
		metrics: m,
	}
}

func (c *HTTPClient) ListCatalog(ctx context.Context) ([]models.CatalogEntry, error) {
	start := time.Now()
	defer func() {
		c.metrics.CollaboratorDuration.WithLabelValues("catalog_list").Observe(time.Since(start).Seconds())
	}()

	var payload struct {
		Entries []models.CatalogEntry `json:"entries"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/catalog", &payload); err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}
	return payload.Entries, nil
}

func (c *HTTPClient) GetEntryDetail(ctx context.Context, id string) (models.EntryDetail, error) {
	start := time.Now()
	defer func() {
		c.metrics.CollaboratorDuration.WithLabelValues("catalog_detail").Observe(time.Since(start).Seconds())
	}()

	var detail models.EntryDetail
	if err := c.getJSON(ctx, c.baseURL+"/catalog/"+id, &detail); err != nil {
		return models.EntryDetail{}, fmt.Errorf("failed to get entry %s: %w", id, err)
	}
	return detail, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("content service returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
