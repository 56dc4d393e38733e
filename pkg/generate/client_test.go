package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snippymart/whatsapp-bot/pkg/metrics"
	"github.com/snippymart/whatsapp-bot/pkg/models"
)

func testDeps() (*logrus.Logger, *metrics.Metrics) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger, metrics.NewMetricsWith(prometheus.NewRegistry())
}

func TestHTTPClient_TextReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "how do I brew this?", req.Query)
		assert.Len(t, req.Transcript, 2)
		json.NewEncoder(w).Encode(map[string]string{"reply": "Steep it for four minutes."})
	}))
	defer srv.Close()

	logger, m := testDeps()
	client := NewHTTPClient(srv.URL, logger, m)

	reply := client.Generate(context.Background(), Request{
		Query: "how do I brew this?",
		Transcript: []models.Turn{
			{Role: "user", Text: "hi"},
			{Role: "assistant", Text: "hello"},
		},
	})
	assert.Equal(t, models.GenText, reply.Kind)
	assert.Equal(t, "Steep it for four minutes.", reply.Text)
}

func TestHTTPClient_Signals(t *testing.T) {
	tests := []struct {
		signal string
		want   models.GenKind
	}{
		{"ESCALATE", models.GenEscalate},
		{"ORDER_INFO", models.GenOrderInfo},
	}
	for _, tt := range tests {
		t.Run(tt.signal, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]string{"signal": tt.signal})
			}))
			defer srv.Close()

			logger, m := testDeps()
			client := NewHTTPClient(srv.URL, logger, m)

			reply := client.Generate(context.Background(), Request{Query: "anything"})
			assert.Equal(t, tt.want, reply.Kind)
		})
	}
}

func TestHTTPClient_EmptyReplyIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"reply": ""})
	}))
	defer srv.Close()

	logger, m := testDeps()
	client := NewHTTPClient(srv.URL, logger, m)

	reply := client.Generate(context.Background(), Request{Query: "anything"})
	assert.Equal(t, models.GenUnavailable, reply.Kind)
}

func TestHTTPClient_FailureMapsToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	logger, m := testDeps()
	client := NewHTTPClient(srv.URL, logger, m)

	reply := client.Generate(context.Background(), Request{Query: "anything"})
	assert.Equal(t, models.GenUnavailable, reply.Kind)

	// A dead endpoint behaves the same way.
	srv.Close()
	reply = client.Generate(context.Background(), Request{Query: "anything"})
	assert.Equal(t, models.GenUnavailable, reply.Kind)
}
