package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snippymart/whatsapp-bot/pkg/catalog"
	"github.com/snippymart/whatsapp-bot/pkg/hours"
	"github.com/snippymart/whatsapp-bot/pkg/metrics"
	"github.com/snippymart/whatsapp-bot/pkg/models"
	"github.com/snippymart/whatsapp-bot/pkg/outbound"
	"github.com/snippymart/whatsapp-bot/pkg/session"
)

const adminPhone = "999000111"

type fakeTransport struct {
	sent []outbound.Message
}

func (f *fakeTransport) Send(_ context.Context, msg outbound.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

type fakeCatalogClient struct {
	entries []models.CatalogEntry
	err     error
}

func (f *fakeCatalogClient) ListCatalog(ctx context.Context) ([]models.CatalogEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

func (f *fakeCatalogClient) GetEntryDetail(ctx context.Context, id string) (models.EntryDetail, error) {
	return models.EntryDetail{}, errors.New("not used")
}

type fixture struct {
	console   *Console
	sessions  *session.MemoryStore
	transport *fakeTransport
	catClient *fakeCatalogClient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	m := metrics.NewMetricsWith(prometheus.NewRegistry())

	windows, err := hours.ParseWindows("00:00-23:59")
	require.NoError(t, err)

	catClient := &fakeCatalogClient{entries: []models.CatalogEntry{{ID: "p1", Title: "Coffee"}}}
	cat := catalog.NewService(catClient, time.Hour, logger)
	_, err = cat.Reload(context.Background())
	require.NoError(t, err)

	transport := &fakeTransport{}
	sessions := session.NewMemoryStore(logger)
	console := NewConsole("/", sessions, cat, hours.NewGate(windows), outbound.NewDispatcher(transport, logger, m), logger, m)

	return &fixture{console: console, sessions: sessions, transport: transport, catClient: catClient}
}

func adminEvent(text string) models.InboundEvent {
	return models.InboundEvent{ID: "a1", SenderID: adminPhone, Text: text, SessionID: "sess-1"}
}

func (f *fixture) handle(t *testing.T, command string) bool {
	t.Helper()
	return f.console.Handle(context.Background(), adminEvent(command), command)
}

func TestConsole_BlockAndUnblock(t *testing.T) {
	f := newFixture(t)
	f.sessions.Update("947111", func(s *models.UserSession) {
		s.Mode = models.ModeBotActive
		s.Transcript = []models.Turn{{Role: "user", Text: "hi"}}
	})

	require.True(t, f.handle(t, "/block 947111"))
	sess, _ := f.sessions.Get("947111")
	assert.Equal(t, models.ModeBlocked, sess.Mode)
	assert.Empty(t, sess.Transcript, "blocking discards conversation state")

	require.True(t, f.handle(t, "/unblock 947111"))
	sess, _ = f.sessions.Get("947111")
	assert.Equal(t, models.ModeInactive, sess.Mode)
}

func TestConsole_BlockUnknownSenderCreatesBlockedSession(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.handle(t, "/block 947999"))
	sess, ok := f.sessions.Get("947999")
	require.True(t, ok)
	assert.Equal(t, models.ModeBlocked, sess.Mode)
}

func TestConsole_Status(t *testing.T) {
	f := newFixture(t)
	f.sessions.Update("947111", func(s *models.UserSession) {
		s.Mode = models.ModeHumanHandoff
	})

	require.True(t, f.handle(t, "/status 947111"))
	require.NotEmpty(t, f.transport.sent)
	assert.Contains(t, f.transport.sent[len(f.transport.sent)-1].Body, "mode=human_handoff")

	require.True(t, f.handle(t, "/status 000000"))
	assert.Contains(t, f.transport.sent[len(f.transport.sent)-1].Body, "No session")
}

func TestConsole_Stats(t *testing.T) {
	f := newFixture(t)
	f.sessions.Update("a", func(s *models.UserSession) { s.Mode = models.ModeBotActive })
	f.sessions.Update("b", func(s *models.UserSession) { s.Mode = models.ModeBlocked })

	require.True(t, f.handle(t, "/stats"))
	body := f.transport.sent[len(f.transport.sent)-1].Body
	assert.Contains(t, body, "Sessions: 2")
	assert.Contains(t, body, "bot_active: 1")
	assert.Contains(t, body, "Catalog: 1 entries")
	assert.Contains(t, body, "open=true")
}

func TestConsole_ResumeNotifiesUser(t *testing.T) {
	f := newFixture(t)
	f.sessions.Update("947111", func(s *models.UserSession) {
		s.Mode = models.ModeHumanHandoff
		s.HandoffAt = time.Now()
	})

	require.True(t, f.handle(t, "/resume 947111"))

	sess, _ := f.sessions.Get("947111")
	assert.Equal(t, models.ModeBotActive, sess.Mode)

	var toUser, toAdmin int
	for _, msg := range f.transport.sent {
		switch msg.Recipient {
		case "947111":
			toUser++
		case adminPhone:
			toAdmin++
		}
	}
	assert.Equal(t, 1, toUser, "resumed user is notified")
	assert.Equal(t, 1, toAdmin)
}

func TestConsole_ResumeWithoutHandoff(t *testing.T) {
	f := newFixture(t)
	f.sessions.Update("947111", func(s *models.UserSession) { s.Mode = models.ModeBotActive })

	require.True(t, f.handle(t, "/resume 947111"))
	sess, _ := f.sessions.Get("947111")
	assert.Equal(t, models.ModeBotActive, sess.Mode)
	assert.Contains(t, f.transport.sent[len(f.transport.sent)-1].Body, "not in human handoff")
}

func TestConsole_BroadcastReachesOnlyActive(t *testing.T) {
	f := newFixture(t)
	f.sessions.Update("active1", func(s *models.UserSession) { s.Mode = models.ModeBotActive })
	f.sessions.Update("active2", func(s *models.UserSession) { s.Mode = models.ModeBotActive })
	f.sessions.Update("idle", func(s *models.UserSession) { s.Mode = models.ModeInactive })
	f.sessions.Update("handoff", func(s *models.UserSession) { s.Mode = models.ModeHumanHandoff })

	require.True(t, f.handle(t, "/broadcast New arrivals this week!"))

	recipients := map[string]bool{}
	for _, msg := range f.transport.sent {
		if msg.Body == "New arrivals this week!" {
			recipients[msg.Recipient] = true
		}
	}
	assert.Len(t, recipients, 2)
	assert.True(t, recipients["active1"])
	assert.True(t, recipients["active2"])
}

func TestConsole_Reload(t *testing.T) {
	f := newFixture(t)
	f.catClient.entries = append(f.catClient.entries, models.CatalogEntry{ID: "p2", Title: "Tea"})

	require.True(t, f.handle(t, "/reload"))
	assert.Contains(t, f.transport.sent[len(f.transport.sent)-1].Body, "2 entries")

	f.catClient.err = errors.New("down")
	require.True(t, f.handle(t, "/reload"))
	assert.Contains(t, f.transport.sent[len(f.transport.sent)-1].Body, "reload failed")
}

func TestConsole_UnknownVerbNotHandled(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.handle(t, "/frobnicate"))
	assert.False(t, f.handle(t, "/"))
	assert.Empty(t, f.transport.sent, "unknown verbs produce no reply from the console")
}

func TestConsole_Help(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.handle(t, "/help"))
	body := f.transport.sent[0].Body
	for _, verb := range []string{"/block", "/unblock", "/status", "/stats", "/resume", "/broadcast", "/reload"} {
		assert.Contains(t, body, verb)
	}
}
