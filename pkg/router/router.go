package router

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/snippymart/whatsapp-bot/pkg/catalog"
	"github.com/snippymart/whatsapp-bot/pkg/config"
	"github.com/snippymart/whatsapp-bot/pkg/dedup"
	"github.com/snippymart/whatsapp-bot/pkg/generate"
	"github.com/snippymart/whatsapp-bot/pkg/hours"
	"github.com/snippymart/whatsapp-bot/pkg/metrics"
	"github.com/snippymart/whatsapp-bot/pkg/models"
	"github.com/snippymart/whatsapp-bot/pkg/normalize"
	"github.com/snippymart/whatsapp-bot/pkg/outbound"
	"github.com/snippymart/whatsapp-bot/pkg/session"
)

// maxMenuRows caps an interactive list; the transport rejects longer ones.
const maxMenuRows = 10

// AdminConsole is the privileged command interpreter (pkg/admin). Handle
// returns false for unrecognized text, which the router drops silently so
// admin free text never reaches the generative path.
type AdminConsole interface {
	Handle(ctx context.Context, ev models.InboundEvent, command string) bool
}

// Router is the conversational state machine. Every dedup check-and-set and
// mode check-and-transition happens inside a store critical section before
// any collaborator call, so duplicate bursts cannot race each other into
// double replies.
type Router struct {
	cfg      *config.Config
	sessions session.Store
	dedup    dedup.Deduplicator
	gate     *hours.Gate
	catalog  *catalog.Service
	gen      generate.Client
	out      *outbound.Dispatcher
	console  AdminConsole
	logger   *logrus.Logger
	metrics  *metrics.Metrics

	// sleep paces flow steps, now feeds the hours gate; both swapped out
	// in tests.
	sleep func(time.Duration)
	now   func() time.Time
}

func New(cfg *config.Config, sessions session.Store, dd dedup.Deduplicator, gate *hours.Gate,
	cat *catalog.Service, gen generate.Client, out *outbound.Dispatcher, console AdminConsole,
	logger *logrus.Logger, m *metrics.Metrics) *Router {
	return &Router{
		cfg:      cfg,
		sessions: sessions,
		dedup:    dd,
		gate:     gate,
		catalog:  cat,
		gen:      gen,
		out:      out,
		console:  console,
		logger:   logger,
		metrics:  m,
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// HandleRaw runs one webhook delivery end to end: normalize, dedup, hours
// gate, then the transition table. It never returns an error; every failure
// mode either degrades to a fixed reply or drops the event with a counted
// reason. The caller has already acked the webhook.
func (r *Router) HandleRaw(ctx context.Context, payload []byte) {
	ev, reason := normalize.Normalize(payload)
	if reason != normalize.ReasonOK {
		r.metrics.EventsDropped.WithLabelValues(string(reason)).Inc()
		r.logger.WithField("reason", reason).Debug("Dropped unroutable payload")
		return
	}
	r.metrics.EventsReceived.Inc()

	if ev.IsEcho {
		// Our own outbound messages come back through the webhook; they are
		// never a conversation turn.
		r.metrics.EventsDropped.WithLabelValues(metrics.DropEcho).Inc()
		return
	}

	if !r.dedup.ShouldProcess(ctx, ev.ID) {
		r.metrics.DuplicateEvents.Inc()
		r.metrics.EventsDropped.WithLabelValues(metrics.DropDuplicate).Inc()
		r.logger.WithFields(logrus.Fields{
			"event_id":  ev.ID,
			"sender_id": ev.SenderID,
		}).Debug("Suppressed duplicate delivery")
		return
	}

	r.HandleEvent(ctx, ev)
}

// HandleEvent routes a normalized, de-duplicated event.
func (r *Router) HandleEvent(ctx context.Context, ev models.InboundEvent) {
	text := strings.ToLower(strings.TrimSpace(ev.Text))

	// Admin traffic never enters the conversational state machine, and
	// admins bypass the hours gate so commands work after hours.
	if r.cfg.IsAdmin(ev.SenderID) {
		if strings.HasPrefix(strings.TrimSpace(ev.Text), r.cfg.CommandPrefix) {
			r.console.Handle(ctx, ev, strings.TrimSpace(ev.Text))
			return
		}
		// An admin chatting manually must not trigger bot replies.
		r.metrics.EventsDropped.WithLabelValues(metrics.DropAdminChat).Inc()
		return
	}

	sess, ok := r.sessions.Get(ev.SenderID)
	if !ok {
		// First contact: a sender with no stored session is inactive.
		sess.Mode = models.ModeInactive
	}

	// Blocked senders produce no outbound traffic at all, not even the
	// closed-hours auto-reply, so the check precedes the gate.
	if sess.Mode == models.ModeBlocked {
		r.metrics.EventsDropped.WithLabelValues(metrics.DropBlocked).Inc()
		return
	}

	switch r.gate.Admit(ev.SenderID, r.now()) {
	case hours.DecisionAutoReply:
		r.out.SendText(ctx, ev.SessionID, ev.SenderID, msgClosed)
		return
	case hours.DecisionSilentDrop:
		r.metrics.EventsDropped.WithLabelValues(metrics.DropClosedHours).Inc()
		return
	}

	if sess.Mode == models.ModeHumanHandoff {
		// Keep the escalation warm; a human is expected to answer.
		r.sessions.Update(ev.SenderID, func(s *models.UserSession) {
			s.HandoffAt = time.Now()
			s.LastActivity = time.Now()
		})
		r.metrics.EventsDropped.WithLabelValues(metrics.DropHandoff).Inc()
		return
	}

	// Interactive selections act regardless of mode: the user tapped a
	// button we sent them. Rows of a previously shown menu carry catalog
	// entry ids, so unrecognized tokens are resolved against the catalog
	// before free-text handling gets a chance to misread an empty body.
	if ev.SelectedOptionID != "" {
		switch ev.SelectedOptionID {
		case optionMenu:
			r.sendMenu(ctx, ev)
			return
		case optionHuman:
			r.escalate(ctx, ev)
			return
		default:
			if entry, ok := r.resolveOption(ctx, ev.SelectedOptionID); ok {
				r.playFlow(ctx, ev, entry)
				return
			}
		}
	}

	if containsWord(activationKeywords, text) {
		r.activate(ctx, ev)
		return
	}

	if containsWord(deactivationKeywords, text) {
		r.deactivate(ctx, ev)
		return
	}

	if containsWord(escalationKeywords, text) {
		r.escalate(ctx, ev)
		return
	}

	if sess.Mode == models.ModeInactive {
		// Never auto-engage a sender who has not opted in.
		r.metrics.EventsDropped.WithLabelValues(metrics.DropInactive).Inc()
		return
	}

	r.sessions.Update(ev.SenderID, func(s *models.UserSession) {
		s.LastActivity = time.Now()
	})

	if containsWord(menuKeywords, text) {
		r.sendMenu(ctx, ev)
		return
	}

	if entry, ok := r.resolveNumbered(sess, text); ok {
		r.playFlow(ctx, ev, entry)
		return
	}

	if entry, ok := r.resolveKeyword(ctx, text); ok {
		r.playFlow(ctx, ev, entry)
		return
	}

	r.generateReply(ctx, ev, sess)
}

func (r *Router) activate(ctx context.Context, ev models.InboundEvent) {
	r.sessions.Update(ev.SenderID, func(s *models.UserSession) {
		s.Mode = models.ModeBotActive
		s.HandoffAt = time.Time{}
		s.LastActivity = time.Now()
	})
	r.logger.WithField("sender_id", ev.SenderID).Info("Session activated")
	r.out.SendInteractive(ctx, ev.SessionID, ev.SenderID, msgWelcome, []outbound.Option{
		{ID: optionMenu, Title: "See the menu"},
		{ID: optionHuman, Title: "Talk to a human"},
	})
}

func (r *Router) deactivate(ctx context.Context, ev models.InboundEvent) {
	r.sessions.Update(ev.SenderID, func(s *models.UserSession) {
		s.Mode = models.ModeInactive
		s.Transcript = nil
		s.LastCatalog = nil
		s.LastActivity = time.Now()
	})
	r.logger.WithField("sender_id", ev.SenderID).Info("Session deactivated")
	r.out.SendText(ctx, ev.SessionID, ev.SenderID, msgDeactivated)
}

func (r *Router) escalate(ctx context.Context, ev models.InboundEvent) {
	r.sessions.Update(ev.SenderID, func(s *models.UserSession) {
		s.Mode = models.ModeHumanHandoff
		s.HandoffAt = time.Now()
		s.LastActivity = time.Now()
	})
	r.metrics.Escalations.Inc()
	r.logger.WithField("sender_id", ev.SenderID).Info("Escalated to human handoff")
	r.out.SendText(ctx, ev.SessionID, ev.SenderID, msgConnecting)

	if len(r.cfg.AdminPhones) > 0 {
		r.out.SendText(ctx, ev.SessionID, r.cfg.AdminPhones[0],
			"Customer "+ev.SenderID+" asked for a human. Reply to them directly, then use "+
				r.cfg.CommandPrefix+"resume "+ev.SenderID+" when done.")
	}
}

func (r *Router) sendMenu(ctx context.Context, ev models.InboundEvent) {
	entries := r.catalog.Entries(ctx)
	if len(entries) == 0 {
		r.out.SendText(ctx, ev.SessionID, ev.SenderID, msgCatalogUnavailable)
		return
	}
	if len(entries) > maxMenuRows {
		entries = entries[:maxMenuRows]
	}

	r.sessions.Update(ev.SenderID, func(s *models.UserSession) {
		s.LastCatalog = append([]models.CatalogEntry(nil), entries...)
		s.LastActivity = time.Now()
	})

	var b strings.Builder
	b.WriteString(msgMenuHeader)
	options := make([]outbound.Option, 0, len(entries))
	for i, entry := range entries {
		b.WriteString("\n")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(entry.Title)
		options = append(options, outbound.Option{ID: entry.ID, Title: entry.Title})
	}
	r.out.SendInteractive(ctx, ev.SessionID, ev.SenderID, b.String(), options)
}

// resolveNumbered treats a bare positive integer as a 1-based index into
// the sender's last shown menu. Out of range falls through to keyword and
// generative handling rather than erroring.
func (r *Router) resolveNumbered(sess models.UserSession, text string) (models.CatalogEntry, bool) {
	n, err := strconv.Atoi(text)
	if err != nil || n <= 0 {
		return models.CatalogEntry{}, false
	}
	if n > len(sess.LastCatalog) {
		return models.CatalogEntry{}, false
	}
	return sess.LastCatalog[n-1], true
}

// resolveOption matches an interactive option token against catalog entry
// ids. Tokens from menus rendered before a catalog reload may no longer
// resolve; those fall through to free-text handling.
func (r *Router) resolveOption(ctx context.Context, id string) (models.CatalogEntry, bool) {
	for _, entry := range r.catalog.Entries(ctx) {
		if strings.EqualFold(entry.ID, id) {
			return entry, true
		}
	}
	return models.CatalogEntry{}, false
}

// resolveKeyword matches free text against the catalog: exact id equality
// first, then case-insensitive title substring, then trigger keywords.
// First match wins; there is no ranking.
func (r *Router) resolveKeyword(ctx context.Context, text string) (models.CatalogEntry, bool) {
	if text == "" {
		return models.CatalogEntry{}, false
	}
	entries := r.catalog.Entries(ctx)

	for _, entry := range entries {
		if strings.EqualFold(entry.ID, text) {
			return entry, true
		}
	}
	for _, entry := range entries {
		if strings.Contains(strings.ToLower(entry.Title), text) {
			return entry, true
		}
	}
	for _, entry := range entries {
		for _, kw := range entry.TriggerKeywords {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				return entry, true
			}
		}
	}
	return models.CatalogEntry{}, false
}

// playFlow delivers a catalog entry's step-by-step presentation in order,
// pacing steps by their declared delay, then closes with the order link or
// the ask-or-exit prompt. Steps are strictly sequential per user; delivery
// order matters to the reader.
func (r *Router) playFlow(ctx context.Context, ev models.InboundEvent, entry models.CatalogEntry) {
	detail, err := r.catalog.Detail(ctx, entry.ID)
	if err != nil {
		r.logger.WithError(err).WithField("entry_id", entry.ID).Warn("Flow fetch failed")
		r.out.SendText(ctx, ev.SessionID, ev.SenderID, msgCatalogUnavailable)
		return
	}

	for _, step := range detail.Steps {
		body := step.Body
		if step.Title != "" {
			body = "*" + step.Title + "*\n" + step.Body
		}
		r.out.SendText(ctx, ev.SessionID, ev.SenderID, body)
		if step.DelayMS > 0 {
			r.sleep(time.Duration(step.DelayMS) * time.Millisecond)
		}
	}

	if detail.OrderURL != "" {
		r.out.SendText(ctx, ev.SessionID, ev.SenderID, msgOrderLinkPrefix+detail.OrderURL)
	} else {
		r.out.SendText(ctx, ev.SessionID, ev.SenderID, msgAskOrExit)
	}
}

// generateReply forwards free text to the generative collaborator with the
// transcript as context. Whatever the outcome, the exchange lands in the
// transcript.
func (r *Router) generateReply(ctx context.Context, ev models.InboundEvent, sess models.UserSession) {
	reply := r.gen.Generate(ctx, generate.Request{
		Query:      ev.Text,
		Transcript: sess.Transcript,
	})

	var responseText string
	switch reply.Kind {
	case models.GenEscalate:
		responseText = msgConnecting
	case models.GenOrderInfo:
		responseText = msgOrderInfo
	case models.GenText:
		responseText = reply.Text
	default:
		responseText = msgGenFallback
	}

	r.sessions.Update(ev.SenderID, func(s *models.UserSession) {
		now := time.Now()
		s.AppendTurn("user", ev.Text, r.cfg.TranscriptMaxTurns, now)
		s.AppendTurn("assistant", responseText, r.cfg.TranscriptMaxTurns, now)
		s.LastActivity = now
	})

	if reply.Kind == models.GenEscalate {
		r.escalate(ctx, ev)
		return
	}
	r.out.SendText(ctx, ev.SessionID, ev.SenderID, responseText)
}

func containsWord(words []string, text string) bool {
	for _, w := range words {
		if w == text {
			return true
		}
	}
	return false
}
