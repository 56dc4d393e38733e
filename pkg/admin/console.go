package admin

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/snippymart/whatsapp-bot/pkg/catalog"
	"github.com/snippymart/whatsapp-bot/pkg/hours"
	"github.com/snippymart/whatsapp-bot/pkg/metrics"
	"github.com/snippymart/whatsapp-bot/pkg/models"
	"github.com/snippymart/whatsapp-bot/pkg/outbound"
	"github.com/snippymart/whatsapp-bot/pkg/session"
)

// Console interprets privileged text commands over the same state store the
// router uses. It only ever replies to the admin who issued the command
// (plus the targeted user for resume and broadcast recipients).
type Console struct {
	prefix   string
	sessions session.Store
	catalog  *catalog.Service
	gate     *hours.Gate
	out      *outbound.Dispatcher
	logger   *logrus.Logger
	metrics  *metrics.Metrics
}

func NewConsole(prefix string, sessions session.Store, cat *catalog.Service, gate *hours.Gate,
	out *outbound.Dispatcher, logger *logrus.Logger, m *metrics.Metrics) *Console {
	return &Console{
		prefix:   prefix,
		sessions: sessions,
		catalog:  cat,
		gate:     gate,
		out:      out,
		logger:   logger,
		metrics:  m,
	}
}

// Handle parses and executes one admin command. It returns false when the
// verb is unrecognized; the caller decides what to do with such text (the
// router drops it so it never reaches the generative path).
func (c *Console) Handle(ctx context.Context, ev models.InboundEvent, command string) bool {
	body := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(command), c.prefix))
	if body == "" {
		return false
	}
	verb := body
	arg := ""
	if i := strings.IndexByte(body, ' '); i >= 0 {
		verb, arg = body[:i], strings.TrimSpace(body[i+1:])
	}
	verb = strings.ToLower(verb)

	reply := func(text string) {
		c.out.SendText(ctx, ev.SessionID, ev.SenderID, text)
	}

	switch verb {
	case "block":
		if arg == "" {
			reply("Usage: " + c.prefix + "block <phone>")
			break
		}
		c.sessions.Update(arg, func(s *models.UserSession) {
			s.Mode = models.ModeBlocked
			s.Transcript = nil
			s.LastCatalog = nil
		})
		c.logger.WithFields(logrus.Fields{"admin": ev.SenderID, "target": arg}).Info("Blocked sender")
		reply("Blocked " + arg + ".")

	case "unblock":
		if arg == "" {
			reply("Usage: " + c.prefix + "unblock <phone>")
			break
		}
		c.sessions.Update(arg, func(s *models.UserSession) {
			if s.Mode == models.ModeBlocked {
				s.Mode = models.ModeInactive
			}
		})
		c.logger.WithFields(logrus.Fields{"admin": ev.SenderID, "target": arg}).Info("Unblocked sender")
		reply("Unblocked " + arg + ".")

	case "status":
		if arg == "" {
			reply("Usage: " + c.prefix + "status <phone>")
			break
		}
		s, ok := c.sessions.Get(arg)
		if !ok {
			reply("No session for " + arg + ".")
			break
		}
		reply(fmt.Sprintf("%s: mode=%s, transcript=%d turns, menu shown=%d entries, last activity %s",
			arg, s.Mode, len(s.Transcript), len(s.LastCatalog), s.LastActivity.Format(time.RFC3339)))

	case "stats":
		counts := c.sessions.ModeCounts()
		modes := make([]string, 0, len(counts))
		for mode := range counts {
			modes = append(modes, string(mode))
		}
		sort.Strings(modes)
		var b strings.Builder
		b.WriteString(fmt.Sprintf("Sessions: %d", c.sessions.Len()))
		for _, mode := range modes {
			b.WriteString(fmt.Sprintf("\n  %s: %d", mode, counts[models.UserMode(mode)]))
		}
		b.WriteString(fmt.Sprintf("\nCatalog: %d entries", c.catalog.Size()))
		now := time.Now()
		b.WriteString(fmt.Sprintf("\nHours: open=%t window=%s", c.gate.IsOpen(now), c.gate.WindowID(now)))
		reply(b.String())

	case "resume":
		if arg == "" {
			reply("Usage: " + c.prefix + "resume <phone>")
			break
		}
		resumed := false
		c.sessions.Update(arg, func(s *models.UserSession) {
			if s.Mode == models.ModeHumanHandoff {
				s.Mode = models.ModeBotActive
				s.HandoffAt = time.Time{}
				resumed = true
			}
		})
		if !resumed {
			reply(arg + " is not in human handoff.")
			break
		}
		c.logger.WithFields(logrus.Fields{"admin": ev.SenderID, "target": arg}).Info("Resumed bot for sender")
		c.out.SendText(ctx, ev.SessionID, arg,
			"You're back with Snippy, our automated assistant. Send MENU to browse or HUMAN to reach the team again.")
		reply("Resumed bot for " + arg + ".")

	case "broadcast":
		if arg == "" {
			reply("Usage: " + c.prefix + "broadcast <message>")
			break
		}
		sent := 0
		c.sessions.ForEach(func(s models.UserSession) {
			if s.Mode != models.ModeBotActive {
				return
			}
			if c.out.SendText(ctx, ev.SessionID, s.SenderID, arg) {
				sent++
			}
		})
		c.logger.WithFields(logrus.Fields{"admin": ev.SenderID, "recipients": sent}).Info("Broadcast sent")
		reply(fmt.Sprintf("Broadcast delivered to %d active users.", sent))

	case "reload":
		size, err := c.catalog.Reload(ctx)
		if err != nil {
			reply("Catalog reload failed: content service unavailable.")
			break
		}
		reply(fmt.Sprintf("Catalog reloaded: %d entries.", size))

	case "help", "commands":
		reply("Commands: " + c.prefix + "block <phone>, " + c.prefix + "unblock <phone>, " +
			c.prefix + "status <phone>, " + c.prefix + "stats, " + c.prefix + "resume <phone>, " +
			c.prefix + "broadcast <message>, " + c.prefix + "reload, " + c.prefix + "help")

	default:
		return false
	}

	c.metrics.AdminCommands.WithLabelValues(verb).Inc()
	return true
}
