package hours

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ClosedWindowID is returned when no open window contains the given time.
const ClosedWindowID = "closed"

// Window is a daily open interval in minutes of day. Start is inclusive,
// End is exclusive, so a message at exactly the opening minute is in-hours.
type Window struct {
	ID    string
	Start int
	End   int
}

// ParseWindows parses a comma-separated list like "09:00-13:00,15:00-19:00"
// into named windows ("slot1", "slot2", ...).
func ParseWindows(spec string) ([]Window, error) {
	parts := strings.Split(spec, ",")
	windows := make([]Window, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		bounds := strings.Split(part, "-")
		if len(bounds) != 2 {
			return nil, fmt.Errorf("invalid hours window %q: expected HH:MM-HH:MM", part)
		}
		start, err := parseMinuteOfDay(bounds[0])
		if err != nil {
			return nil, fmt.Errorf("invalid hours window %q: %w", part, err)
		}
		end, err := parseMinuteOfDay(bounds[1])
		if err != nil {
			return nil, fmt.Errorf("invalid hours window %q: %w", part, err)
		}
		if end <= start {
			return nil, fmt.Errorf("invalid hours window %q: end must be after start", part)
		}
		windows = append(windows, Window{
			ID:    fmt.Sprintf("slot%d", i+1),
			Start: start,
			End:   end,
		})
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("no hours windows configured")
	}
	return windows, nil
}

func parseMinuteOfDay(s string) (int, error) {
	fields := strings.Split(strings.TrimSpace(s), ":")
	if len(fields) != 2 {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(fields[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(fields[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// Decision is the gate's verdict for one inbound event.
type Decision int

const (
	// DecisionOpen lets the event proceed to the router.
	DecisionOpen Decision = iota
	// DecisionAutoReply means closed, and this sender gets the one-shot
	// offline auto-reply for the current closed period.
	DecisionAutoReply
	// DecisionSilentDrop means closed and already auto-replied to.
	DecisionSilentDrop
)

// Gate tracks business-hours state. The auto-replied set is cleared only
// when the window id transitions from closed into an open slot, giving one
// offline auto-reply per sender per closed period rather than per day.
type Gate struct {
	windows []Window

	mu           sync.Mutex
	lastWindowID string
	autoReplied  map[string]struct{}
}

func NewGate(windows []Window) *Gate {
	return &Gate{
		windows:     windows,
		autoReplied: make(map[string]struct{}),
	}
}

// WindowID returns the id of the open window containing now, or
// ClosedWindowID.
func (g *Gate) WindowID(now time.Time) string {
	minute := now.Hour()*60 + now.Minute()
	for _, w := range g.windows {
		if minute >= w.Start && minute < w.End {
			return w.ID
		}
	}
	return ClosedWindowID
}

// IsOpen reports whether now falls inside any open window.
func (g *Gate) IsOpen(now time.Time) bool {
	return g.WindowID(now) != ClosedWindowID
}

// Observe compares the current window id to the previously observed one and
// clears the auto-replied set on a closed-to-open transition. It is called
// both per-event and from a fixed polling timer independent of traffic.
func (g *Gate) Observe(now time.Time) (windowID string, transitionedOpen bool) {
	windowID = g.WindowID(now)

	g.mu.Lock()
	defer g.mu.Unlock()
	if windowID != g.lastWindowID {
		if g.lastWindowID == ClosedWindowID && windowID != ClosedWindowID {
			g.autoReplied = make(map[string]struct{})
			transitionedOpen = true
		}
		g.lastWindowID = windowID
	}
	return windowID, transitionedOpen
}

// Admit decides what happens to an inbound event from senderID at now.
// Marking the sender as auto-replied happens in the same critical section
// as the membership check, so duplicate bursts cannot double-reply.
func (g *Gate) Admit(senderID string, now time.Time) Decision {
	windowID, _ := g.Observe(now)
	if windowID != ClosedWindowID {
		return DecisionOpen
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, seen := g.autoReplied[senderID]; seen {
		return DecisionSilentDrop
	}
	g.autoReplied[senderID] = struct{}{}
	return DecisionAutoReply
}
