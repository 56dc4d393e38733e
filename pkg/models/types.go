package models

import "time"

// UserMode is the conversational state of a single sender.
type UserMode string

const (
	ModeInactive     UserMode = "inactive"
	ModeBotActive    UserMode = "bot_active"
	ModeHumanHandoff UserMode = "human_handoff"
	ModeBlocked      UserMode = "blocked"
)

// InboundEvent is the normalized form of one provider webhook message.
type InboundEvent struct {
	ID               string `json:"id"`
	SenderID         string `json:"sender_id"`
	Text             string `json:"text,omitempty"`
	SelectedOptionID string `json:"selected_option_id,omitempty"`
	IsEcho           bool   `json:"is_echo,omitempty"`
	SessionID        string `json:"session_id"`
}

// Turn is one entry of a session transcript.
type Turn struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

// UserSession holds all per-sender state. Timestamps expire independently:
// TranscriptAt bounds transcript staleness, HandoffAt keeps an escalation
// warm, LastActivity bounds the session as a whole.
type UserSession struct {
	SenderID     string         `json:"sender_id"`
	Mode         UserMode       `json:"mode"`
	LastCatalog  []CatalogEntry `json:"last_catalog,omitempty"`
	Transcript   []Turn         `json:"transcript,omitempty"`
	LastActivity time.Time      `json:"last_activity"`
	TranscriptAt time.Time      `json:"transcript_at"`
	HandoffAt    time.Time      `json:"handoff_at"`
}

// AppendTurn adds a transcript turn, dropping the oldest beyond maxTurns.
func (s *UserSession) AppendTurn(role, text string, maxTurns int, now time.Time) {
	s.Transcript = append(s.Transcript, Turn{Role: role, Text: text})
	if len(s.Transcript) > maxTurns {
		s.Transcript = s.Transcript[len(s.Transcript)-maxTurns:]
	}
	s.TranscriptAt = now
}

// CatalogEntry is one product listed by the content service.
type CatalogEntry struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	TriggerKeywords []string `json:"trigger_keywords,omitempty"`
}

// FlowStep is one message block of a product presentation flow.
type FlowStep struct {
	Title   string `json:"title,omitempty"`
	Body    string `json:"body"`
	DelayMS int64  `json:"delay_ms,omitempty"`
}

// EntryDetail is the playable flow of a catalog entry.
type EntryDetail struct {
	Steps    []FlowStep `json:"steps"`
	OrderURL string     `json:"order_url,omitempty"`
}

// GenKind discriminates the generative collaborator's reply variants.
type GenKind int

const (
	GenUnavailable GenKind = iota
	GenText
	GenEscalate
	GenOrderInfo
)

// GenReply is the tagged result of a generation call. Text is only
// meaningful when Kind is GenText.
type GenReply struct {
	Kind GenKind
	Text string
}
