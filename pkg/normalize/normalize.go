package normalize

import (
	"encoding/json"

	"github.com/snippymart/whatsapp-bot/pkg/models"
)

// Reason names why a payload did not yield a routable event. Malformed and
// partial payloads are an expected condition on this endpoint, not an error.
type Reason string

const (
	ReasonOK            Reason = "ok"
	ReasonUnparseable   Reason = "unparseable"
	ReasonNoMessage     Reason = "no_message"
	ReasonMissingID     Reason = "missing_id"
	ReasonMissingSender Reason = "missing_sender"
)

// envelope mirrors the provider webhook shape loosely enough that any
// missing nesting level decodes to a zero value instead of failing.
type envelope struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Metadata struct {
					PhoneNumberID string `json:"phone_number_id"`
				} `json:"metadata"`
				Messages []struct {
					ID     string `json:"id"`
					From   string `json:"from"`
					FromMe bool   `json:"from_me"`
					Text   struct {
						Body string `json:"body"`
					} `json:"text"`
					Interactive struct {
						ListReply struct {
							ID string `json:"id"`
						} `json:"list_reply"`
						ButtonReply struct {
							ID string `json:"id"`
						} `json:"button_reply"`
					} `json:"interactive"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// Normalize extracts the first message of a raw provider payload. Echo
// messages (sent by the system itself) are returned with IsEcho set and
// ReasonOK so the caller can drop them without treating them as malformed.
// Status-only deliveries and shape mismatches come back as a non-OK reason,
// never a panic or an error.
func Normalize(raw []byte) (models.InboundEvent, Reason) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return models.InboundEvent{}, ReasonUnparseable
	}

	for _, entry := range env.Entry {
		for _, change := range entry.Changes {
			if len(change.Value.Messages) == 0 {
				continue
			}
			msg := change.Value.Messages[0]
			if msg.ID == "" {
				return models.InboundEvent{}, ReasonMissingID
			}
			if msg.From == "" {
				return models.InboundEvent{}, ReasonMissingSender
			}

			selected := msg.Interactive.ListReply.ID
			if selected == "" {
				selected = msg.Interactive.ButtonReply.ID
			}

			return models.InboundEvent{
				ID:               msg.ID,
				SenderID:         msg.From,
				Text:             msg.Text.Body,
				SelectedOptionID: selected,
				IsEcho:           msg.FromMe,
				SessionID:        change.Value.Metadata.PhoneNumberID,
			}, ReasonOK
		}
	}
	return models.InboundEvent{}, ReasonNoMessage
}
