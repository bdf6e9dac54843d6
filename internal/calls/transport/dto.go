package transport

import (
	"encoding/json"
	"strings"
)

// CallCompletedEvent is the body the voice platform posts when a conversation ends.
type CallCompletedEvent struct {
	ConversationID string       `json:"conversation_id"`
	Summary        string       `json:"summary"`
	Transcript     string       `json:"transcript"`
	RecordingURL   string       `json:"recording_url"`
	ContactID      FlexibleID   `json:"contact_id"`
	PropertyID     FlexibleID   `json:"property_id"`
	EventTimestamp FlexibleTime `json:"event_timestamp"`
}

// PeekConversationID extracts conversation_id from a raw body without validating anything else.
// Returns "" when the body is not a JSON object or the field is absent.
func PeekConversationID(body []byte) string {
	var peek struct {
		ConversationID json.RawMessage `json:"conversation_id"`
	}
	if err := json.Unmarshal(body, &peek); err != nil || len(peek.ConversationID) == 0 {
		return ""
	}
	var id string
	if err := json.Unmarshal(peek.ConversationID, &id); err != nil {
		return ""
	}
	return strings.TrimSpace(id)
}

type AcceptedResponse struct {
	Status string `json:"status"`
}

type DynamicVariablesRequest struct {
	ConversationID string     `json:"conversation_id" validate:"omitempty,max=128,conversation_id"`
	ContactID      FlexibleID `json:"contact_id" validate:"gte=0"`
	PropertyID     FlexibleID `json:"property_id" validate:"gte=0"`
}

type DynamicVariablesResponse struct {
	ClientData map[string]string `json:"client_data"`
}

type OutboundCallRequest struct {
	ContactID  FlexibleID `json:"contact_id" validate:"required,gt=0"`
	PropertyID FlexibleID `json:"property_id" validate:"required,gt=0"`
	Phone      string     `json:"phone" validate:"omitempty,max=32,dialable"`
}

type OutboundCallResponse struct {
	ConversationID string `json:"conversation_id"`
	ToNumber       string `json:"to_number"`
}
