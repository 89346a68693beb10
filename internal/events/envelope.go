package events

import "time"

// Meta carries the message metadata every published event shares.
type Meta struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Source        string    `json:"source"`
	Time          time.Time `json:"time"`
}

// Envelope is the wire shape of a published event.
type Envelope struct {
	Meta    Meta `json:"meta"`
	Payload any  `json:"payload"`
}

// SchedulePayload is the payload of schedule change events.
type SchedulePayload struct {
	MeetingID      string   `json:"meeting_id"`
	ConversationID string   `json:"conversation_id"`
	OwnerIDs       []string `json:"owner_ids"`
}
