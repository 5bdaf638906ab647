package domain

import "time"

// EventType message lifecycle event name, also used as routing key
type EventType string

const (
	// EventMessageCreated a message was posted
	EventMessageCreated EventType = "message.created"
	// EventMessageUpdated a message was edited
	EventMessageUpdated EventType = "message.updated"
	// EventMessageDeleted a message was soft deleted
	EventMessageDeleted EventType = "message.deleted"
)

// MessageEvent published after a successful write
type MessageEvent struct {
	Type       EventType `json:"type"`
	Message    Message   `json:"message"`
	ActorID    string    `json:"actorId"`
	OccurredAt time.Time `json:"occurredAt"`
}
