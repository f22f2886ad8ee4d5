package events

import (
	"time"

	"github.com/google/uuid"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CONTENT_INGESTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// EventTypeContentIngested fires after a document or material lands in a
// workspace. Subscribers use it to invalidate cached search responses.
const EventTypeContentIngested = "CONTENT_INGESTED"

func ContentIngested(workspaceId uuid.UUID, kind string, contentId uuid.UUID) Event {
	return BaseEvent{
		Type: EventTypeContentIngested,
		Data: map[string]interface{}{
			"workspace_id": workspaceId.String(),
			"kind":         kind,
			"content_id":   contentId.String(),
		},
		OccurredAt: time.Now(),
	}
}
