package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketMessagePosted EventType = "ticket_message_posted"
	EventTicketStatusChanged EventType = "ticket_status_changed"
)

// Event represents a domain event emitted by services. Dispatch is
// synchronous and happens after the primary mutation commits.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	RequestTypeID   string `json:"request_type_id"`
	RequestTypeName string `json:"request_type_name"`
	RequesterID     string `json:"requester_id"`
}

// TicketMessagePostedPayload payload. Only public messages are published.
type TicketMessagePostedPayload struct {
	MessageID  string                   `json:"message_id"`
	AuthorID   string                   `json:"author_id"`
	Visibility domain.MessageVisibility `json:"visibility"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}
