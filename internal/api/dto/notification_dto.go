package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// NotificationResponse response for in-app entries.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	RefID     string    `json:"ref_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewNotificationResponse maps a notification row to its API shape.
func NewNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Kind:      n.Kind,
		Subject:   n.Subject,
		Body:      n.BodyText,
		RefID:     n.RefID,
		CreatedAt: n.CreatedAt,
	}
}

// OptOutRequest payload. Empty kind suppresses every notification kind.
type OptOutRequest struct {
	Kind string `json:"kind" validate:"omitempty,oneof=ticket_created ticket_reply ticket_status"`
}
