package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// AnswerPayload carries one raw answer for a question.
type AnswerPayload struct {
	QuestionID string   `json:"question_id" validate:"required"`
	Value      string   `json:"value"`
	Values     []string `json:"values"`
	FileKey    string   `json:"file_key"`
}

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	RequestTypeID    string          `json:"request_type_id" validate:"required"`
	Answers          []AnswerPayload `json:"answers" validate:"dive"`
	AttachmentKey    string          `json:"attachment_key"`
	IdempotencyToken string          `json:"idempotency_token"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Body          string `json:"body"`
	AttachmentKey string `json:"attachment_key"`
	Visibility    string `json:"visibility" validate:"omitempty,oneof=publica interna"`
}

// TicketActionRequest payload for workflow actions.
type TicketActionRequest struct {
	Action string `json:"action" validate:"required,oneof=assign save suspend cancel complete reopen"`
	Note   string `json:"note"`
	Reason string `json:"reason"`
}

// MarkSeenRequest payload for bulk ticket watermarks.
type MarkSeenRequest struct {
	TicketIDs []string `json:"ticket_ids" validate:"required,min=1"`
}

// TicketSummary response.
type TicketSummary struct {
	ID                string              `json:"id"`
	RequesterID       string              `json:"requester_id"`
	RequestTypeID     string              `json:"request_type_id"`
	Status            domain.TicketStatus `json:"status"`
	StatusLabel       string              `json:"status_label"`
	AssigneeID        *string             `json:"assignee_id,omitempty"`
	AssigneeName      string              `json:"assignee_name,omitempty"`
	SuspendedAt       *time.Time          `json:"suspended_at,omitempty"`
	SuspensionExpired bool                `json:"suspension_expired"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// AnswerResponse response.
type AnswerResponse struct {
	QuestionID string `json:"question_id"`
	Value      string `json:"value"`
	FileKey    string `json:"file_key,omitempty"`
}

// MessageResponse response.
type MessageResponse struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"author_id"`
	AuthorName    string    `json:"author_name"`
	Body          string    `json:"body"`
	AttachmentKey string    `json:"attachment_key,omitempty"`
	Visibility    string    `json:"visibility"`
	EventKind     string    `json:"event_kind"`
	CreatedAt     time.Time `json:"created_at"`
}

// TicketDetail response.
type TicketDetail struct {
	TicketSummary
	ResolutionNote string            `json:"resolution_note,omitempty"`
	AttachmentKey  string            `json:"attachment_key,omitempty"`
	Answers        []AnswerResponse  `json:"answers"`
	Messages       []MessageResponse `json:"messages"`
}
