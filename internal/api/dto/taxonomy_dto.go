package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// QuestionPayload describes one form field of a request type.
type QuestionPayload struct {
	Text     string `json:"text" validate:"required"`
	Kind     string `json:"kind" validate:"required,oneof=text textarea int decimal date datetime bool choice multichoice file"`
	Required bool   `json:"required"`
	HelpText string `json:"help_text"`
	Order    int    `json:"order"`
	// Options is ";"-separated for choice kinds.
	Options string `json:"options"`
}

// RequestTypePayload payload for create/update.
type RequestTypePayload struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
	// AllowedSectors is ";"-separated; empty opens the type to everyone.
	AllowedSectors string            `json:"allowed_sectors"`
	Questions      []QuestionPayload `json:"questions" validate:"dive"`
}

// QuestionResponse response.
type QuestionResponse struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Kind     string   `json:"kind"`
	Required bool     `json:"required"`
	HelpText string   `json:"help_text,omitempty"`
	Order    int      `json:"order"`
	Options  []string `json:"options,omitempty"`
}

// RequestTypeResponse response.
type RequestTypeResponse struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	Active         bool               `json:"active"`
	AllowedSectors []string           `json:"allowed_sectors,omitempty"`
	Questions      []QuestionResponse `json:"questions"`
	CreatedAt      time.Time          `json:"created_at"`
}

// NewRequestTypeResponse maps a domain request type to its API shape.
func NewRequestTypeResponse(t *domain.RequestType) RequestTypeResponse {
	questions := make([]QuestionResponse, 0, len(t.Questions))
	for _, q := range t.ActiveQuestions() {
		questions = append(questions, QuestionResponse{
			ID:       q.ID,
			Text:     q.Text,
			Kind:     string(q.Kind),
			Required: q.Required,
			HelpText: q.HelpText,
			Order:    q.Order,
			Options:  q.Options,
		})
	}
	return RequestTypeResponse{
		ID:             t.ID,
		Name:           t.Name,
		Description:    t.Description,
		Active:         t.Active,
		AllowedSectors: t.AllowedSectors,
		Questions:      questions,
		CreatedAt:      t.CreatedAt,
	}
}
