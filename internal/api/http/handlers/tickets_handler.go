package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service          *service.TicketService
	suspensionWindow time.Duration
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, cfg config.TicketsConfig) *TicketsHandler {
	return &TicketsHandler{service: ticketService, suspensionWindow: cfg.SuspensionExpiry()}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	answers := make([]service.AnswerInput, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, service.AnswerInput{
			QuestionID: a.QuestionID,
			Value:      a.Value,
			Values:     a.Values,
			FileKey:    a.FileKey,
		})
	}
	ticket, err := h.service.CreateTicket(c.Context(), principal.User, service.TicketCreateInput{
		RequestTypeID:    req.RequestTypeID,
		Answers:          answers,
		AttachmentKey:    req.AttachmentKey,
		IdempotencyToken: req.IdempotencyToken,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": h.ticketSummary(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := parseTicketQuery(c)
	tickets, err := h.service.ListTickets(c.Context(), principal.User, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, h.ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SectionCounts GET /tickets/sections.
func (h *TicketsHandler) SectionCounts(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	counts, err := h.service.SectionCounts(c.Context(), principal.User)
	if err != nil {
		return err
	}
	out := fiber.Map{}
	for status, n := range counts {
		out[string(status)] = n
	}
	return c.JSON(fiber.Map{"data": out})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, msgs, err := h.service.GetTicket(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketDetail(ticket, msgs)})
}

// PostMessage POST /tickets/:id/messages.
func (h *TicketsHandler) PostMessage(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateMessageRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	msg, err := h.service.PostMessage(c.Context(), principal.User, c.Params("id"),
		req.Body, req.AttachmentKey, domain.MessageVisibility(req.Visibility))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": messageResponse(msg)})
}

// ApplyAction POST /tickets/:id/actions.
func (h *TicketsHandler) ApplyAction(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TicketActionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.ApplyAction(c.Context(), principal.User, c.Params("id"), service.ActionInput{
		Action: domain.TicketAction(req.Action),
		Note:   req.Note,
		Reason: req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.ticketSummary(ticket)})
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if typeStr := c.Query("request_type"); typeStr != "" {
		for _, part := range strings.Split(typeStr, ",") {
			filter.RequestTypeIDs = append(filter.RequestTypeIDs, strings.TrimSpace(part))
		}
	}
	if search := strings.TrimSpace(c.Query("q")); search != "" {
		filter.SearchTerm = &search
	}
	filter.CreatedFrom = parseTimestamp(c.Query("created_from"))
	filter.CreatedTo = parseTimestamp(c.Query("created_to"))

	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func (h *TicketsHandler) ticketSummary(t *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:                t.ID,
		RequesterID:       t.RequesterID,
		RequestTypeID:     t.RequestTypeID,
		Status:            t.Status,
		StatusLabel:       domain.StatusLabel(t.Status),
		AssigneeID:        t.AssigneeID,
		AssigneeName:      t.AssigneeName,
		SuspendedAt:       t.SuspendedAt,
		SuspensionExpired: t.SuspensionExpired(time.Now(), h.suspensionWindow),
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

func (h *TicketsHandler) ticketDetail(t *domain.Ticket, msgs []domain.Message) dto.TicketDetail {
	answers := make([]dto.AnswerResponse, 0, len(t.Answers))
	for _, a := range t.Answers {
		answers = append(answers, dto.AnswerResponse{
			QuestionID: a.QuestionID,
			Value:      a.Value,
			FileKey:    a.FileKey,
		})
	}
	messages := make([]dto.MessageResponse, 0, len(msgs))
	for i := range msgs {
		messages = append(messages, messageResponse(&msgs[i]))
	}
	return dto.TicketDetail{
		TicketSummary:  h.ticketSummary(t),
		ResolutionNote: t.ResolutionNote,
		AttachmentKey:  t.AttachmentKey,
		Answers:        answers,
		Messages:       messages,
	}
}

func messageResponse(m *domain.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:            m.ID,
		AuthorID:      m.AuthorID,
		AuthorName:    m.AuthorName,
		Body:          m.Body,
		AttachmentKey: m.AttachmentKey,
		Visibility:    string(m.Visibility),
		EventKind:     m.EventKind,
		CreatedAt:     m.CreatedAt,
	}
}
