package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// SeenHandler exposes the unread-badge watermarks.
type SeenHandler struct {
	service *service.SeenService
}

// NewSeenHandler constructs handler.
func NewSeenHandler(seenService *service.SeenService) *SeenHandler {
	return &SeenHandler{service: seenService}
}

// MarkSection POST /seen/sections/:section.
func (h *SeenHandler) MarkSection(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	section := domain.Section(c.Params("section"))
	if err := h.service.MarkSectionSeen(c.Context(), principal.User, section); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkTickets POST /seen/tickets.
func (h *SeenHandler) MarkTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.MarkSeenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.service.MarkTicketsSeen(c.Context(), principal.User, req.TicketIDs); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UnreadSections GET /seen/sections.
func (h *SeenHandler) UnreadSections(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	counts, err := h.service.UnreadSections(c.Context(), principal.User)
	if err != nil {
		return err
	}
	out := fiber.Map{}
	for section, n := range counts {
		out[string(section)] = n
	}
	return c.JSON(fiber.Map{"data": out})
}

// NewMessages GET /seen/tickets/new-messages?ids=a,b,c.
func (h *SeenHandler) NewMessages(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ids := splitQueryList(c.Query("ids"))
	flags, err := h.service.NewMessageFlags(c.Context(), principal.User, ids)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": flags})
}
