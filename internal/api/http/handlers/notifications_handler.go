package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/notify"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// NotificationsHandler exposes the in-app notification log.
type NotificationsHandler struct {
	service *notify.Service
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifyService *notify.Service) *NotificationsHandler {
	return &NotificationsHandler{service: notifyService}
}

// List GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit := parseInt(c.Query("limit"), 50)
	items, err := h.service.ListMine(c.Context(), principal.User, limit)
	if err != nil {
		return err
	}
	out := make([]dto.NotificationResponse, 0, len(items))
	for i := range items {
		out = append(out, dto.NewNotificationResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Count GET /notifications/count.
func (h *NotificationsHandler) Count(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	count, err := h.service.UnreadCount(c.Context(), principal.User)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"count": count}})
}

// MarkRead DELETE /notifications/:id. Reading an entry removes it.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.MarkRead(c.Context(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// OptOut POST /notifications/opt-out.
func (h *NotificationsHandler) OptOut(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.OptOutRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.service.OptOut(c.Context(), principal.User.Email, req.Kind); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
