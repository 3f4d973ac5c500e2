package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// RequestTypesHandler manages request type administration and discovery.
type RequestTypesHandler struct {
	service *service.TaxonomyService
}

// NewRequestTypesHandler constructs handler.
func NewRequestTypesHandler(taxonomy *service.TaxonomyService) *RequestTypesHandler {
	return &RequestTypesHandler{service: taxonomy}
}

// List GET /request-types.
func (h *RequestTypesHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	types, err := h.service.ListVisible(c.Context(), principal.User)
	if err != nil {
		return err
	}
	items := make([]dto.RequestTypeResponse, 0, len(types))
	for i := range types {
		items = append(items, dto.NewRequestTypeResponse(&types[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /request-types/:id.
func (h *RequestTypesHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	reqType, err := h.service.GetRequestType(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestTypeResponse(reqType)})
}

// Create POST /admin/request-types.
func (h *RequestTypesHandler) Create(c *fiber.Ctx) error {
	var req dto.RequestTypePayload
	if err := parseBody(c, &req); err != nil {
		return err
	}
	reqType, err := h.service.CreateRequestType(c.Context(), taxonomyInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewRequestTypeResponse(reqType)})
}

// Update PUT /admin/request-types/:id.
func (h *RequestTypesHandler) Update(c *fiber.Ctx) error {
	var req dto.RequestTypePayload
	if err := parseBody(c, &req); err != nil {
		return err
	}
	reqType, err := h.service.UpdateRequestType(c.Context(), c.Params("id"), taxonomyInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRequestTypeResponse(reqType)})
}

func taxonomyInput(req dto.RequestTypePayload) service.RequestTypeInput {
	questions := make([]service.QuestionInput, 0, len(req.Questions))
	for _, q := range req.Questions {
		questions = append(questions, service.QuestionInput{
			Text:     q.Text,
			Kind:     domain.FieldKind(q.Kind),
			Required: q.Required,
			HelpText: q.HelpText,
			Order:    q.Order,
			Options:  q.Options,
		})
	}
	return service.RequestTypeInput{
		Name:           req.Name,
		Description:    req.Description,
		Active:         req.Active,
		AllowedSectors: req.AllowedSectors,
		Questions:      questions,
	}
}
