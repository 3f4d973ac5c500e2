package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// BoardHandler manages cost centres, projects and the task board.
type BoardHandler struct {
	service *service.BoardService
}

// NewBoardHandler constructs handler.
func NewBoardHandler(boardService *service.BoardService) *BoardHandler {
	return &BoardHandler{service: boardService}
}

// CreateCostCenter POST /cost-centers.
func (h *BoardHandler) CreateCostCenter(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CostCenterPayload
	if err := parseBody(c, &req); err != nil {
		return err
	}
	centre, err := h.service.CreateCostCenter(c.Context(), principal.User, service.CostCenterInput{
		Name:          req.Name,
		Code:          req.Code,
		Client:        req.Client,
		ContactName:   req.ContactName,
		ContactEmail:  req.ContactEmail,
		ContactPhone:  req.ContactPhone,
		ContractStart: parseDate(req.ContractStart),
		ContractEnd:   parseDate(req.ContractEnd),
		BudgetTotal:   req.BudgetTotal,
		PlannedHours:  req.PlannedHours,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": centre})
}

// ListCostCenters GET /cost-centers.
func (h *BoardHandler) ListCostCenters(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	centres, err := h.service.ListCostCenters(c.Context(), principal.User)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": centres})
}

// AddMember POST /cost-centers/:id/members.
func (h *BoardHandler) AddMember(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.MemberPayload
	if err := parseBody(c, &req); err != nil {
		return err
	}
	err := h.service.AddMember(c.Context(), principal.User, c.Params("id"), req.UserID, domain.CostCenterRole(req.Role))
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateProject POST /cost-centers/:id/projects.
func (h *BoardHandler) CreateProject(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ProjectPayload
	if err := parseBody(c, &req); err != nil {
		return err
	}
	project, err := h.service.CreateProject(c.Context(), principal.User, c.Params("id"), req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": project})
}

// CreateTask POST /cost-centers/:id/tasks.
func (h *BoardHandler) CreateTask(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TaskPayload
	if err := parseBody(c, &req); err != nil {
		return err
	}
	task, err := h.service.CreateTask(c.Context(), principal.User, c.Params("id"), service.TaskInput{
		ProjectID:      req.ProjectID,
		Name:           req.Name,
		Guidance:       req.Guidance,
		AuthorizedIDs:  req.AuthorizedIDs,
		PlannedStart:   parseDate(req.PlannedStart),
		PlannedEnd:     parseDate(req.PlannedEnd),
		PlannedHours:   req.PlannedHours,
		RecurrenceDays: req.RecurrenceDays,
		PublishAt:      parseTimestamp(req.PublishAt),
		CloseEndOfDay:  req.CloseEndOfDay,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}

// Board GET /cost-centers/:id/board?day=2006-01-02.
func (h *BoardHandler) Board(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	day := time.Now()
	if parsed := parseDate(c.Query("day")); parsed != nil {
		day = *parsed
	}
	tasks, err := h.service.BoardFor(c.Context(), principal.User, c.Params("id"), day)
	if err != nil {
		return err
	}
	items := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		items = append(items, dto.NewTaskResponse(&tasks[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// MoveTask POST /tasks/:id/move.
func (h *BoardHandler) MoveTask(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.MoveTaskRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	task, err := h.service.MoveTask(c.Context(), principal.User, c.Params("id"), domain.TaskStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTaskResponse(task)})
}
