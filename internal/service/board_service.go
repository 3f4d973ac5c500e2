package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// BoardService manages cost centres, projects and the recurring task board.
type BoardService struct {
	board repository.BoardRepository
}

// NewBoardService constructs the service.
func NewBoardService(board repository.BoardRepository) *BoardService {
	return &BoardService{board: board}
}

// CostCenterInput describes a cost centre definition.
type CostCenterInput struct {
	Name          string
	Code          string
	Client        string
	ContactName   string
	ContactEmail  string
	ContactPhone  string
	ContractStart *time.Time
	ContractEnd   *time.Time
	BudgetTotal   *float64
	PlannedHours  *float64
}

// TaskInput describes a board task.
type TaskInput struct {
	ProjectID     string
	Name          string
	Guidance      string
	AuthorizedIDs []string
	PlannedStart  *time.Time
	PlannedEnd    *time.Time
	PlannedHours  *float64
	// RecurrenceDays are weekday keys (MON..SUN); unknown keys are ignored.
	RecurrenceDays []string
	PublishAt      *time.Time
	CloseEndOfDay  bool
}

// CreateCostCenter registers a centre and makes the creator its manager.
func (s *BoardService) CreateCostCenter(ctx context.Context, actor *domain.User, input CostCenterInput) (*domain.CostCenter, error) {
	if !actor.Privileged() && !actor.ManagerEquivalent() {
		return nil, apperrors.NewForbidden("somente gestores criam centros de custo")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("nome do centro de custo é obrigatório", nil)
	}
	if input.ContractStart != nil && input.ContractEnd != nil && input.ContractEnd.Before(*input.ContractStart) {
		return nil, apperrors.NewValidationError("contrato termina antes de começar", nil)
	}
	centre := &domain.CostCenter{
		Name:          name,
		Code:          strings.TrimSpace(input.Code),
		Client:        strings.TrimSpace(input.Client),
		Active:        true,
		ContactName:   input.ContactName,
		ContactEmail:  input.ContactEmail,
		ContactPhone:  input.ContactPhone,
		ContractStart: input.ContractStart,
		ContractEnd:   input.ContractEnd,
		BudgetTotal:   input.BudgetTotal,
		PlannedHours:  input.PlannedHours,
	}
	if err := s.board.CreateCostCenter(ctx, centre); err != nil {
		return nil, err
	}
	member := &domain.CostCenterMember{
		CostCenterID: centre.ID,
		UserID:       actor.ID,
		Role:         domain.CostCenterRoleManager,
		Active:       true,
	}
	if err := s.board.UpsertMember(ctx, member); err != nil {
		return nil, err
	}
	return centre, nil
}

// ListCostCenters returns active centres.
func (s *BoardService) ListCostCenters(ctx context.Context, actor *domain.User) ([]domain.CostCenter, error) {
	return s.board.ListCostCenters(ctx, !actor.Privileged())
}

// AddMember binds a user to a centre; only the centre's managers may do it.
func (s *BoardService) AddMember(ctx context.Context, actor *domain.User, costCenterID, userID string, role domain.CostCenterRole) error {
	if err := s.requireManager(ctx, actor, costCenterID); err != nil {
		return err
	}
	if role != domain.CostCenterRoleManager && role != domain.CostCenterRoleCollaborator {
		return apperrors.NewValidationError("papel desconhecido: "+string(role), nil)
	}
	return s.board.UpsertMember(ctx, &domain.CostCenterMember{
		CostCenterID: costCenterID,
		UserID:       userID,
		Role:         role,
		Active:       true,
	})
}

// CreateProject adds a project to a centre.
func (s *BoardService) CreateProject(ctx context.Context, actor *domain.User, costCenterID, name string) (*domain.Project, error) {
	if err := s.requireManager(ctx, actor, costCenterID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("nome do projeto é obrigatório", nil)
	}
	project := &domain.Project{CostCenterID: costCenterID, Name: name, Active: true}
	if err := s.board.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// CreateTask creates a recurring task inside a centre.
func (s *BoardService) CreateTask(ctx context.Context, actor *domain.User, costCenterID string, input TaskInput) (*domain.Task, error) {
	if err := s.requireManager(ctx, actor, costCenterID); err != nil {
		return nil, err
	}
	project, err := s.board.GetProject(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.CostCenterID != costCenterID {
		return nil, apperrors.NewValidationError("projeto não pertence ao centro de custo", nil)
	}

	task := &domain.Task{
		CostCenterID:   costCenterID,
		ProjectID:      project.ID,
		Name:           strings.TrimSpace(input.Name),
		Guidance:       strings.TrimSpace(input.Guidance),
		AuthorizedIDs:  input.AuthorizedIDs,
		PlannedStart:   input.PlannedStart,
		PlannedEnd:     input.PlannedEnd,
		PlannedHours:   input.PlannedHours,
		RecurrenceMask: domain.KeysToMask(input.RecurrenceDays),
		PublishAt:      input.PublishAt,
		CloseEndOfDay:  input.CloseEndOfDay,
		Status:         domain.TaskStatusOpen,
		CreatedByID:    actor.ID,
	}
	if task.Name == "" {
		return nil, apperrors.NewValidationError("nome da tarefa é obrigatório", nil)
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	if err := s.board.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// MoveTask changes a task's board column. Collaborators may only move tasks
// they are authorized on.
func (s *BoardService) MoveTask(ctx context.Context, actor *domain.User, taskID string, status domain.TaskStatus) (*domain.Task, error) {
	switch status {
	case domain.TaskStatusOpen, domain.TaskStatusDoing, domain.TaskStatusPaused,
		domain.TaskStatusReview, domain.TaskStatusDone:
	default:
		return nil, apperrors.NewValidationError("coluna desconhecida: "+string(status), nil)
	}
	task, err := s.board.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	member, err := s.membership(ctx, actor, task.CostCenterID)
	if err != nil {
		return nil, err
	}
	if member.Role != domain.CostCenterRoleManager && !authorizedOn(task, actor.ID) {
		return nil, apperrors.NewForbidden("tarefa não autorizada para o usuário")
	}
	task.Status = status
	if err := s.board.UpdateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// BoardFor returns the tasks visible to the actor on the given day: their
// centre's tasks whose recurrence mask includes the weekday, plus non-recurring
// tasks (mask zero) that are not yet done.
func (s *BoardService) BoardFor(ctx context.Context, actor *domain.User, costCenterID string, day time.Time) ([]domain.Task, error) {
	member, err := s.membership(ctx, actor, costCenterID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.board.ListTasks(ctx, costCenterID, nil)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if member.Role != domain.CostCenterRoleManager && !authorizedOn(&t, actor.ID) {
			continue
		}
		if t.PublishAt != nil && day.Before(*t.PublishAt) {
			continue
		}
		if t.RecurrenceMask == 0 {
			if t.Status != domain.TaskStatusDone {
				out = append(out, t)
			}
			continue
		}
		if t.VisibleOn(day.Weekday()) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *BoardService) requireManager(ctx context.Context, actor *domain.User, costCenterID string) error {
	if actor.IsSuperuser {
		return nil
	}
	member, err := s.membership(ctx, actor, costCenterID)
	if err != nil {
		return err
	}
	if member.Role != domain.CostCenterRoleManager {
		return apperrors.NewForbidden("ação restrita aos gestores do centro de custo")
	}
	return nil
}

func (s *BoardService) membership(ctx context.Context, actor *domain.User, costCenterID string) (*domain.CostCenterMember, error) {
	if actor.IsSuperuser {
		return &domain.CostCenterMember{
			CostCenterID: costCenterID,
			UserID:       actor.ID,
			Role:         domain.CostCenterRoleManager,
			Active:       true,
		}, nil
	}
	member, err := s.board.GetMember(ctx, costCenterID, actor.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewForbidden("usuário não pertence ao centro de custo")
		}
		return nil, err
	}
	if !member.Active {
		return nil, apperrors.NewForbidden("participação inativa no centro de custo")
	}
	return member, nil
}

func authorizedOn(task *domain.Task, userID string) bool {
	for _, id := range task.AuthorizedIDs {
		if id == userID {
			return true
		}
	}
	return false
}
