package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CostCenterPayload payload for creating cost centres.
type CostCenterPayload struct {
	Name          string   `json:"name" validate:"required"`
	Code          string   `json:"code"`
	Client        string   `json:"client"`
	ContactName   string   `json:"contact_name"`
	ContactEmail  string   `json:"contact_email" validate:"omitempty,email"`
	ContactPhone  string   `json:"contact_phone"`
	ContractStart string   `json:"contract_start" validate:"omitempty,datetime=2006-01-02"`
	ContractEnd   string   `json:"contract_end" validate:"omitempty,datetime=2006-01-02"`
	BudgetTotal   *float64 `json:"budget_total"`
	PlannedHours  *float64 `json:"planned_hours"`
}

// MemberPayload payload for cost centre membership.
type MemberPayload struct {
	UserID string `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"required,oneof=GESTOR COLAB"`
}

// ProjectPayload payload.
type ProjectPayload struct {
	Name string `json:"name" validate:"required"`
}

// TaskPayload payload for board tasks.
type TaskPayload struct {
	ProjectID     string   `json:"project_id" validate:"required"`
	Name          string   `json:"name" validate:"required"`
	Guidance      string   `json:"guidance"`
	AuthorizedIDs []string `json:"authorized_ids"`
	PlannedStart  string   `json:"planned_start" validate:"omitempty,datetime=2006-01-02"`
	PlannedEnd    string   `json:"planned_end" validate:"omitempty,datetime=2006-01-02"`
	PlannedHours  *float64 `json:"planned_hours"`
	// RecurrenceDays are weekday keys MON..SUN.
	RecurrenceDays []string `json:"recurrence_days" validate:"dive,oneof=MON TUE WED THU FRI SAT SUN"`
	PublishAt      string   `json:"publish_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	CloseEndOfDay  bool     `json:"close_end_of_day"`
}

// MoveTaskRequest payload.
type MoveTaskRequest struct {
	Status string `json:"status" validate:"required,oneof=OPEN DOING PAUSE REVIEW DONE"`
}

// TaskResponse response.
type TaskResponse struct {
	ID             string     `json:"id"`
	CostCenterID   string     `json:"cost_center_id"`
	ProjectID      string     `json:"project_id"`
	Name           string     `json:"name"`
	Guidance       string     `json:"guidance,omitempty"`
	AuthorizedIDs  []string   `json:"authorized_ids,omitempty"`
	PlannedStart   *time.Time `json:"planned_start,omitempty"`
	PlannedEnd     *time.Time `json:"planned_end,omitempty"`
	PlannedHours   *float64   `json:"planned_hours,omitempty"`
	RecurrenceDays []string   `json:"recurrence_days"`
	RecurrenceText []string   `json:"recurrence_labels"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewTaskResponse maps a domain task to its API shape.
func NewTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:             t.ID,
		CostCenterID:   t.CostCenterID,
		ProjectID:      t.ProjectID,
		Name:           t.Name,
		Guidance:       t.Guidance,
		AuthorizedIDs:  t.AuthorizedIDs,
		PlannedStart:   t.PlannedStart,
		PlannedEnd:     t.PlannedEnd,
		PlannedHours:   t.PlannedHours,
		RecurrenceDays: domain.MaskToKeys(t.RecurrenceMask),
		RecurrenceText: domain.MaskLabels(t.RecurrenceMask),
		Status:         string(t.Status),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}
