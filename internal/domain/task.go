package domain

import (
	"time"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// Weekday recurrence mask: bit 0 = Monday … bit 6 = Sunday.
var weekdayBits = map[string]int{
	"MON": 1 << 0,
	"TUE": 1 << 1,
	"WED": 1 << 2,
	"THU": 1 << 3,
	"FRI": 1 << 4,
	"SAT": 1 << 5,
	"SUN": 1 << 6,
}

var weekdayOrder = []struct {
	Key   string
	Label string
}{
	{"MON", "Seg"}, {"TUE", "Ter"}, {"WED", "Qua"}, {"THU", "Qui"},
	{"FRI", "Sex"}, {"SAT", "Sáb"}, {"SUN", "Dom"},
}

// KeysToMask folds weekday keys into the recurrence bitmask. Unknown keys
// are ignored.
func KeysToMask(keys []string) int {
	mask := 0
	for _, k := range keys {
		mask |= weekdayBits[k]
	}
	return mask
}

// MaskToKeys expands a recurrence bitmask back into weekday keys in
// Monday-first order.
func MaskToKeys(mask int) []string {
	out := make([]string, 0, 7)
	for _, day := range weekdayOrder {
		if mask&weekdayBits[day.Key] != 0 {
			out = append(out, day.Key)
		}
	}
	return out
}

// MaskLabels returns the display labels for the set weekdays.
func MaskLabels(mask int) []string {
	out := make([]string, 0, 7)
	for _, day := range weekdayOrder {
		if mask&weekdayBits[day.Key] != 0 {
			out = append(out, day.Label)
		}
	}
	return out
}

// maskBitFor converts a time.Weekday (Sunday=0) to the Monday-first bit.
func maskBitFor(d time.Weekday) int {
	if d == time.Sunday {
		return 1 << 6
	}
	return 1 << (int(d) - 1)
}

// CostCenter represents a client cost centre owning projects and tasks.
type CostCenter struct {
	ID            string
	Name          string
	Code          string
	Client        string
	Active        bool
	ContactName   string
	ContactEmail  string
	ContactPhone  string
	ContractStart *time.Time
	ContractEnd   *time.Time
	BudgetTotal   *float64
	PlannedHours  *float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CostCenterRole enumerates membership roles inside a cost centre.
type CostCenterRole string

const (
	CostCenterRoleManager      CostCenterRole = "GESTOR"
	CostCenterRoleCollaborator CostCenterRole = "COLAB"
)

// CostCenterMember binds a user to a cost centre with a role.
type CostCenterMember struct {
	CostCenterID string
	UserID       string
	Role         CostCenterRole
	Active       bool
	CreatedAt    time.Time
}

// Project groups tasks inside a cost centre.
type Project struct {
	ID           string
	CostCenterID string
	Name         string
	Active       bool
}

// TaskStatus enumerates board states for recurring tasks.
type TaskStatus string

const (
	TaskStatusOpen   TaskStatus = "OPEN"
	TaskStatusDoing  TaskStatus = "DOING"
	TaskStatusPaused TaskStatus = "PAUSE"
	TaskStatusReview TaskStatus = "REVIEW"
	TaskStatusDone   TaskStatus = "DONE"
)

// Task is a recurring board task created by a cost-centre manager.
type Task struct {
	ID            string
	CostCenterID  string
	ProjectID     string
	Name          string
	Guidance      string
	AuthorizedIDs []string
	PlannedStart  *time.Time
	PlannedEnd    *time.Time
	PlannedHours  *float64
	// RecurrenceMask records the weekdays the task shows up on the board.
	RecurrenceMask int
	PublishAt      *time.Time
	CloseEndOfDay  bool
	Status         TaskStatus
	CreatedByID    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// VisibleOn reports whether the task recurs on the given weekday.
func (t *Task) VisibleOn(day time.Weekday) bool {
	return t.RecurrenceMask&maskBitFor(day) != 0
}

// Validate checks the task's internal consistency.
func (t *Task) Validate() error {
	if t.PlannedStart != nil && t.PlannedEnd != nil && t.PlannedEnd.Before(*t.PlannedStart) {
		return apperrors.NewValidationError("planned end cannot precede planned start", nil)
	}
	if t.RecurrenceMask < 0 || t.RecurrenceMask > 127 {
		return apperrors.NewValidationError("recurrence mask out of range", map[string]any{"mask": t.RecurrenceMask})
	}
	return nil
}
