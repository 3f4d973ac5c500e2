package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusSuspended  TicketStatus = "suspended"
	TicketStatusCompleted  TicketStatus = "completed"
	TicketStatusCancelled  TicketStatus = "cancelled"
)

// StatusLabel maps a status to its human-readable form used in notifications.
func StatusLabel(s TicketStatus) string {
	switch s {
	case TicketStatusOpen:
		return "Aberto"
	case TicketStatusInProgress:
		return "Em andamento"
	case TicketStatusSuspended:
		return "Suspenso"
	case TicketStatusCompleted:
		return "Concluído"
	case TicketStatusCancelled:
		return "Cancelado"
	}
	return string(s)
}

// TicketAction enumerates workflow actions applied to a ticket.
type TicketAction string

const (
	ActionAssign   TicketAction = "assign"
	ActionSaveNote TicketAction = "save"
	ActionSuspend  TicketAction = "suspend"
	ActionCancel   TicketAction = "cancel"
	ActionComplete TicketAction = "complete"
	ActionReopen   TicketAction = "reopen"
)

// Ticket is the aggregate for helpdesk requests. Answers are created
// atomically with the ticket and owned by it.
type Ticket struct {
	ID            string
	RequesterID   string
	RequestTypeID string
	Status        TicketStatus
	// ResolutionNote is the operator's treatment text ("tratativa").
	ResolutionNote string
	// AssigneeID is a weak reference to the operating user; AssigneeName is a
	// display snapshot taken at assignment time.
	AssigneeID    *string
	AssigneeName  string
	AttachmentKey string
	SuspendedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Answers []Answer
}

// Answer records one response to a RequestType question.
type Answer struct {
	ID         string
	TicketID   string
	QuestionID string
	Value      string
	FileKey    string
}

// Terminal reports whether the ticket reached a final state.
func (t *Ticket) Terminal() bool {
	return t.Status == TicketStatusCompleted || t.Status == TicketStatusCancelled
}

// AssignedTo reports whether the given user is the current assignee.
// Comparison is by identity, never by display name.
func (t *Ticket) AssignedTo(userID string) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// SuspensionExpired reports whether a suspended ticket sat past the expiry
// window. The automatic cancellation sweep is intentionally not wired; this
// flag only feeds read models.
func (t *Ticket) SuspensionExpired(now time.Time, window time.Duration) bool {
	if t.Status != TicketStatusSuspended || t.SuspendedAt == nil {
		return false
	}
	return !now.Before(t.SuspendedAt.Add(window))
}

// ReopenDeadline returns the moment the reopen window closes, or nil when the
// ticket was never suspended.
func (t *Ticket) ReopenDeadline(window time.Duration) *time.Time {
	if t.SuspendedAt == nil {
		return nil
	}
	d := t.SuspendedAt.Add(window)
	return &d
}

// Section returns the listing bucket the ticket belongs to.
func (t *Ticket) Section() Section {
	switch t.Status {
	case TicketStatusOpen:
		return SectionOpen
	case TicketStatusInProgress:
		return SectionInProgress
	case TicketStatusSuspended:
		return SectionSuspended
	case TicketStatusCompleted:
		return SectionCompleted
	default:
		return SectionCancelled
	}
}
