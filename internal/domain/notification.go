package domain

import "time"

// NotificationChannel distinguishes delivery attempts from in-app log rows.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelWeb   NotificationChannel = "web"
)

// Notification kinds written by the ticket workflow.
const (
	KindTicketCreated = "ticket_created"
	KindTicketReply   = "ticket_reply"
	KindTicketStatus  = "ticket_status"
	KindGeneric       = "generic"
)

// Notification is a fire-and-forget log row, one per dispatch attempt.
// Immutable after creation except for the sent/error tracking fields.
// Web-channel rows are log entries, not delivery attempts: they are created
// with Sent=true and removed when the recipient marks them read.
type Notification struct {
	ID       string
	Kind     string
	Channel  NotificationChannel
	ToEmail  string
	Subject  string
	BodyText string
	BodyHTML string
	Sent     bool
	Error    string
	SentAt   *time.Time
	// Soft cross-reference to the originating entity.
	RefApp   string
	RefModel string
	RefID    string

	CreatedAt time.Time
}

// OptOut suppresses delivery to an address, for one kind or globally when
// Kind is empty.
type OptOut struct {
	Email string
	Kind  string
}

// Suppresses reports whether this rule blocks a (email, kind) dispatch.
func (o OptOut) Suppresses(email, kind string) bool {
	return o.Email == email && (o.Kind == "" || o.Kind == kind)
}
