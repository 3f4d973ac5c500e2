package domain

import "time"

// MessageVisibility partitions the conversation between public and internal rows.
type MessageVisibility string

const (
	VisibilityPublic   MessageVisibility = "publica"
	VisibilityInternal MessageVisibility = "interna"
)

// Message event kinds. Free-form by schema; these are the values the
// workflow writes.
const (
	EventKindMessage = "mensagem"
	EventKindStatus  = "status"
	EventKindUpdate  = "atualizacao"
	EventKindSystem  = "sistema"
)

// Message is one append-only entry in a ticket conversation. Messages are
// never edited or deleted.
type Message struct {
	ID            string
	TicketID      string
	AuthorID      string
	AuthorName    string
	Body          string
	AttachmentKey string
	Visibility    MessageVisibility
	EventKind     string
	CreatedAt     time.Time
}

// VisibleTo reports whether the actor may read this message. Internal rows
// are restricted to privileged actors.
func (m *Message) VisibleTo(u *User) bool {
	if m.Visibility == VisibilityPublic {
		return true
	}
	return u.Privileged()
}
