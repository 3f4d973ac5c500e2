package domain

import "time"

// Section identifies a status bucket on the listing screens.
type Section string

const (
	SectionOpen       Section = "abertos"
	SectionInProgress Section = "andamento"
	SectionSuspended  Section = "suspensos"
	SectionCompleted  Section = "concluidos"
	SectionCancelled  Section = "cancelados"
)

// ValidSection reports whether s names a known bucket.
func ValidSection(s Section) bool {
	switch s {
	case SectionOpen, SectionInProgress, SectionSuspended, SectionCompleted, SectionCancelled:
		return true
	}
	return false
}

// SectionView is the per-user watermark for a status bucket. One row per
// (user, section), upserted on every visit.
type SectionView struct {
	UserID   string
	Section  Section
	LastSeen time.Time
}

// TicketView is the per-user watermark for one ticket's conversation.
type TicketView struct {
	UserID   string
	TicketID string
	LastSeen time.Time
}
