package domain

import (
	"strings"
	"time"
)

// FieldKind enumerates question input kinds.
type FieldKind string

const (
	FieldShortText   FieldKind = "text"
	FieldLongText    FieldKind = "textarea"
	FieldInteger     FieldKind = "int"
	FieldDecimal     FieldKind = "decimal"
	FieldDate        FieldKind = "date"
	FieldDateTime    FieldKind = "datetime"
	FieldBoolean     FieldKind = "bool"
	FieldChoice      FieldKind = "choice"
	FieldMultiChoice FieldKind = "multichoice"
	FieldFile        FieldKind = "file"
)

// RequestType is a configurable request category with its ordered questions.
type RequestType struct {
	ID          string
	Name        string
	Description string
	Active      bool
	// Sector names allowed to open this type; empty means visible to all.
	AllowedSectors []string
	Questions      []Question
	CreatedAt      time.Time
}

// Question is a typed form field attached to a RequestType.
type Question struct {
	ID            string
	RequestTypeID string
	Text          string
	Kind          FieldKind
	Required      bool
	HelpText      string
	Order         int
	Options       []string
	Active        bool
}

// VisibleTo reports whether the given user may open tickets of this type.
func (t *RequestType) VisibleTo(u *User) bool {
	if !t.Active {
		return false
	}
	if len(t.AllowedSectors) == 0 {
		return true
	}
	sector := strings.ToLower(strings.TrimSpace(u.Sector))
	for _, s := range t.AllowedSectors {
		if sector == strings.ToLower(strings.TrimSpace(s)) {
			return true
		}
	}
	return false
}

// ActiveQuestions returns the active questions in display order. The slice is
// assumed already ordered by the repository (order, id).
func (t *RequestType) ActiveQuestions() []Question {
	out := make([]Question, 0, len(t.Questions))
	for _, q := range t.Questions {
		if q.Active {
			out = append(out, q)
		}
	}
	return out
}

// ParseSectorList splits a ";"-separated sector list, trimming and lowering names.
func ParseSectorList(raw string) []string {
	raw = strings.NewReplacer("\r", "", "\n", "").Replace(raw)
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseOptionList splits a ";"-separated option list, keeping original case.
func ParseOptionList(raw string) []string {
	raw = strings.NewReplacer("\r", "", "\n", "").Replace(raw)
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
