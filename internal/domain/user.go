package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// Profile enumerates access profiles.
type Profile string

const (
	ProfileAdmin        Profile = "ADMIN"
	ProfileManager      Profile = "GESTOR"
	ProfileCollaborator Profile = "COLAB"
)

// ManagementGroupNone marks users outside any management group.
const ManagementGroupNone = "NA"

// adminishGroups are group names whose members receive admin-level
// notifications and pass privileged checks. Superusers qualify regardless.
var adminishGroups = map[string]struct{}{
	"Administrativo": {},
	"Atendimento":    {},
	"Gestor":         {},
	"Suporte":        {},
	"ADMIN":          {},
	"Admin":          {},
	"ADM":            {},
}

// User is the identity record, keyed by CPF.
type User struct {
	ID              string
	CPF             string
	FullName        string
	Email           string
	BirthDate       *time.Time
	Sector          string
	Position        string
	Profile         Profile
	ManagementGroup string
	Groups          []string
	PasswordHash    string
	IsSuperuser     bool
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NormalizeCPF strips every non-digit rune and requires exactly 11 digits.
// Check digits are intentionally not verified.
func NormalizeCPF(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 11 {
		return "", apperrors.NewValidationError("CPF must contain 11 numeric digits", map[string]any{"cpf": raw})
	}
	return digits, nil
}

// ValidateCorporateEmail normalizes the address and enforces the domain allow-list.
func ValidateCorporateEmail(raw string, allowedDomains []string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	at := strings.Index(value, "@")
	if at <= 0 || at == len(value)-1 {
		return "", apperrors.NewValidationError("invalid e-mail address", map[string]any{"email": raw})
	}
	domain := value[at+1:]
	for _, d := range allowedDomains {
		if domain == strings.ToLower(strings.TrimSpace(d)) {
			return value, nil
		}
	}
	sorted := append([]string(nil), allowedDomains...)
	sort.Strings(sorted)
	return "", apperrors.NewValidationError(
		fmt.Sprintf("e-mail domain must be one of: %s", strings.Join(sorted, ", ")),
		map[string]any{"email": raw},
	)
}

// Privileged reports whether the user passes the admin-ish gate: superuser,
// admin profile, or membership in one of the admin-ish groups.
func (u *User) Privileged() bool {
	if u == nil || !u.IsActive {
		return false
	}
	if u.IsSuperuser || u.Profile == ProfileAdmin {
		return true
	}
	for _, g := range u.Groups {
		if _, ok := adminishGroups[g]; ok {
			return true
		}
	}
	return false
}

// ManagerEquivalent reports whether the user may triage tickets: privileged
// or holding the manager profile.
func (u *User) ManagerEquivalent() bool {
	if u == nil {
		return false
	}
	return u.Privileged() || u.Profile == ProfileManager
}

// HasManagementGroup reports whether the user belongs to a real management group.
func (u *User) HasManagementGroup() bool {
	g := strings.TrimSpace(u.ManagementGroup)
	return g != "" && !strings.EqualFold(g, ManagementGroupNone)
}

// DisplayName returns the name shown in the UI and in assignee snapshots.
func (u *User) DisplayName() string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	return u.CPF
}

// ShortName returns the first name for headers.
func (u *User) ShortName() string {
	name := u.DisplayName()
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}

// ProjectedGroups derives the group set the user must belong to from the
// profile tag. The projection is total: exactly one group, named after the
// profile. Callers persist the result after profile mutations.
func (u *User) ProjectedGroups() []string {
	return []string{string(u.Profile)}
}
