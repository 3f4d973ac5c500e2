package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RegisterRequest payload for new accounts. CPF may arrive formatted; it is
// normalized server-side.
type RegisterRequest struct {
	CPF             string `json:"cpf" validate:"required"`
	FullName        string `json:"full_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	BirthDate       string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Sector          string `json:"sector"`
	Position        string `json:"position"`
	Profile         string `json:"profile" validate:"omitempty,oneof=ADMIN GESTOR COLAB"`
	ManagementGroup string `json:"management_group"`
}

// LoginRequest payload. Login is by CPF, not email.
type LoginRequest struct {
	CPF      string `json:"cpf" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      UserProfile `json:"user"`
}

// UpdateProfileRequest payload for profile edits. ManagementGroup is a
// pointer so an admin can clear it explicitly; absent means untouched.
type UpdateProfileRequest struct {
	FullName        string  `json:"full_name"`
	Email           string  `json:"email" validate:"omitempty,email"`
	BirthDate       string  `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Sector          string  `json:"sector"`
	Position        string  `json:"position"`
	Profile         string  `json:"profile" validate:"omitempty,oneof=ADMIN GESTOR COLAB"`
	ManagementGroup *string `json:"management_group"`
	IsActive        *bool   `json:"is_active"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// TemporaryPasswordRequest payload for privileged resets.
type TemporaryPasswordRequest struct {
	UserID      string `json:"user_id" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// UserProfile response.
type UserProfile struct {
	ID              string   `json:"id"`
	CPF             string   `json:"cpf"`
	FullName        string   `json:"full_name"`
	Email           string   `json:"email"`
	Sector          string   `json:"sector"`
	Position        string   `json:"position"`
	Profile         string   `json:"profile"`
	ManagementGroup string   `json:"management_group,omitempty"`
	Groups          []string `json:"groups,omitempty"`
	IsActive        bool     `json:"is_active"`
}

// NewUserProfile maps a domain user to its API shape.
func NewUserProfile(u *domain.User) UserProfile {
	return UserProfile{
		ID:              u.ID,
		CPF:             u.CPF,
		FullName:        u.FullName,
		Email:           u.Email,
		Sector:          u.Sector,
		Position:        u.Position,
		Profile:         string(u.Profile),
		ManagementGroup: u.ManagementGroup,
		Groups:          u.Groups,
		IsActive:        u.IsActive,
	}
}
