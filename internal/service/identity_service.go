package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// IdentityService coordinates registration, login and profile management.
// Accounts are keyed by CPF; the corporate email is a secondary unique key.
type IdentityService struct {
	users          repository.UserRepository
	tokenMgr       *auth.TokenManager
	bcryptCost     int
	allowedDomains []string
}

// NewIdentityService builds the service.
func NewIdentityService(cfg config.Config, users repository.UserRepository) *IdentityService {
	return &IdentityService{
		users:          users,
		tokenMgr:       auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost:     cfg.Auth.BcryptCost,
		allowedDomains: cfg.Auth.AllowedEmailDomains,
	}
}

// RegisterInput describes a new account request.
type RegisterInput struct {
	CPF             string
	FullName        string
	Email           string
	Password        string
	BirthDate       *time.Time
	Sector          string
	Position        string
	Profile         domain.Profile
	ManagementGroup string
}

// ProfileUpdateInput describes editable profile fields. Profile, IsActive and
// ManagementGroup steer authorization scope, so handlers only fill them for
// privileged callers; a nil ManagementGroup leaves the stored value alone.
type ProfileUpdateInput struct {
	FullName        string
	Email           string
	BirthDate       *time.Time
	Sector          string
	Position        string
	Profile         domain.Profile
	ManagementGroup *string
	IsActive        *bool
}

// Register creates an account after normalizing the CPF and checking the
// corporate email allow-list.
func (s *IdentityService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	cpf, err := domain.NormalizeCPF(input.CPF)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	email, err := domain.ValidateCorporateEmail(input.Email, s.allowedDomains)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	if _, err := s.users.GetByCPF(ctx, cpf); err == nil {
		return nil, apperrors.NewConflict("CPF já cadastrado", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("e-mail já cadastrado", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	profile := input.Profile
	if profile == "" {
		profile = domain.ProfileCollaborator
	}
	user := &domain.User{
		CPF:             cpf,
		FullName:        input.FullName,
		Email:           email,
		BirthDate:       input.BirthDate,
		Sector:          input.Sector,
		Position:        input.Position,
		Profile:         profile,
		ManagementGroup: input.ManagementGroup,
		PasswordHash:    hash,
		IsActive:        true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.syncGroups(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates by CPF and password and issues a JWT.
func (s *IdentityService) Login(ctx context.Context, rawCPF, password string) (*domain.User, string, time.Time, error) {
	cpf, err := domain.NormalizeCPF(rawCPF)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewValidationError(err.Error(), nil)
	}
	user, err := s.users.GetByCPF(ctx, cpf)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("credenciais inválidas")
		}
		return nil, "", time.Time{}, err
	}
	if !user.IsActive {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("conta desativada")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("credenciais inválidas")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// UpdateProfile edits account fields and re-projects group membership when
// the profile changed.
func (s *IdentityService) UpdateProfile(ctx context.Context, userID string, input ProfileUpdateInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Email != "" && input.Email != user.Email {
		email, err := domain.ValidateCorporateEmail(input.Email, s.allowedDomains)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error(), nil)
		}
		if other, err := s.users.GetByEmail(ctx, email); err == nil && other.ID != user.ID {
			return nil, apperrors.NewConflict("e-mail já cadastrado", nil)
		} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		user.Email = email
	}
	if input.FullName != "" {
		user.FullName = input.FullName
	}
	if input.BirthDate != nil {
		user.BirthDate = input.BirthDate
	}
	if input.Sector != "" {
		user.Sector = input.Sector
	}
	if input.Position != "" {
		user.Position = input.Position
	}
	if input.ManagementGroup != nil {
		user.ManagementGroup = *input.ManagementGroup
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	profileChanged := input.Profile != "" && input.Profile != user.Profile
	if profileChanged {
		user.Profile = input.Profile
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if profileChanged {
		if err := s.syncGroups(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// SetTemporaryPassword resets an account to a new password, hashed. Callers
// gate this behind a privileged role.
func (s *IdentityService) SetTemporaryPassword(ctx context.Context, userID, newPassword string) error {
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// ChangePassword verifies the current password before storing the new hash.
func (s *IdentityService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("credenciais inválidas")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, hash)
}

// GetProfile returns the account for display.
func (s *IdentityService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// syncGroups writes the group projection derived from the profile. The
// projection is explicit so callers can see exactly when membership moves.
func (s *IdentityService) syncGroups(ctx context.Context, user *domain.User) error {
	groups := user.ProjectedGroups()
	if err := s.users.ReplaceGroups(ctx, user.ID, groups); err != nil {
		return err
	}
	user.Groups = groups
	return nil
}

// TokenManager exposes the token manager for middleware wiring.
func (s *IdentityService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
