package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AccountsHandler manages registration, login and profile endpoints.
type AccountsHandler struct {
	identity *service.IdentityService
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(identity *service.IdentityService) *AccountsHandler {
	return &AccountsHandler{identity: identity}
}

// Register POST /auth/register.
func (h *AccountsHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.identity.Register(c.Context(), service.RegisterInput{
		CPF:             req.CPF,
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		BirthDate:       parseDate(req.BirthDate),
		Sector:          req.Sector,
		Position:        req.Position,
		Profile:         domain.Profile(req.Profile),
		ManagementGroup: req.ManagementGroup,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewUserProfile(user)})
}

// Login POST /auth/login.
func (h *AccountsHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, token, exp, err := h.identity.Login(c.Context(), req.CPF, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     token,
		ExpiresAt: exp,
		User:      dto.NewUserProfile(user),
	}})
}

// Me GET /me.
func (h *AccountsHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{"data": dto.NewUserProfile(principal.User)})
}

// UpdateMe PUT /me.
func (h *AccountsHandler) UpdateMe(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	input := service.ProfileUpdateInput{
		FullName:  req.FullName,
		Email:     req.Email,
		BirthDate: parseDate(req.BirthDate),
		Sector:    req.Sector,
		Position:  req.Position,
	}
	// Profile, activation and management group steer authorization scope,
	// so self-edit only carries them for privileged callers.
	if principal.User.Privileged() {
		input.Profile = domain.Profile(req.Profile)
		input.IsActive = req.IsActive
		input.ManagementGroup = req.ManagementGroup
	}
	user, err := h.identity.UpdateProfile(c.Context(), principal.User.ID, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserProfile(user)})
}

// UpdateUser PUT /admin/users/:id, privileged edit of any account.
func (h *AccountsHandler) UpdateUser(c *fiber.Ctx) error {
	var req dto.UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.identity.UpdateProfile(c.Context(), c.Params("id"), service.ProfileUpdateInput{
		FullName:        req.FullName,
		Email:           req.Email,
		BirthDate:       parseDate(req.BirthDate),
		Sector:          req.Sector,
		Position:        req.Position,
		Profile:         domain.Profile(req.Profile),
		ManagementGroup: req.ManagementGroup,
		IsActive:        req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserProfile(user)})
}

// ChangePassword POST /me/password.
func (h *AccountsHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.identity.ChangePassword(c.Context(), principal.User.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetTemporaryPassword POST /admin/users/password, privileged reset.
func (h *AccountsHandler) SetTemporaryPassword(c *fiber.Ctx) error {
	var req dto.TemporaryPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.identity.SetTemporaryPassword(c.Context(), req.UserID, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
