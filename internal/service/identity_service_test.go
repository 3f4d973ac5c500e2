package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func newIdentityFixture() (*IdentityService, *fakeUserRepo) {
	users := newFakeUserRepo()
	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 30,
		BcryptCost:            4,
		AllowedEmailDomains:   []string{"enprodes.com.br"},
	}}
	return NewIdentityService(cfg, users), users
}

func validRegister() RegisterInput {
	return RegisterInput{
		CPF:      "529.982.247-25",
		FullName: "Ana Souza",
		Email:    "ana@enprodes.com.br",
		Password: "s3nh4-forte",
		Sector:   "Financeiro",
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates_normalized_account", func(t *testing.T) {
		svc, users := newIdentityFixture()
		user, err := svc.Register(ctx, validRegister())
		require.NoError(t, err)
		assert.Equal(t, "52998224725", user.CPF)
		assert.Equal(t, domain.ProfileCollaborator, user.Profile)
		assert.True(t, user.IsActive)
		assert.NotEqual(t, "s3nh4-forte", user.PasswordHash)
		assert.NoError(t, auth.ComparePassword(user.PasswordHash, "s3nh4-forte"))
		assert.Equal(t, []string{"COLAB"}, user.Groups)
		assert.Len(t, users.users, 1)
	})

	t.Run("duplicate_cpf_conflicts", func(t *testing.T) {
		svc, _ := newIdentityFixture()
		_, err := svc.Register(ctx, validRegister())
		require.NoError(t, err)

		second := validRegister()
		second.Email = "outra@enprodes.com.br"
		_, err = svc.Register(ctx, second)
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CONFLICT", domainErr.Code)
	})

	t.Run("duplicate_email_conflicts", func(t *testing.T) {
		svc, _ := newIdentityFixture()
		_, err := svc.Register(ctx, validRegister())
		require.NoError(t, err)

		second := validRegister()
		second.CPF = "111.444.777-35"
		_, err = svc.Register(ctx, second)
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CONFLICT", domainErr.Code)
	})

	t.Run("foreign_email_domain_rejected", func(t *testing.T) {
		svc, _ := newIdentityFixture()
		input := validRegister()
		input.Email = "ana@gmail.com"
		_, err := svc.Register(ctx, input)
		assert.Error(t, err)
	})

	t.Run("malformed_cpf_rejected", func(t *testing.T) {
		svc, _ := newIdentityFixture()
		input := validRegister()
		input.CPF = "1234"
		_, err := svc.Register(ctx, input)
		assert.Error(t, err)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*IdentityService, *fakeUserRepo, *domain.User) {
		svc, users := newIdentityFixture()
		user, err := svc.Register(ctx, validRegister())
		require.NoError(t, err)
		return svc, users, user
	}

	t.Run("accepts_formatted_cpf", func(t *testing.T) {
		svc, _, registered := setup(t)
		user, token, exp, err := svc.Login(ctx, "529.982.247-25", "s3nh4-forte")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
		assert.NotEmpty(t, token)
		assert.False(t, exp.IsZero())
	})

	t.Run("wrong_password_unauthorized", func(t *testing.T) {
		svc, _, _ := setup(t)
		_, _, _, err := svc.Login(ctx, "52998224725", "errada")
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "UNAUTHORIZED", domainErr.Code)
	})

	t.Run("unknown_cpf_unauthorized", func(t *testing.T) {
		svc, _, _ := setup(t)
		_, _, _, err := svc.Login(ctx, "111.444.777-35", "s3nh4-forte")
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "UNAUTHORIZED", domainErr.Code)
	})

	t.Run("inactive_account_rejected", func(t *testing.T) {
		svc, users, user := setup(t)
		users.users[user.ID].IsActive = false
		_, _, _, err := svc.Login(ctx, "52998224725", "s3nh4-forte")
		assert.Error(t, err)
	})
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*IdentityService, *domain.User) {
		svc, _ := newIdentityFixture()
		user, err := svc.Register(ctx, validRegister())
		require.NoError(t, err)
		return svc, user
	}

	t.Run("profile_change_reprojects_groups", func(t *testing.T) {
		svc, user := setup(t)
		group := "Obras"
		updated, err := svc.UpdateProfile(ctx, user.ID, ProfileUpdateInput{
			Profile:         domain.ProfileManager,
			ManagementGroup: &group,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ProfileManager, updated.Profile)
		assert.Equal(t, []string{"GESTOR"}, updated.Groups)
		assert.Equal(t, "Obras", updated.ManagementGroup)
	})

	t.Run("management_group_untouched_when_absent", func(t *testing.T) {
		svc, user := setup(t)
		group := "Obras"
		_, err := svc.UpdateProfile(ctx, user.ID, ProfileUpdateInput{ManagementGroup: &group})
		require.NoError(t, err)
		updated, err := svc.UpdateProfile(ctx, user.ID, ProfileUpdateInput{Sector: "RH"})
		require.NoError(t, err)
		assert.Equal(t, "Obras", updated.ManagementGroup)
	})

	t.Run("management_group_cleared_with_empty_value", func(t *testing.T) {
		svc, user := setup(t)
		group := "Obras"
		_, err := svc.UpdateProfile(ctx, user.ID, ProfileUpdateInput{ManagementGroup: &group})
		require.NoError(t, err)
		empty := ""
		updated, err := svc.UpdateProfile(ctx, user.ID, ProfileUpdateInput{ManagementGroup: &empty})
		require.NoError(t, err)
		assert.Empty(t, updated.ManagementGroup)
	})

	t.Run("email_change_checks_uniqueness", func(t *testing.T) {
		svc, user := setup(t)
		second := validRegister()
		second.CPF = "111.444.777-35"
		second.Email = "bruno@enprodes.com.br"
		_, err := svc.Register(ctx, second)
		require.NoError(t, err)

		_, err = svc.UpdateProfile(ctx, user.ID, ProfileUpdateInput{Email: "bruno@enprodes.com.br"})
		var domainErr *apperrors.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CONFLICT", domainErr.Code)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, users := newIdentityFixture()
	user, err := svc.Register(ctx, validRegister())
	require.NoError(t, err)

	t.Run("wrong_current_password_rejected", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, "errada", "nova-senha")
		assert.Error(t, err)
	})

	t.Run("stores_new_hash", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, user.ID, "s3nh4-forte", "nova-senha"))
		assert.NoError(t, auth.ComparePassword(users.users[user.ID].PasswordHash, "nova-senha"))
	})
}
