package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("unit-secret", 30)
	user := &domain.User{ID: "u-1", CPF: "52998224725", Profile: domain.ProfileManager}

	token, exp, err := tm.GenerateToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.False(t, exp.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "52998224725", claims.CPF)
	assert.Equal(t, domain.ProfileManager, claims.Profile)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("secret-a", 30).GenerateToken(&domain.User{ID: "u-1"})
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", 30).ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("unit-secret", 30)
	_, err := tm.ParseToken("not.a.jwt")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3nh4", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "s3nh4", hash)
	assert.NoError(t, ComparePassword(hash, "s3nh4"))
	assert.Error(t, ComparePassword(hash, "outra"))
}
