package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(expiry time.Duration) *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret",
		Expiry:        expiry,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        "advisorly-api",
	})
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	manager := testManager(time.Hour)

	token, jti, err := manager.GenerateAccessToken(42, "maya@example.com", "student", 3)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, jti)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "maya@example.com", claims.Email)
	assert.Equal(t, "student", claims.Role)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, "advisorly-api", claims.Issuer)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	manager := testManager(time.Hour)
	token, _, err := manager.GenerateAccessToken(1, "maya@example.com", "student", 0)
	require.NoError(t, err)

	other := NewJWTManager(JWTConfig{Secret: "different-secret", Expiry: time.Hour})
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenExpired(t *testing.T) {
	manager := testManager(-time.Minute)
	token, _, err := manager.GenerateAccessToken(1, "maya@example.com", "student", 0)
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.True(t, manager.IsTokenExpired(token))
}

func TestValidateTokenGarbage(t *testing.T) {
	manager := testManager(time.Hour)
	_, err := manager.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshAccessToken(t *testing.T) {
	manager := testManager(time.Hour)

	refresh, _, err := manager.GenerateRefreshToken(42, "maya@example.com", "student", 1)
	require.NoError(t, err)

	access, jti, err := manager.RefreshAccessToken(refresh, 1)
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := manager.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, uint(42), claims.UserID)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	manager := testManager(time.Hour)

	access, _, err := manager.GenerateAccessToken(42, "maya@example.com", "student", 1)
	require.NoError(t, err)

	// An access token must not mint new tokens
	_, _, err = manager.RefreshAccessToken(access, 1)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGetJTIAndExpiry(t *testing.T) {
	manager := testManager(time.Hour)
	token, jti, err := manager.GenerateAccessToken(1, "maya@example.com", "student", 0)
	require.NoError(t, err)

	got, err := manager.GetJTI(token)
	require.NoError(t, err)
	assert.Equal(t, jti, got)

	expiry, err := manager.GetTokenExpiry(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, time.Minute)
}
