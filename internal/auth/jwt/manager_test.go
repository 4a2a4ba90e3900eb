package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishtech/fishtech-backend/pkg/config"
	"github.com/fishtech/fishtech-backend/pkg/errors"
)

func testManager(accessExpiry time.Duration) *Manager {
	return NewManager(&config.JWTConfig{
		Secret:        "test-secret",
		AccessExpiry:  accessExpiry,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "fishtech-test",
	})
}

func testUser() *UserInfo {
	return &UserInfo{
		ID:        "a4f2c8e0-1234-4321-9876-abcdefabcdef",
		Username:  "inspector1",
		Name:      "Jordan Reyes",
		IsAdmin:   true,
		TenantID:  "11111111-1111-1111-1111-111111111111",
		Subdomain: "pacific-seafoods",
	}
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	m := testManager(15 * time.Minute)

	pair, err := m.GenerateTokenPair(testUser(), "session-1")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)

	claims, err := m.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "inspector1", claims.Username)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", claims.TenantID)
	assert.Equal(t, "pacific-seafoods", claims.Subdomain)
	assert.True(t, claims.IsAdmin)
}

func TestValidateRefreshTokenCarriesSession(t *testing.T) {
	m := testManager(15 * time.Minute)

	pair, err := m.GenerateTokenPair(testUser(), "session-42")
	require.NoError(t, err)

	claims, err := m.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "session-42", claims.SessionID)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", claims.TenantID)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	m := testManager(-1 * time.Minute)

	pair, err := m.GenerateTokenPair(testUser(), "session-1")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(pair.AccessToken)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "TOKEN_EXPIRED", appErr.Code)
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	m := testManager(15 * time.Minute)
	other := NewManager(&config.JWTConfig{
		Secret:        "different-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "fishtech-test",
	})

	pair, err := m.GenerateTokenPair(testUser(), "session-1")
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(pair.AccessToken)
	require.Error(t, err)
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	m := testManager(15 * time.Minute)

	_, err := m.ValidateAccessToken("not-a-token")
	require.Error(t, err)

	_, err = m.ValidateRefreshToken("")
	require.Error(t, err)
}
