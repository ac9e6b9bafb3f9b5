package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenPair_RoundTrip(t *testing.T) {
	svc, err := NewTestService(time.Minute, time.Hour)
	require.NoError(t, err)

	pair, err := svc.GenerateTokenPair(7, "editor", true)
	require.NoError(t, err)

	access, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(7), access.UserID)
	assert.Equal(t, "editor", access.Username)
	assert.Equal(t, TokenTypeAccess, access.TokenType)
	assert.True(t, access.MustChangePassword)
	assert.Empty(t, access.ID)

	refresh, err := svc.ValidateToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
	assert.NotEmpty(t, refresh.ID)
	assert.False(t, refresh.MustChangePassword)
}

func TestValidateToken_Rejects(t *testing.T) {
	svc, err := NewTestService(time.Minute, time.Hour)
	require.NoError(t, err)
	other, err := NewTestService(time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = svc.ValidateToken("")
	assert.Error(t, err)

	foreign, err := other.GenerateTokenPair(1, "x", false)
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign.AccessToken)
	assert.Error(t, err)

	expired, err := NewTestService(-time.Minute, time.Hour)
	require.NoError(t, err)
	pair, err := expired.GenerateTokenPair(1, "x", false)
	require.NoError(t, err)
	_, err = expired.ValidateToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestValidateTokenOfType(t *testing.T) {
	svc, err := NewTestService(time.Minute, time.Hour)
	require.NoError(t, err)
	pair, err := svc.GenerateTokenPair(3, "editor", false)
	require.NoError(t, err)

	claims, err := svc.ValidateTokenOfType(pair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "soumispace", claims.Issuer)

	_, err = svc.ValidateTokenOfType(pair.RefreshToken, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)
	_, err = svc.ValidateTokenOfType(pair.AccessToken, TokenTypeRefresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)
	_, err = svc.ValidateTokenOfType(pair.RefreshToken, TokenTypeRefresh)
	assert.NoError(t, err)
}

func TestPasswordHelpers(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))

	a, err := GeneratePassword(24)
	require.NoError(t, err)
	b, err := GeneratePassword(0)
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
