package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func TestSessionTokenRoundTrip(t *testing.T) {
	token, expiresAt, err := GenerateSessionToken(testSecret, "session-1", "user-1", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claim, err := ValidateSessionToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", claim.SessionId)
	assert.Equal(t, "user-1", claim.UserId)
}

func TestValidateSessionTokenRejects(t *testing.T) {
	token, _, err := GenerateSessionToken(testSecret, "session-1", "user-1", time.Hour)
	require.NoError(t, err)

	_, err = ValidateSessionToken([]byte("other-secret"), token)
	assert.Error(t, err)

	expired, _, err := GenerateSessionToken(testSecret, "session-1", "user-1", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateSessionToken(testSecret, expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaim{SessionId: "s"}).SignedString(testSecret)
	require.NoError(t, err)
	_, err = ValidateSessionToken(testSecret, noExpiry)
	assert.Error(t, err)

	noSession, _, err := GenerateSessionToken(testSecret, "", "user-1", time.Hour)
	require.NoError(t, err)
	_, err = ValidateSessionToken(testSecret, noSession)
	assert.Error(t, err)
}

func TestGenerateSessionTokenNeedsSecret(t *testing.T) {
	_, _, err := GenerateSessionToken(nil, "s", "u", time.Hour)
	assert.Error(t, err)
}

func TestExtractBearerToken(t *testing.T) {
	token, err := ExtractBearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	for _, header := range []string{"", "Basic abc", "Bearer "} {
		_, err := ExtractBearerToken(header)
		assert.Error(t, err, header)
	}
}

func TestUserSessionExpired(t *testing.T) {
	assert.True(t, UserSession{ExpiresAt: time.Now().Add(-time.Second)}.Expired())
	assert.False(t, UserSession{ExpiresAt: time.Now().Add(time.Hour)}.Expired())
}
