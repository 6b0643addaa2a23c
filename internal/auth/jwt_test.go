package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectRoundTrip(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	token, err := NewToken([]byte("secret"), "u-1", "ada", time.Hour, now)
	require.NoError(t, err)

	claims, err := Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "ada", claims.Name)
	assert.False(t, claims.Expired(now.Add(59*time.Minute)))
	assert.True(t, claims.Expired(now.Add(time.Hour)))

	assert.True(t, SessionValid(token, now))
	assert.False(t, SessionValid(token, now.Add(2*time.Hour)))
}

func TestInspectIgnoresSignature(t *testing.T) {
	now := time.Now()
	token, err := NewToken([]byte("provider-secret"), "u-2", "", time.Hour, now)
	require.NoError(t, err)

	claims, err := Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, "u-2", claims.UserID)
}

func TestInspectMalformed(t *testing.T) {
	_, err := Inspect("not-a-token")
	assert.ErrorIs(t, err, ErrMalformedToken)
	assert.False(t, SessionValid("", time.Now()))
}

func TestClaimsWithoutExpiry(t *testing.T) {
	c := &Claims{UserID: "u"}
	assert.False(t, c.Expired(time.Now()))
}
