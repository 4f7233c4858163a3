package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("access", "refresh", time.Minute, time.Hour)

	access, aexp, err := m.GenerateAccessToken("user-1", "sid-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), aexp, 2*time.Second)

	claims, err := m.ParseAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "sid-1", claims.SessionID)

	// access and refresh tokens are not interchangeable
	_, err = m.ParseRefreshToken(access)
	assert.Error(t, err)

	refresh, _, err := m.GenerateRefreshToken("user-1", "sid-1")
	require.NoError(t, err)
	_, err = m.ParseRefreshToken(refresh)
	assert.NoError(t, err)
}

func TestJWTRejects(t *testing.T) {
	m := NewJWTManager("access", "refresh", -time.Minute, time.Hour)

	expired, _, err := m.GenerateAccessToken("user-1", "sid")
	require.NoError(t, err)
	_, err = m.ParseAccessToken(expired)
	assert.Error(t, err)

	m.AccessTTL = time.Minute
	anonymous, _, err := m.GenerateAccessToken("", "sid")
	require.NoError(t, err)
	_, err = m.ParseAccessToken(anonymous)
	assert.Error(t, err)

	_, err = m.ParseAccessToken("garbage")
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.True(t, CompareHashAndPassword(hash, "secret1"))
	assert.False(t, CompareHashAndPassword(hash, "secret2"))
}

func TestPasswordBounds(t *testing.T) {
	_, err := HashPassword("12345")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	_, err = HashPassword(string(long))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}
