package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", "meeting-knowledge", time.Hour)

	token, err := m.GenerateToken("desktop-app", []string{ScopeWrite})
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "desktop-app", claims.Subject)
	assert.True(t, claims.HasScope(ScopeWrite))
	assert.True(t, claims.HasScope(ScopeRead))
}

func TestManager_Rejects(t *testing.T) {
	m := NewManager("secret", "meeting-knowledge", time.Hour)
	token, err := m.GenerateToken("reader", []string{ScopeRead})
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.False(t, claims.HasScope(ScopeWrite))

	_, err = NewManager("other", "meeting-knowledge", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewManager("secret", "someone-else", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	later := NewManager("secret", "meeting-knowledge", time.Hour)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = m.GenerateToken("", nil)
	assert.Error(t, err)
}
