package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/admarket/chat-api/auth"
)

func TestRevocationStore_RevokeAndCheck(t *testing.T) {
	s := auth.NewRevocationStore()

	assert.False(t, s.IsRevoked("token-1"))

	s.Revoke("token-1", time.Hour)

	assert.True(t, s.IsRevoked("token-1"))
	assert.False(t, s.IsRevoked("token-2"))
}

func TestRevocationStore_ExpiredEntryReadsAsAbsent(t *testing.T) {
	s := auth.NewRevocationStore()
	s.Revoke("token-1", 20*time.Millisecond)

	assert.True(t, s.IsRevoked("token-1"))

	time.Sleep(40 * time.Millisecond)

	// No Purge has run; expiry alone is enough.
	assert.False(t, s.IsRevoked("token-1"))
	assert.Equal(t, 1, s.Len())
}

func TestRevocationStore_Purge(t *testing.T) {
	s := auth.NewRevocationStore()
	s.Revoke("expired", 10*time.Millisecond)
	s.Revoke("live", time.Hour)

	time.Sleep(30 * time.Millisecond)
	s.Purge()

	assert.Equal(t, 1, s.Len())
	assert.True(t, s.IsRevoked("live"))
}
