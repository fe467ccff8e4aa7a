package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBlacklistWithoutRedis(t *testing.T) {
	ctx := context.Background()

	var nilList *TokenBlacklist
	assert.False(t, nilList.Enabled())

	list := NewTokenBlacklist(nil)
	require.NoError(t, list.Revoke(ctx, "jti-1", time.Hour))

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "without redis nothing is ever revoked")
}
