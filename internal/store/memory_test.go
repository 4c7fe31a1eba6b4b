package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetNX_AtMostOnce(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ok1, err := s.SetNX(ctx, "alert:cooldown:pair1", "t1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok1)

	ok2, err := s.SetNX(ctx, "alert:cooldown:pair1", "t2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok2, "second racer must lose")

	v, found, err := s.Get(ctx, "alert:cooldown:pair1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "t1", v)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	ok, err := s.SetNX(ctx, "k", "v2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired key must be re-claimable")
}

func TestMemoryStore_Sets(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SAdd(ctx, "blacklist:symbols", "SCAM", "RUG"))
	isMember, err := s.SIsMember(ctx, "blacklist:symbols", "SCAM")
	require.NoError(t, err)
	assert.True(t, isMember)

	members, err := s.SMembers(ctx, "blacklist:symbols")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"SCAM", "RUG"}, members)

	require.NoError(t, s.SRem(ctx, "blacklist:symbols", "SCAM"))
	isMember, err = s.SIsMember(ctx, "blacklist:symbols", "SCAM")
	require.NoError(t, err)
	assert.False(t, isMember)
}

func TestMemoryStore_Hash(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.HSet(ctx, "config:scanner", map[string]string{"min_spread_pct": "1.5"}))
	fields, err := s.GetAllHash(ctx, "config:scanner")
	require.NoError(t, err)
	assert.Equal(t, "1.5", fields["min_spread_pct"])
}
