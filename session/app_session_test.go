package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, ttl), mr
}

func TestCreateGetDelete(t *testing.T) {
	s, _ := newStore(t, time.Hour)
	ctx := context.Background()

	id, err := s.Create(ctx, "u1", "alice")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	ls, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "u1", ls.UserID)
	assert.Equal(t, "alice", ls.Username)
	assert.Equal(t, ls.IssuedAt+3600, ls.ExpiresAt)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	require.ErrorIs(t, err, ErrNoSession)

	_, err = s.Get(ctx, "")
	require.ErrorIs(t, err, ErrNoSession)
}

func TestSessionExpires(t *testing.T) {
	s, mr := newStore(t, time.Minute)
	ctx := context.Background()

	id, err := s.Create(ctx, "u1", "alice")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = s.Get(ctx, id)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestRevokeAllForUser(t *testing.T) {
	s, mr := newStore(t, time.Hour)
	ctx := context.Background()

	a, err := s.Create(ctx, "u1", "alice")
	require.NoError(t, err)
	b, err := s.Create(ctx, "u1", "alice")
	require.NoError(t, err)
	other, err := s.Create(ctx, "u2", "bob")
	require.NoError(t, err)

	require.NoError(t, s.RevokeAllForUser(ctx, "u1"))
	for _, id := range []string{a, b} {
		_, err := s.Get(ctx, id)
		require.ErrorIs(t, err, ErrNoSession)
	}
	assert.False(t, mr.Exists(userSetKey("u1")))

	_, err = s.Get(ctx, other)
	require.NoError(t, err)

	// 没有会话的用户
	require.NoError(t, s.RevokeAllForUser(ctx, "nobody"))
}
