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

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client), mr
}

func TestRedisStore_CreateGetDelete(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	sess, err := New("user-1", "alice@example.com", time.Hour, time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.Create(ctx, sess))
	assert.True(t, mr.Exists("session:"+sess.SessionID))
	assert.InDelta(t, time.Hour.Seconds(), mr.TTL("session:"+sess.SessionID).Seconds(), 2)

	got, err := store.Get(ctx, sess.SessionID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.WithinDuration(t, sess.ExpiresAt, got.ExpiresAt, time.Second)

	require.NoError(t, store.Delete(ctx, sess.SessionID))
	got, err = store.Get(ctx, sess.SessionID)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_GetUnknown(t *testing.T) {
	store, _ := newTestStore(t)

	got, err := store.Get(context.Background(), "missing")

	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_GetCorrupt(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set("session:bad", "{not json"))

	got, err := store.Get(context.Background(), "bad")

	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_CreateRejectsInvalid(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	err := store.Create(ctx, Session{UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)})
	assert.ErrorIs(t, err, ErrInvalidSession)

	err = store.Create(ctx, Session{SessionID: "s", UserID: "user-1", ExpiresAt: time.Now().Add(-time.Minute)})
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestRedisStore_UpdateExpiredDeletes(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	sess, err := New("user-1", "", time.Hour, time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, sess))

	sess.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, store.Update(ctx, sess))

	assert.False(t, mr.Exists("session:"+sess.SessionID))
}

func TestRedisStore_GetUnavailable(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	_, err := store.Get(context.Background(), "any")

	assert.Error(t, err)
}
