package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/khoahotran/fittrack/internal/domain/onboarding"
	"github.com/khoahotran/fittrack/pkg/logger"
)

type storeFactory func(t *testing.T) onboarding.StoreProvider

func storeFactories() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) onboarding.StoreProvider {
			return NewMemoryStore()
		},
		"redis": func(t *testing.T) onboarding.StoreProvider {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { client.Close() })
			return NewRedisSessionStore(client, "test", logger.NewNop())
		},
	}
}

func TestSessionStore_GetSetRemove(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			provider := factory(t)
			a := provider.ForSession("a")
			b := provider.ForSession("b")

			_, ok, err := a.Get(ctx, onboarding.KeyStep)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, a.Set(ctx, onboarding.KeyStep, "2"))
			require.NoError(t, a.Set(ctx, onboarding.KeyEmail, "a@b.co"))

			v, ok, err := a.Get(ctx, onboarding.KeyStep)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "2", v)

			_, ok, err = b.Get(ctx, onboarding.KeyStep)
			require.NoError(t, err)
			assert.False(t, ok, "sessions must not share keys")

			require.NoError(t, a.Remove(ctx, onboarding.WorkingKeys...))
			_, ok, _ = a.Get(ctx, onboarding.KeyStep)
			assert.False(t, ok)
			_, ok, _ = a.Get(ctx, onboarding.KeyEmail)
			assert.False(t, ok)

			require.NoError(t, a.Remove(ctx))
		})
	}
}

func TestSessionStore_TryLock(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t).ForSession("s")
			locker, ok := store.(onboarding.Locker)
			require.True(t, ok)

			release, acquired, err := locker.TryLock(ctx, onboarding.KeyCompleting, time.Minute)
			require.NoError(t, err)
			require.True(t, acquired)

			_, again, err := locker.TryLock(ctx, onboarding.KeyCompleting, time.Minute)
			require.NoError(t, err)
			assert.False(t, again)

			release()

			release2, acquired, err := locker.TryLock(ctx, onboarding.KeyCompleting, time.Minute)
			require.NoError(t, err)
			assert.True(t, acquired)
			release2()
		})
	}
}

func TestRedisSessionStore_KeyLayout(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisSessionStore(client, "fittrack:", logger.NewNop()).ForSession("abc")
	require.NoError(t, store.Set(context.Background(), onboarding.KeyFormData, `{"name":"Ana"}`))

	got, err := mr.Get("fittrack:session:abc:onboardingFormData")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Ana"}`, got)
	assert.Equal(t, time.Duration(0), mr.TTL("fittrack:session:abc:onboardingFormData"))
}

func TestMemoryStore_LockExpires(t *testing.T) {
	m := NewMemoryStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	locker := m.ForSession("s").(onboarding.Locker)

	_, ok, _ := locker.TryLock(context.Background(), "k", time.Second)
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, _ = locker.TryLock(context.Background(), "k", time.Second)
	assert.True(t, ok, "expired lock should be reacquirable")
}

func TestMemoryStore_StaleReleaseKeepsNewLock(t *testing.T) {
	m := NewMemoryStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	locker := m.ForSession("s").(onboarding.Locker)

	stale, ok, _ := locker.TryLock(context.Background(), "k", time.Second)
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	current, ok, _ := locker.TryLock(context.Background(), "k", time.Minute)
	require.True(t, ok)

	stale()
	_, ok, _ = locker.TryLock(context.Background(), "k", time.Minute)
	assert.False(t, ok, "an expired holder must not release the current lock")

	current()
	_, ok, _ = locker.TryLock(context.Background(), "k", time.Minute)
	assert.True(t, ok)
}

func TestRedisSessionStore_StaleReleaseKeepsNewLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()
	locker := NewRedisSessionStore(client, "test", logger.NewNop()).ForSession("s").(onboarding.Locker)

	stale, ok, err := locker.TryLock(ctx, onboarding.KeyCompleting, time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	_, ok, err = locker.TryLock(ctx, onboarding.KeyCompleting, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	stale()
	assert.True(t, mr.Exists("test:session:s:"+onboarding.KeyCompleting))
}

func TestRedisSessionStore_ReleaseErrorIsLogged(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	log := &recordingLogger{Logger: logger.NewNop()}
	locker := NewRedisSessionStore(client, "test", log).ForSession("s").(onboarding.Locker)

	release, ok, err := locker.TryLock(context.Background(), onboarding.KeyCompleting, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mr.Close()
	release()
	assert.Equal(t, 1, log.warns)
}

type recordingLogger struct {
	logger.Logger
	warns int
}

func (l *recordingLogger) Warn(msg string, fields ...zap.Field) {
	l.warns++
}
