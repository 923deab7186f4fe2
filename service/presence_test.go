package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"go.uber.org/zap"
)

func newTestLogger() loggerv2.Logger {
	return loggerv2.NewZapContextLogger(zap.NewNop())
}

func setupRedisPresence(t *testing.T) (*RedisPresenceStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisPresenceStore(client, newTestLogger(), 5*time.Minute), mr
}

// 两种实现行为一致, 同一组用例分别跑一遍
func presenceBackends(t *testing.T) map[string]PresenceService {
	store, _ := setupRedisPresence(t)
	return map[string]PresenceService{
		"redis": store,
		"local": NewLocalPresenceStore(newTestLogger(), 5*time.Minute),
	}
}

func setPresenceClock(svc PresenceService, now func() time.Time) {
	switch s := svc.(type) {
	case *RedisPresenceStore:
		s.now = now
	case *LocalPresenceStore:
		s.now = now
	}
}

func TestPresenceTouchAndList(t *testing.T) {
	for name, store := range presenceBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			count, err := store.Touch(ctx, 1, 100, "alice")
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)

			count, err = store.Touch(ctx, 1, 101, "bob")
			require.NoError(t, err)
			assert.Equal(t, int64(2), count)

			// 另一个小组互不可见
			count, err = store.Touch(ctx, 2, 200, "carol")
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)

			list, err := store.ListOnline(ctx, 1)
			require.NoError(t, err)
			require.Len(t, list, 2)
			// 最后活跃的排前面
			assert.Equal(t, uint64(101), list[0].UserID)
			assert.Equal(t, "bob", list[0].DisplayName)
			assert.Equal(t, uint64(100), list[1].UserID)
		})
	}
}

func TestPresenceTTLExpiry(t *testing.T) {
	for name, store := range presenceBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Now()

			setPresenceClock(store, func() time.Time { return base })
			_, err := store.Touch(ctx, 1, 100, "alice")
			require.NoError(t, err)
			_, err = store.Touch(ctx, 1, 101, "bob")
			require.NoError(t, err)

			// 恰好到达 TTL 边界时仍在线, 过期是严格大于
			setPresenceClock(store, func() time.Time { return base.Add(5 * time.Minute) })
			list, err := store.ListOnline(ctx, 1)
			require.NoError(t, err)
			require.Len(t, list, 2)

			// alice 超时, bob 持续活跃
			setPresenceClock(store, func() time.Time { return base.Add(4 * time.Minute) })
			_, err = store.Touch(ctx, 1, 101, "bob")
			require.NoError(t, err)

			setPresenceClock(store, func() time.Time { return base.Add(6 * time.Minute) })
			list, err = store.ListOnline(ctx, 1)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, uint64(101), list[0].UserID)
		})
	}
}

func TestPresenceRemove(t *testing.T) {
	for name, store := range presenceBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Touch(ctx, 1, 100, "alice")
			require.NoError(t, err)
			require.NoError(t, store.Remove(ctx, 1, 100))

			list, err := store.ListOnline(ctx, 1)
			require.NoError(t, err)
			assert.Empty(t, list)

			// 移除不存在的成员不报错
			assert.NoError(t, store.Remove(ctx, 1, 999))
		})
	}
}

func TestPresenceEmptyNameKeepsExisting(t *testing.T) {
	for name, store := range presenceBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Touch(ctx, 1, 100, "alice")
			require.NoError(t, err)
			// 纯活跃信号不携带昵称
			_, err = store.Touch(ctx, 1, 100, "")
			require.NoError(t, err)

			list, err := store.ListOnline(ctx, 1)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "alice", list[0].DisplayName)
		})
	}
}

func TestPresencePruneExpired(t *testing.T) {
	for name, store := range presenceBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Now()

			setPresenceClock(store, func() time.Time { return base })
			_, err := store.Touch(ctx, 1, 100, "alice")
			require.NoError(t, err)
			_, err = store.Touch(ctx, 2, 200, "bob")
			require.NoError(t, err)

			setPresenceClock(store, func() time.Time { return base.Add(10 * time.Minute) })
			pruned, err := store.PruneExpired(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(2), pruned)

			list, err := store.ListOnline(ctx, 1)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}
