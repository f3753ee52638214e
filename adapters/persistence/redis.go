package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khoahotran/fittrack/internal/config"
	"github.com/khoahotran/fittrack/internal/domain/onboarding"
	"github.com/khoahotran/fittrack/pkg/logger"
)

func NewRedisClient(cfg config.Config, log logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("can not connect Redis: %w", err)
	}

	log.Info("Connect Redis successfully.")
	return rdb, nil
}

// RedisSessionStore namespaces every session under <prefix>:session:<id>:<key>.
// Values never expire; only the completion lock carries a TTL.
type RedisSessionStore struct {
	client redis.UniversalClient
	prefix string
	logger logger.Logger
}

func NewRedisSessionStore(client redis.UniversalClient, prefix string, log logger.Logger) *RedisSessionStore {
	if prefix == "" {
		prefix = "fittrack"
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &RedisSessionStore{client: client, prefix: strings.TrimSuffix(prefix, ":"), logger: log}
}

func (r *RedisSessionStore) ForSession(sessionID string) onboarding.Store {
	return &redisSession{client: r.client, base: r.prefix + ":session:" + sessionID + ":", logger: r.logger}
}

type redisSession struct {
	client redis.UniversalClient
	base   string
	logger logger.Logger
}

func (s *redisSession) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.base+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *redisSession) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.base+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *redisSession) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.base + k
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (s *redisSession) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	lockKey := s.base + key
	token := uuid.NewString()

	ok, err := s.client.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return func() {}, false, fmt.Errorf("redis lock %s: %w", key, err)
	}
	if !ok {
		return func() {}, false, nil
	}

	release := func() {
		err := releaseScript.Run(context.Background(), s.client, []string{lockKey}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			s.logger.Warn("Failed to release session lock; it will expire on its own",
				zap.String("key", lockKey), zap.Error(err))
		}
	}
	return release, true, nil
}
