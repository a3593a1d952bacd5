package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/patternlab/internal/platform/logger"
)

type RedisOptions struct {
	Addr   string
	DB     int
	Prefix string
}

type redisStore struct {
	rdb    *goredis.Client
	prefix string
	log    *logger.Logger
}

func NewRedis(ctx context.Context, opts RedisOptions, baseLog *logger.Logger) (Store, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisStore{
		rdb:    rdb,
		prefix: opts.Prefix,
		log:    baseLog.With("repo", "LocalStorageRepo", "driver", "redis"),
	}, nil
}

func (s *redisStore) k(key string) string { return s.prefix + key }

func (s *redisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, s.k(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *redisStore) Set(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, s.k(key), value, 0).Err()
}

func (s *redisStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = s.k(key)
	}
	if err := s.rdb.Del(ctx, full...).Err(); err != nil {
		return err
	}
	s.log.Debug("local storage keys removed", "keys", keys)
	return nil
}

func (s *redisStore) Close() error { return s.rdb.Close() }
