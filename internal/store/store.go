// Package store is the local persistent key/value storage that stands in for
// browser local storage: the session token, the user and the practice draft.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/patternlab/internal/config"
	"github.com/yungbote/patternlab/internal/platform/logger"
)

const (
	KeyToken         = "token"
	KeyUser          = "user"
	KeyPracticeDraft = "practice-challenge-state"
)

// SessionKeys are removed together on logout and expiry.
var SessionKeys = []string{KeyToken, KeyUser, KeyPracticeDraft}

var ErrClosed = errors.New("store closed")

// Store is safe for concurrent use; last write wins.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
	Close() error
}

// Open builds the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) (Store, error) {
	switch cfg.Driver {
	case config.StorageSQLite:
		return NewSQLite(cfg.Path, log)
	case config.StorageRedis:
		return NewRedis(ctx, RedisOptions{Addr: cfg.RedisAddr, DB: cfg.RedisDB, Prefix: cfg.RedisPrefix}, log)
	case config.StorageMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
