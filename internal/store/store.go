package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a key holds no value.
var ErrNotFound = errors.New("store: key not found")

// Store is durable key/value storage for client-side session state.
// A ttl <= 0 means the value never expires.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Kinds of store.
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindRedis  = "redis"
)

// Options configures Open.
type Options struct {
	FilePath      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open creates the store of the given kind.
func Open(ctx context.Context, kind string, opts Options) (Store, error) {
	switch kind {
	case KindMemory, "":
		return NewMemoryStore(), nil
	case KindFile:
		if opts.FilePath == "" {
			return nil, fmt.Errorf("store: file store requires a path")
		}
		return NewFileStore(opts.FilePath)
	case KindRedis:
		return NewRedisStore(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	default:
		return nil, fmt.Errorf("store: unsupported kind: %s", kind)
	}
}
