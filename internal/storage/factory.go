package storage

import "fmt"

const (
	KindMemory = "memory"
	KindSQLite = "sqlite"
	KindRedis  = "redis"
)

type Options struct {
	Kind          string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

func NewStore(opts Options) (Store, error) {
	switch opts.Kind {
	case "", KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		return newSQLiteStore(opts.SQLitePath)
	case KindRedis:
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis address is required")
		}
		return NewRedisStore(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, WithRedisPrefix(opts.RedisPrefix)), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", opts.Kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
