package cache

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendNone   = "none"
)

// Config selects and configures a backend. It is read from the [cache]
// table of the CLI config file.
type Config struct {
	Backend    string `toml:"backend"`
	Dir        string `toml:"dir"`        // file
	Addr       string `toml:"addr"`       // redis
	Password   string `toml:"password"`   // redis
	DB         int    `toml:"db"`         // redis
	Prefix     string `toml:"prefix"`     // redis
	URI        string `toml:"uri"`        // mongo
	Database   string `toml:"database"`   // mongo
	Collection string `toml:"collection"` // mongo
}

// Clearer is implemented by backends that can drop all their entries.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

var (
	_ Clearer = (*FileCache)(nil)
	_ Clearer = (*MemoryCache)(nil)
	_ Clearer = (*RedisCache)(nil)
	_ Clearer = (*MongoCache)(nil)
)

// Open returns the configured backend. An empty backend means file.
func Open(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Backend {
	case "", BackendFile:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("file cache: no directory configured")
		}
		c, err := NewFileCache(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendMemory:
		return NewMemoryCache(), nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, RedisConfig{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB, Prefix: cfg.Prefix})
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendMongo:
		c, err := NewMongoCache(ctx, MongoConfig{URI: cfg.URI, Database: cfg.Database, Collection: cfg.Collection})
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendNone:
		return NewNullCache(), nil
	}
	return nil, fmt.Errorf("%w: %q (valid: file, memory, redis, mongo, none)", ErrUnknownBackend, cfg.Backend)
}
