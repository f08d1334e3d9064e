package store

import "fmt"

// Ensure concrete backends implement the interface
var (
	_ DocumentStore = (*MemoryStore)(nil)
	_ DocumentStore = (*BoltStore)(nil)
	_ DocumentStore = (*RedisStore)(nil)
	_ DocumentStore = (*PostgresStore)(nil)
)

// Open creates a DocumentStore for the configured backend.
// Supported backends: "bolt" (default), "redis", "postgres", "memory".
func Open(backend, boltPath, redisURL, databaseURL string) (DocumentStore, error) {
	switch backend {
	case "", "bolt":
		if boltPath == "" {
			boltPath = "callnudge.db"
		}
		return NewBoltStore(boltPath)
	case "redis":
		if redisURL == "" {
			return nil, fmt.Errorf("redis backend requires REDIS_URL")
		}
		return NewRedisStore(redisURL)
	case "postgres":
		if databaseURL == "" {
			return nil, fmt.Errorf("postgres backend requires DATABASE_URL")
		}
		return NewPostgresStore(databaseURL)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", backend)
	}
}
