package redis

import (
	goredis "github.com/redis/go-redis/v9"

	"imagevault/config"
)

// NewClient creates a Redis client. Construction happens once at startup and
// the client is passed to whoever needs it; there is no package-level
// singleton.
func NewClient(cfg config.RedisConfig) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
