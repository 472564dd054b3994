package command

import (
	"github.com/go-redis/redis/v8"
	"github.com/pixil98/go-mmo/internal/services"
)

// RedisConfig points the key/value store at a redis instance. With no
// address configured, account state lives in process memory and is
// lost on restart.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
}

func (c *RedisConfig) validate() error {
	return nil
}

func (c *RedisConfig) BuildKVStore() services.KVStore {
	if c.Addr == "" {
		return services.NewMemoryKVStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})
	return services.NewRedisKVStore(client, c.Prefix)
}
