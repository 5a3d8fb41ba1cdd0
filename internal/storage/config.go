package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Config struct {
	Driver   string         `mapstructure:"driver" validate:"omitempty,oneof=memory file postgres redis"`
	Dir      string         `mapstructure:"dir" validate:"required_if=Driver file"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	DSN            string `mapstructure:"dsn"`
	MaxConnections int    `mapstructure:"max-connections" validate:"gte=0"`
}

type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// Open builds the store selected by cfg.Driver. An empty driver means memory.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverFile:
		return NewFile(cfg.Dir)
	case DriverPostgres:
		if cfg.Postgres.DSN == "" {
			return nil, fmt.Errorf("storage.postgres.dsn is required for the postgres driver")
		}
		store, err := NewPostgres(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	case DriverRedis:
		if cfg.Redis.Address == "" {
			return nil, fmt.Errorf("storage.redis.address is required for the redis driver")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connecting to redis %s: %w", cfg.Redis.Address, err)
		}
		return NewRedis(client, WithPrefix(cfg.Redis.Prefix), WithTTL(cfg.Redis.TTL)), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
