package redis

import (
	"context"
	"net"
	"time"

	"cleanbook/config"

	goRedis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Addr is the host:port of the primary Redis, shared by the cache and the task queue.
func Addr(cfg *config.Config) string {
	return net.JoinHostPort(cfg.Cache.Redis.Primary.Host, cfg.Cache.Redis.Primary.Port)
}

// Timeout is the dial, read and write timeout applied to every Redis client.
func Timeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Cache.Redis.TimeoutSeconds) * time.Second
}

func Options(cfg *config.Config) *goRedis.Options {
	timeout := Timeout(cfg)

	return &goRedis.Options{
		Addr:         Addr(cfg),
		Password:     cfg.Cache.Redis.Primary.Password,
		DB:           cfg.Cache.Redis.Primary.DB,
		PoolSize:     cfg.Cache.Redis.PoolSize,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
}

func New(cfg *config.Config) *goRedis.Client {
	client := goRedis.NewClient(Options(cfg))

	ctx, cancel := context.WithTimeout(context.Background(), Timeout(cfg))
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", client.Options().Addr).Msg("Failed to connect to Redis")
	}

	log.Info().
		Int("db", cfg.Cache.Redis.Primary.DB).
		Str("addr", client.Options().Addr).
		Int("pool_size", cfg.Cache.Redis.PoolSize).
		Msg("Connected to Redis")

	return client
}
