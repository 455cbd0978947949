package redis_test

import (
	"testing"
	"time"

	"cleanbook/config"
	"cleanbook/infras/redis"

	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	cfg := &config.Config{}
	cfg.Cache.Redis.Primary.Host = "cache.internal"
	cfg.Cache.Redis.Primary.Port = "6380"
	cfg.Cache.Redis.Primary.Password = "secret"
	cfg.Cache.Redis.Primary.DB = 2
	cfg.Cache.Redis.PoolSize = 20
	cfg.Cache.Redis.TimeoutSeconds = 4

	opts := redis.Options(cfg)

	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 20, opts.PoolSize)
	assert.Equal(t, 4*time.Second, opts.DialTimeout)
	assert.Equal(t, 4*time.Second, opts.ReadTimeout)
}

func TestAddr_IPv6(t *testing.T) {
	cfg := &config.Config{}
	cfg.Cache.Redis.Primary.Host = "::1"
	cfg.Cache.Redis.Primary.Port = "6379"

	assert.Equal(t, "[::1]:6379", redis.Addr(cfg))
}
