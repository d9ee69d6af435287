package utils

import (
	"context"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/miniblog/config"
)

var redisClient atomic.Pointer[redis.Client]

// InitRedis creates the shared client. Without a configured host Redis stays disabled and
// callers fall back to their in-process paths.
func InitRedis(cfg config.AppConfig) *redis.Client {
	if cfg.RedisHost == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		Sugar.Warnf("redis ping failed addr=%s err=%v", client.Options().Addr, err)
	}
	UseRedis(client)
	return client
}

// UseRedis replaces the shared client; nil disables Redis.
func UseRedis(client *redis.Client) {
	redisClient.Store(client)
}

// GetRedis returns the shared client or nil when Redis is disabled.
func GetRedis() *redis.Client {
	return redisClient.Load()
}
