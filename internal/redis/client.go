package redisclient

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// NewRedisClient connects and pings. The client only backs slot locks.
func NewRedisClient(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	rdb := redis.NewClient(lockClientOptions(addr, username, password))

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return rdb, nil
}

// lockClientOptions keeps command timeouts short so a slow Redis fails a
// lock attempt instead of holding a booking request open.
func lockClientOptions(addr, username, password string) *redis.Options {
	return &redis.Options{
		Addr:            addr,
		Username:        username,
		Password:        password,
		DialTimeout:     2 * time.Second,
		ReadTimeout:     500 * time.Millisecond,
		WriteTimeout:    500 * time.Millisecond,
		PoolSize:        4 * runtime.GOMAXPROCS(0),
		MinIdleConns:    2,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}
