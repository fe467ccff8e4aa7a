package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ParseRedisURI accepts either a redis:// or rediss:// URL or a bare
// host:port address.
func ParseRedisURI(uri string) (*redis.Options, error) {
	if strings.HasPrefix(uri, "redis://") || strings.HasPrefix(uri, "rediss://") {
		opt, err := redis.ParseURL(uri)
		if err != nil {
			return nil, fmt.Errorf("parse redis uri: %w", err)
		}
		return opt, nil
	}
	if uri == "" {
		return nil, fmt.Errorf("parse redis uri: empty address")
	}
	return &redis.Options{Addr: uri}, nil
}

// NewRedisClient returns a client for opt after a successful ping.
func NewRedisClient(ctx context.Context, opt *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opt)
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
