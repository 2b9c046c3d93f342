package config

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a redis client from the storage settings and pings it
// with a short timeout.
func NewRedisClient(ctx context.Context, c StorageConfig) (*redis.Client, error) {
	var tlsConf *tls.Config
	if c.GetRedisTLS() {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      c.GetRedisAddr(),
		Password:  c.GetRedisPassword(),
		DB:        c.GetRedisDB(),
		TLSConfig: tlsConf,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("[config NewRedisClient] ping %s: %w", c.GetRedisAddr(), err)
	}
	return client, nil
}
