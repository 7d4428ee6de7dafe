package config

// Redis holds sealed session records and the rate limit buckets.  When the
// server is unreachable at startup NewRedisClient returns nil and callers
// degrade: sessions stay in memory and rate limiting is off.

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a client from c.  REDIS_HOST and REDIS_PORT take
// precedence over REDIS_ADDR.  Returns nil when disabled or unreachable.
func NewRedisClient(ctx context.Context, c Redis) *redis.Client {
	if !c.Enabled {
		return nil
	}
	addr := c.Addr
	if c.Host != "" && c.Port != "" {
		addr = c.Host + ":" + c.Port
	}
	var tlsConf *tls.Config
	if c.TLS {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  c.Password,
		DB:        c.DB,
		TLSConfig: tlsConf,
	})
	// Ping the server with a short timeout.  Return nil on failure.
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
