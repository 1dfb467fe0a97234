package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Timeout defaults when config leaves them unset. Kept short so a slow
// redis degrades queue publishes instead of stalling attendance requests.
const (
	defaultDialTimeout = 2 * time.Second
	defaultOpTimeout   = time.Second
)

// Redis wraps the client used for the recognition job queue and the
// health probe.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with the given timeouts; zero values fall back
// to the defaults above. opTimeout bounds individual reads and writes.
func NewRedis(addr string, dialTimeout, opTimeout time.Duration) *Redis {
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  dialTimeout,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
