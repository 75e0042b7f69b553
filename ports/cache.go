package ports

import (
	"context"
	"time"
)

// ListCache caches serialized listings. A miss returns ok=false and no error.
type ListCache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
