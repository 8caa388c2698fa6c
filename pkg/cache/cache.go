package cache

import (
	"context"
	"time"
)

// Cache defines the interface for caching services. Implementations are used
// as a read-through layer over the persistent store; cached entries are always
// invalidated on mutation, never treated as the source of truth.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}
