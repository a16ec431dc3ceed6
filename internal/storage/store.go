// Package storage provides the durable key/value storage the portal keeps
// browser session state in, plus a typed per-session view over it.
package storage

import (
	"context"
	"time"
)

// Store is a string key/value store with optional per-key expiry.
// A ttl of zero means the key never expires.
type Store interface {
	// Get returns the stored value and whether the key was present.
	// A missing or expired key is not an error.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
