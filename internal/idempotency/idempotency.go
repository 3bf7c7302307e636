// Package idempotency reserves client-supplied request keys so a repeated
// checkout submission is rejected instead of creating a second order.
package idempotency

import (
	"context"
	"time"
)

// DefaultTTL is how long a used key stays reserved.
const DefaultTTL = 24 * time.Hour

// Store reserves keys for a limited time.
type Store interface {
	// Reserve claims key for ttl. It reports false when the key is
	// already held.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees key so the request can be retried.
	Release(ctx context.Context, key string) error
}
