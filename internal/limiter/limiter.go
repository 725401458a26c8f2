// Package limiter defines interfaces and implementations for relay publish rate limiting.
package limiter

import (
	"context"
	"time"
)

// Limiter bounds how often an identity may publish events.
type Limiter interface {
	// Allow records a publish attempt and reports whether it is allowed,
	// with an optional retry-after duration when it is not.
	Allow(ctx context.Context, pubkey string) (bool, time.Duration, error)
}

// Unlimited is a no-op limiter for development setups.
type Unlimited struct{}

// Allow always permits the publish.
func (Unlimited) Allow(context.Context, string) (bool, time.Duration, error) {
	return true, 0, nil
}
