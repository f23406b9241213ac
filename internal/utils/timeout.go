package utils

import (
	"context"
	"time"
)

const DefaultUpstreamTimeout = 10 * time.Second

// WithUpstreamTimeout bounds a call to an external service; d <= 0 uses DefaultUpstreamTimeout.
func WithUpstreamTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultUpstreamTimeout
	}

	return context.WithTimeout(ctx, d)
}
