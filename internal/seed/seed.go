// Package seed asks the backend to load its demo data. It is best-effort: no
// failure here ever reaches a user-facing flow.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aaravmahajanofficial/dine-in-preorder/internal/utils"
)

type Seeder struct {
	baseURL   string
	client    utils.HTTPClient
	afterSeed func(ctx context.Context) error
}

type Option func(*Seeder)

// WithAfterSeed runs fn once the backend has accepted the seed request, e.g.
// to drop catalog data cached before the seed.
func WithAfterSeed(fn func(ctx context.Context) error) Option {
	return func(s *Seeder) {
		s.afterSeed = fn
	}
}

func NewSeeder(baseURL string, client utils.HTTPClient, opts ...Option) *Seeder {
	s := &Seeder{baseURL: baseURL, client: client}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Seed sends POST /seed once. The error is only meant for logging.
func (s *Seeder) Seed(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, utils.JoinURL(s.baseURL, "/seed"), nil)
	if err != nil {
		return fmt.Errorf("failed to build seed request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("seed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("seed returned status %d", resp.StatusCode)
	}

	if s.afterSeed != nil {
		if err := s.afterSeed(ctx); err != nil {
			return fmt.Errorf("seeded, but post-seed step failed: %w", err)
		}
	}

	return nil
}

// Detached runs Seed in its own goroutine with its own timeout. Failures and
// panics are logged and dropped. The returned channel is closed when the
// attempt is over.
func Detached(ctx context.Context, seeder *Seeder, timeout time.Duration, logger *slog.Logger) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)

		defer func() {
			if r := recover(); r != nil {
				logger.Error("Seeding panicked", slog.Any("panic", r))
			}
		}()

		seedCtx, cancel := utils.WithUpstreamTimeout(ctx, timeout)
		defer cancel()

		if err := seeder.Seed(seedCtx); err != nil {
			logger.Warn("Demo data seeding failed", slog.Any("error", err))
			return
		}

		logger.Info("Demo data seeded")
	}()

	return done
}
