// Package session keeps one view-state controller per browser session in memory.
// Nothing is persisted; a restart starts every visitor from Browsing.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/dine-in-preorder/internal/catalog"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/controller"
	appErrors "github.com/aaravmahajanofficial/dine-in-preorder/internal/errors"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/metrics"
	"github.com/aaravmahajanofficial/dine-in-preorder/internal/orders"
	"github.com/google/uuid"
)

type entry struct {
	ctrl     *controller.Controller
	lastSeen time.Time
}

type Store struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*entry
	catalog   catalog.Catalog
	submitter orders.Submitter
	idleTTL   time.Duration
	max       int
	now       func() time.Time
	logger    *slog.Logger
}

type StoreOption func(*Store)

// WithMaxSessions caps live sessions. Zero or less means no cap.
func WithMaxSessions(n int) StoreOption {
	return func(s *Store) {
		s.max = n
	}
}

func NewStore(catalogClient catalog.Catalog, submitter orders.Submitter, idleTTL time.Duration, opts ...StoreOption) *Store {
	s := &Store{
		sessions:  make(map[uuid.UUID]*entry),
		catalog:   catalogClient,
		submitter: submitter,
		idleTTL:   idleTTL,
		now:       time.Now,
		logger:    slog.Default().With(slog.String("component", "sessions")),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create starts a session in Browsing. When the store is full, idle sessions
// are evicted first; if none are, the session is refused.
func (s *Store) Create() (uuid.UUID, *controller.Controller, error) {
	s.mu.Lock()

	now := s.now()
	if s.full() {
		if removed := s.evictIdle(now); removed > 0 {
			s.logger.Info("Evicted idle sessions to make room", slog.Int("evicted", removed))
		}
	}

	if s.full() {
		n := len(s.sessions)
		s.mu.Unlock()

		s.logger.Warn("Session capacity reached", slog.Int("active", n))
		return uuid.Nil, nil, appErrors.SessionCapacityError("Too many active sessions, please try again shortly")
	}

	id := uuid.New()
	ctrl := controller.New(s.catalog, s.submitter)
	s.sessions[id] = &entry{ctrl: ctrl, lastSeen: now}
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.SetActiveSessions(n)

	return id, ctrl, nil
}

// full must be called with the lock held.
func (s *Store) full() bool {
	return s.max > 0 && len(s.sessions) >= s.max
}

// evictIdle must be called with the lock held.
func (s *Store) evictIdle(now time.Time) int {
	removed := 0
	for id, e := range s.sessions {
		if now.Sub(e.lastSeen) > s.idleTTL {
			delete(s.sessions, id)
			removed++
		}
	}

	return removed
}

// Get returns the session's controller and marks the session as active.
func (s *Store) Get(id uuid.UUID) (*controller.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, appErrors.NotFoundError("Session not found")
	}

	e.lastSeen = s.now()

	return e.ctrl, nil
}

func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.SetActiveSessions(n)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// Sweep drops sessions idle for longer than the idle TTL and returns how many
// were dropped.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	removed := s.evictIdle(now)
	n := len(s.sessions)

	s.mu.Unlock()

	metrics.SetActiveSessions(n)

	if removed > 0 {
		s.logger.Info("Evicted idle sessions", slog.Int("evicted", removed), slog.Int("active", n))
	}

	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}
