package memory

import (
	"context"
	"sync"
	"time"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"golang.org/x/sync/semaphore"
)

// cartEntry is a session's cart plus a weight-1 semaphore acting as its lock,
// so Acquire can give up on ctx.
type cartEntry struct {
	lock        *semaphore.Weighted
	cart        *domain.Cart
	dropped     bool
	lastTouched time.Time
}

// CartStore keeps carts in process memory, one lock per session.
type CartStore struct {
	mu      sync.Mutex
	entries map[string]*cartEntry
	now     func() time.Time
}

var _ domain.Store = (*CartStore)(nil)

func NewCartStore() *CartStore {
	return &CartStore{
		entries: make(map[string]*cartEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *CartStore) Acquire(ctx context.Context, sessionID string, create bool) (*domain.Cart, func(), error) {
	for {
		s.mu.Lock()
		e, ok := s.entries[sessionID]
		if !ok {
			if !create {
				s.mu.Unlock()
				return nil, nil, domain.ErrNoCart
			}
			e = &cartEntry{
				lock:        semaphore.NewWeighted(1),
				cart:        domain.New(sessionID),
				lastTouched: s.now(),
			}
			s.entries[sessionID] = e
		}
		s.mu.Unlock()

		if err := e.lock.Acquire(ctx, 1); err != nil {
			return nil, nil, err
		}

		// The entry may have been dropped while we waited; start over.
		s.mu.Lock()
		dropped := e.dropped
		s.mu.Unlock()
		if dropped {
			e.lock.Release(1)
			continue
		}

		var once sync.Once
		release := func() {
			once.Do(func() {
				s.mu.Lock()
				e.lastTouched = s.now()
				s.mu.Unlock()
				e.lock.Release(1)
			})
		}
		return e.cart, release, nil
	}
}

func (s *CartStore) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[sessionID]; ok {
		e.dropped = true
		delete(s.entries, sessionID)
	}
}

func (s *CartStore) IdleSessions(cutoff time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for id, e := range s.entries {
		if e.lastTouched.Before(cutoff) {
			out = append(out, id)
		}
	}
	return out
}
