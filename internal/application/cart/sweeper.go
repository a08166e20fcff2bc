package cart

import (
	"context"
	"time"

	domcart "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

const componentSweeper = "cart_sweeper"

// Sweeper expires carts left idle for longer than a TTL, releasing their
// reservations. The ledger itself never expires anything.
type Sweeper struct {
	carts    *Service
	store    domcart.Store
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	log      observability.Logger
}

func NewSweeper(carts *Service, store domcart.Store, ttl, interval time.Duration, logger observability.Logger) *Sweeper {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Sweeper{
		carts:    carts,
		store:    store,
		ttl:      ttl,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
		log:      logger.With(observability.F("component", componentSweeper)),
	}
}

// Sweep expires every cart idle past the TTL and reports how many it expired.
func (s *Sweeper) Sweep(ctx context.Context) int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)
	expired := 0
	for _, sessionID := range s.store.IdleSessions(cutoff) {
		ok, err := s.carts.Expire(ctx, sessionID, cutoff)
		if err != nil {
			s.log.Warn("cart_expire_failed",
				observability.F("session_id", sessionID),
				observability.F("error", err),
			)
			continue
		}
		if ok {
			expired++
		}
	}
	if expired > 0 {
		s.log.Info("carts_expired", observability.F("count", expired))
	}
	return expired
}

// Run sweeps on every tick until ctx is done. A zero TTL or interval
// disables sweeping and Run just waits.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.ttl <= 0 || s.interval <= 0 {
		s.log.Info("cart_sweeper_disabled")
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("cart_sweeper_started",
		observability.F("ttl_seconds", s.ttl.Seconds()),
		observability.F("interval_seconds", s.interval.Seconds()),
	)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("cart_sweeper_stopped")
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}
