package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireCreatesOnDemand(t *testing.T) {
	ctx := context.Background()
	s := NewCartStore()

	_, _, err := s.Acquire(ctx, "s1", false)
	assert.ErrorIs(t, err, domain.ErrNoCart)

	c, release, err := s.Acquire(ctx, "s1", true)
	require.NoError(t, err)
	require.NoError(t, c.AddHold("mango", domain.Hold{ReservationID: "r1", Quantity: 1}))
	release()

	c2, release2, err := s.Acquire(ctx, "s1", false)
	require.NoError(t, err)
	defer release2()
	assert.Same(t, c, c2)
}

func TestAcquireSerializesSession(t *testing.T) {
	ctx := context.Background()
	s := NewCartStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, release, err := s.Acquire(ctx, "s1", true)
			if !assert.NoError(t, err) {
				return
			}
			defer release()
			// Unsynchronized map access inside Cart; the race detector flags
			// any overlap.
			_ = c.AddHold("mango", domain.Hold{ReservationID: "r", Quantity: 1})
		}()
	}
	wg.Wait()

	c, release, err := s.Acquire(ctx, "s1", false)
	require.NoError(t, err)
	defer release()
	line, _ := c.Line("mango")
	assert.Equal(t, 20, line.Quantity)
}

func TestAcquireHonoursContext(t *testing.T) {
	s := NewCartStore()
	_, release, err := s.Acquire(context.Background(), "s1", true)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err = s.Acquire(ctx, "s1", true)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDropWhileWaiting(t *testing.T) {
	ctx := context.Background()
	s := NewCartStore()

	c, release, err := s.Acquire(ctx, "s1", true)
	require.NoError(t, err)
	require.NoError(t, c.AddHold("mango", domain.Hold{ReservationID: "r1", Quantity: 1}))

	got := make(chan error, 1)
	go func() {
		_, _, err := s.Acquire(ctx, "s1", false)
		got <- err
	}()

	time.Sleep(10 * time.Millisecond)
	s.Drop("s1")
	release()

	assert.ErrorIs(t, <-got, domain.ErrNoCart)
}

func TestCartStoreReleaseIsIdempotent(t *testing.T) {
	s := NewCartStore()
	_, release, err := s.Acquire(context.Background(), "s1", true)
	require.NoError(t, err)
	release()
	release()

	_, release2, err := s.Acquire(context.Background(), "s1", false)
	require.NoError(t, err)
	release2()
}

func TestIdleSessions(t *testing.T) {
	s := NewCartStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, release, err := s.Acquire(context.Background(), "old", true)
	require.NoError(t, err)
	release()

	now = now.Add(time.Hour)
	_, release, err = s.Acquire(context.Background(), "new", true)
	require.NoError(t, err)
	release()

	assert.Equal(t, []string{"old"}, s.IdleSessions(now.Add(-30*time.Minute)))
}
