package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSweepExpiresIdleCarts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Add(ctx, "idle", "mango", 2)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, "idle", "lemon", 1)
	require.NoError(t, err)

	sweeper := NewSweeper(f.svc, f.store, 30*time.Minute, time.Minute, nil)
	assert.Equal(t, 0, sweeper.Sweep(ctx), "nothing is idle yet")

	sweeper.now = func() time.Time { return time.Now().Add(time.Hour) }
	assert.Equal(t, 1, sweeper.Sweep(ctx))

	assert.Equal(t, 10, f.availability(t, "mango").Available)
	assert.Equal(t, 8, f.availability(t, "lemon").Available)
}

func TestSweepDisabledWithZeroTTL(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Add(ctx, "s1", "mango", 2)
	require.NoError(t, err)

	sweeper := NewSweeper(f.svc, f.store, 0, time.Minute, nil)
	sweeper.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	assert.Equal(t, 0, sweeper.Sweep(ctx))
	assert.Equal(t, 8, f.availability(t, "mango").Available)
}

func TestRunStopsWithContext(t *testing.T) {
	f := newFixture(t)
	sweeper := NewSweeper(f.svc, f.store, time.Millisecond, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
