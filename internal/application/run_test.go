package application

import (
	"context"
	"errors"
	"testing"

	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (observability.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zaplogger.Wrap(zap.New(core)), logs
}

func TestRunLogsOneLinePerUseCase(t *testing.T) {
	base, logs := observed()

	ctx, run := Begin(context.Background(), nil, base, NewInstruments(nil), "cart.add", "AddToCart")
	run.With(observability.F("product_id", "mango"))
	logctx.From(ctx).Debug("inside")
	run.End(nil)

	require.Equal(t, 2, logs.Len())
	inside := logs.All()[0].ContextMap()
	assert.Equal(t, "cart.add", inside["use_case"])

	done := logs.FilterMessage("use_case_done").All()
	require.Len(t, done, 1)
	fields := done[0].ContextMap()
	assert.Equal(t, OutcomeSuccess, fields["outcome"])
	assert.Equal(t, "OK", fields["status"])
	assert.Equal(t, "mango", fields["product_id"])
	assert.Contains(t, fields, "latency_seconds")
}

func TestRunFailAndUnclassifiedErrors(t *testing.T) {
	base, logs := observed()

	_, run := Begin(context.Background(), nil, base, NewInstruments(nil), "order.place", "PlaceOrder")
	run.Fail("CART_EMPTY")
	run.End(ErrEmptyCart)

	_, run = Begin(context.Background(), nil, base, NewInstruments(nil), "order.place", "PlaceOrder")
	run.End(errors.New("boom"))

	done := logs.FilterMessage("use_case_done").All()
	require.Len(t, done, 2)
	assert.Equal(t, "CART_EMPTY", done[0].ContextMap()["status"])
	assert.Equal(t, OutcomeError, done[1].ContextMap()["outcome"])
	assert.Equal(t, "FAILED", done[1].ContextMap()["status"])
	assert.Equal(t, "boom", done[1].ContextMap()["error"])
}

func TestWrapKeepsExistingKind(t *testing.T) {
	cause := errors.New("order: id already exists")

	err := Wrap(ErrConflict, cause)
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, cause)

	assert.Same(t, err, Wrap(ErrConflict, err))
	assert.NoError(t, Wrap(ErrConflict, nil))

	assert.ErrorIs(t, ErrEmptyCart, ErrNotFound)
	assert.ErrorIs(t, ErrProductNotFound, ErrNotFound)
}
