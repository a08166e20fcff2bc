package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	domcart "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	domcatalog "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	dominv "github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	orderService      = "order-service"
	useCasePlaceOrder = "order.place"
	publishPeer       = "outbox"

	DefaultIDAttempts     = 5
	DefaultPublishTimeout = 300 * time.Millisecond
)

// StockCommitter is the part of the inventory service checkout drives.
type StockCommitter interface {
	Lookup(ctx context.Context, reservationID string) (dominv.Reservation, error)
	Commit(ctx context.Context, reservationID string) (dominv.Reservation, error)
	Revert(ctx context.Context, committed dominv.Reservation) error
}

// Options tunes PlaceOrderUseCase. Zero values fall back to the defaults.
type Options struct {
	IDAttempts     int
	PublishTimeout time.Duration
}

// PlaceOrderUseCase turns a session's reservations into a committed sale.
// The session cart stays locked for the whole checkout, so two checkouts of
// one cart serialize and the second finds it empty.
type PlaceOrderUseCase struct {
	repo        domain.Repository
	carts       domcart.Store
	catalog     domcatalog.Repository
	stock       StockCommitter
	idGenerator IDGenerator
	publisher   domoutbox.Publisher

	idAttempts     int
	publishTimeout time.Duration

	log    observability.Logger
	tracer observability.Tracer
	inst   application.Instruments

	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

var _ application.UseCase[PlaceOrderInput, *PlaceOrderResult] = (*PlaceOrderUseCase)(nil)

func NewPlaceOrderUseCase(
	repo domain.Repository,
	carts domcart.Store,
	catalog domcatalog.Repository,
	stock StockCommitter,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
	opts Options,
) *PlaceOrderUseCase {
	tracer, logger, metrics := observability.Parts(tel)
	if idGen == nil {
		idGen = NewTokenGenerator()
	}
	if opts.IDAttempts <= 0 {
		opts.IDAttempts = DefaultIDAttempts
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = DefaultPublishTimeout
	}
	return &PlaceOrderUseCase{
		repo:           repo,
		carts:          carts,
		catalog:        catalog,
		stock:          stock,
		idGenerator:    idGen,
		publisher:      publisher,
		idAttempts:     opts.IDAttempts,
		publishTimeout: opts.PublishTimeout,
		log:            logger.With(observability.F("service", orderService)),
		tracer:         tracer,
		inst:           application.NewInstruments(metrics),
		extCounter:     metrics.Counter(observability.MExternalRequests),
		extHistogram:   metrics.Histogram(observability.MExternalRequestDuration),
	}
}

type PlaceOrderInput struct {
	SessionID     string
	Customer      domain.Customer
	PaymentMethod domain.PaymentMethod
}

type PlaceOrderResult struct {
	Order *domain.Order
}

// Execute validates the customer, re-checks the cart's reservations,
// persists the order, commits stock and empties the cart. A commit failure
// reverts whatever this checkout already committed and marks the order
// failed.
func (uc *PlaceOrderUseCase) Execute(ctx context.Context, cmd PlaceOrderInput) (_ *PlaceOrderResult, err error) {
	ctx, run := application.Begin(ctx, uc.tracer, uc.log, uc.inst, useCasePlaceOrder, "PlaceOrder",
		attribute.String("session.id", cmd.SessionID),
		attribute.String("order.payment_method", string(cmd.PaymentMethod)),
	)
	run.With(observability.F("session_id", cmd.SessionID))
	defer func() { run.End(err) }()
	span := run.Span()

	if err := cmd.Customer.Validate(cmd.PaymentMethod); err != nil {
		run.Fail("VALIDATION_FAILED")
		return nil, application.Wrap(application.ErrValidation, err)
	}

	c, release, err := uc.carts.Acquire(ctx, cmd.SessionID, false)
	if errors.Is(err, domcart.ErrNoCart) {
		run.Fail("CART_EMPTY")
		return nil, application.ErrEmptyCart
	}
	if err != nil {
		run.Fail("CART_UNAVAILABLE")
		return nil, err
	}
	defer release()

	if c.IsEmpty() {
		run.Fail("CART_EMPTY")
		return nil, application.ErrEmptyCart
	}
	cartLines := c.Lines()

	if err := uc.verifyHolds(ctx, cartLines); err != nil {
		run.Fail("RESERVATION_MISSING")
		return nil, err
	}

	lines, err := uc.snapshot(ctx, cartLines)
	if err != nil {
		run.Fail("PRODUCT_LOOKUP_FAILED")
		return nil, err
	}

	entity, err := uc.persist(ctx, cmd, lines)
	if err != nil {
		run.Fail("PERSIST_FAILED")
		return nil, err
	}
	run.With(observability.F("order_id", entity.ID))
	span.SetAttributes(attribute.String("order.id", entity.ID))

	if err := uc.commit(ctx, run, entity, cartLines); err != nil {
		run.Fail("COMMIT_FAILED")
		return nil, err
	}

	// Reservations are consumed; dropping the lines must not release them.
	c.Reset()
	uc.carts.Drop(cmd.SessionID)

	span.SetAttributes(attribute.String("order.status", string(entity.Status)))
	span.AddEvent("order.placed", trace.WithAttributes(
		attribute.String("order.id", entity.ID),
		attribute.Int64("order.amount", entity.Amount),
	))
	run.With(observability.F("amount", entity.Amount))

	if perr := uc.publish(ctx, domain.NewOrderPlacedEvent(entity)); perr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
		run.With(observability.F("event_publish_error", perr.Error()))
	}

	return &PlaceOrderResult{Order: entity.Clone()}, nil
}

// verifyHolds checks that every hold still names a live reservation for
// the same product and that each line's holds add up to its quantity.
func (uc *PlaceOrderUseCase) verifyHolds(ctx context.Context, lines []domcart.Line) error {
	for _, line := range lines {
		held := 0
		for _, h := range line.Holds {
			res, err := uc.stock.Lookup(ctx, h.ReservationID)
			if err != nil {
				return fmt.Errorf("%w: reservation %s for %s: %w", application.ErrOutOfStock, h.ReservationID, line.ProductID, err)
			}
			if res.ProductID != line.ProductID || res.Quantity != h.Quantity {
				return fmt.Errorf("%w: reservation %s does not back %s", application.ErrOutOfStock, h.ReservationID, line.ProductID)
			}
			held += res.Quantity
		}
		if held != line.Quantity {
			return fmt.Errorf("%w: %s holds %d of %d units", application.ErrOutOfStock, line.ProductID, held, line.Quantity)
		}
	}
	return nil
}

// snapshot freezes name and unit price as the cart shows them now.
func (uc *PlaceOrderUseCase) snapshot(ctx context.Context, lines []domcart.Line) ([]domain.Line, error) {
	out := make([]domain.Line, 0, len(lines))
	for _, line := range lines {
		p, err := uc.catalog.Get(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, domcatalog.ErrNotFound) {
				return nil, application.Wrap(application.ErrProductNotFound, err)
			}
			return nil, err
		}
		out = append(out, domain.Line{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  line.Quantity,
		})
	}
	return out, nil
}

// persist saves the order under a fresh id, retrying on collisions a
// bounded number of times.
func (uc *PlaceOrderUseCase) persist(ctx context.Context, cmd PlaceOrderInput, lines []domain.Line) (*domain.Order, error) {
	for attempt := 1; attempt <= uc.idAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := uc.idGenerator.NewID()

		taken, err := uc.repo.Exists(ctx, id)
		if err != nil {
			return nil, application.Wrap(application.ErrPersistence, err)
		}
		if taken {
			uc.log.Debug("order_id_collision", observability.F("order_id", id), observability.F("attempt", attempt))
			continue
		}

		entity, err := domain.New(id, cmd.SessionID, cmd.Customer, cmd.PaymentMethod, lines)
		if err != nil {
			return nil, fmt.Errorf("order: construct: %w", err)
		}

		err = uc.repo.Save(ctx, entity)
		switch {
		case err == nil:
			return entity, nil
		case errors.Is(err, domain.ErrConflict):
			uc.log.Debug("order_id_collision", observability.F("order_id", id), observability.F("attempt", attempt))
			continue
		default:
			return nil, application.Wrap(application.ErrPersistence, err)
		}
	}
	return nil, fmt.Errorf("%w: no free order id after %d attempts", application.ErrPersistence, uc.idAttempts)
}

// commit consumes every hold. On the first failure it reverts the holds
// already consumed by this checkout, marks the order failed and reports
// out of stock.
func (uc *PlaceOrderUseCase) commit(ctx context.Context, run *application.Run, entity *domain.Order, lines []domcart.Line) error {
	// Compensation must run to completion even if the caller gives up.
	ctx = context.WithoutCancel(ctx)

	var committed []dominv.Reservation
	for _, line := range lines {
		for _, h := range line.Holds {
			res, err := uc.stock.Commit(ctx, h.ReservationID)
			if err == nil {
				committed = append(committed, res)
				continue
			}

			reverted := uc.revert(ctx, run, committed)
			run.With(
				observability.F("reverted", reverted),
				observability.F("failed_reservation_id", h.ReservationID),
			)
			uc.markFailed(ctx, run, entity, dominv.FailureReason(err))
			return fmt.Errorf("%w: commit %s for %s: %w", application.ErrOutOfStock, h.ReservationID, line.ProductID, err)
		}
	}
	return nil
}

func (uc *PlaceOrderUseCase) revert(ctx context.Context, run *application.Run, committed []dominv.Reservation) int {
	reverted := 0
	for i := len(committed) - 1; i >= 0; i-- {
		res := committed[i]
		if err := uc.stock.Revert(ctx, res); err != nil {
			run.Logger().Error("stock_revert_failed",
				observability.F("reservation_id", res.ID),
				observability.F("product_id", res.ProductID),
				observability.F("quantity", res.Quantity),
				observability.F("error", err),
			)
			continue
		}
		reverted++
	}
	return reverted
}

func (uc *PlaceOrderUseCase) markFailed(ctx context.Context, run *application.Run, entity *domain.Order, reason string) {
	if err := entity.MarkFailed(reason); err != nil {
		return
	}
	if err := uc.repo.Update(ctx, entity); err != nil {
		run.Logger().Error("order_mark_failed_error",
			observability.F("order_id", entity.ID),
			observability.F("error", err),
		)
	}
	if err := uc.publish(ctx, domain.NewOrderFailedEvent(entity)); err != nil {
		run.With(observability.F("failure_event_error", err.Error()))
	}
}

// publish hands the event to the bus. Delivery is best effort and never
// affects the order.
func (uc *PlaceOrderUseCase) publish(ctx context.Context, event domoutbox.Event) error {
	if uc.publisher == nil || event == nil {
		return nil
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.publishTimeout)
	defer cancel()

	start := time.Now()
	err := uc.publisher.Publish(pubCtx, event)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}

	endpoint := event.EventName()
	uc.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	uc.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpoint),
	)
	return err
}
