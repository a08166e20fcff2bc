package inventory

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	dominv "github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	inventoryService = "inventory-service"

	useCaseReserve = "inventory.reserve"
	useCaseRelease = "inventory.release"
	useCaseCommit  = "inventory.commit"
	useCaseRevert  = "inventory.revert"
)

// Service fronts the stock ledger with tracing, RED metrics and a stock
// movement counter. Errors come back tagged with an application error kind.
type Service struct {
	ledger    dominv.Ledger
	log       observability.Logger
	tracer    observability.Tracer
	inst      application.Instruments
	movements observability.Counter // inventory_stock_movements_total{product,kind}
}

func NewService(ledger dominv.Ledger, tel observability.Observability) *Service {
	tracer, logger, metrics := observability.Parts(tel)
	return &Service{
		ledger:    ledger,
		log:       logger.With(observability.F("service", inventoryService)),
		tracer:    tracer,
		inst:      application.NewInstruments(metrics),
		movements: metrics.Counter(observability.MStockMovements),
	}
}

// Reserve holds quantity units of productID for sessionID.
func (s *Service) Reserve(ctx context.Context, productID string, quantity int, sessionID string) (_ dominv.Reservation, err error) {
	ctx, run := application.Begin(ctx, s.tracer, s.log, s.inst, useCaseReserve, "ReserveStock",
		attribute.String("product.id", productID),
		attribute.Int("reservation.quantity", quantity),
	)
	run.With(observability.F("product_id", productID), observability.F("quantity", quantity))
	defer func() { run.End(err) }()

	res, err := s.ledger.Reserve(ctx, productID, quantity, sessionID)
	if err != nil {
		run.Fail("RESERVE_FAILED")
		run.With(observability.F("failure_reason", dominv.FailureReason(err)))
		return dominv.Reservation{}, classify(err)
	}
	run.With(observability.F("reservation_id", res.ID))
	s.moved(res, dominv.MovementReserve)
	return res, nil
}

// Release cancels a reservation. Releasing twice reports NotFound the second
// time and returns nothing to stock.
func (s *Service) Release(ctx context.Context, reservationID string) (_ dominv.Reservation, err error) {
	ctx, run := application.Begin(ctx, s.tracer, s.log, s.inst, useCaseRelease, "ReleaseStock",
		attribute.String("reservation.id", reservationID),
	)
	run.With(observability.F("reservation_id", reservationID))
	defer func() { run.End(err) }()

	res, err := s.ledger.Release(ctx, reservationID)
	if err != nil {
		run.Fail("RELEASE_FAILED")
		return dominv.Reservation{}, classify(err)
	}
	s.moved(res, dominv.MovementRelease)
	return res, nil
}

// Commit turns a reservation into a permanent stock decrement.
func (s *Service) Commit(ctx context.Context, reservationID string) (_ dominv.Reservation, err error) {
	ctx, run := application.Begin(ctx, s.tracer, s.log, s.inst, useCaseCommit, "CommitStock",
		attribute.String("reservation.id", reservationID),
	)
	run.With(observability.F("reservation_id", reservationID))
	defer func() { run.End(err) }()

	res, err := s.ledger.Commit(ctx, reservationID)
	if err != nil {
		run.Fail("COMMIT_FAILED")
		return dominv.Reservation{}, classify(err)
	}
	s.moved(res, dominv.MovementCommit)
	return res, nil
}

// Revert compensates a Commit that belongs to a checkout being unwound.
func (s *Service) Revert(ctx context.Context, committed dominv.Reservation) (err error) {
	ctx, run := application.Begin(ctx, s.tracer, s.log, s.inst, useCaseRevert, "RevertStock",
		attribute.String("reservation.id", committed.ID),
		attribute.String("product.id", committed.ProductID),
	)
	run.With(
		observability.F("reservation_id", committed.ID),
		observability.F("product_id", committed.ProductID),
		observability.F("quantity", committed.Quantity),
	)
	defer func() { run.End(err) }()

	if err = s.ledger.Revert(ctx, committed); err != nil {
		run.Fail("REVERT_FAILED")
		return classify(err)
	}
	s.moved(committed, dominv.MovementRevert)
	return nil
}

// Lookup returns an open reservation.
func (s *Service) Lookup(ctx context.Context, reservationID string) (dominv.Reservation, error) {
	res, err := s.ledger.Lookup(ctx, reservationID)
	if err != nil {
		return dominv.Reservation{}, classify(err)
	}
	return res, nil
}

// Availability reports stock, reserved and available units for a product.
func (s *Service) Availability(ctx context.Context, productID string) (dominv.Availability, error) {
	a, err := s.ledger.Availability(ctx, productID)
	if err != nil {
		return dominv.Availability{}, classify(err)
	}
	return a, nil
}

func (s *Service) moved(res dominv.Reservation, kind string) {
	s.movements.Add(float64(res.Quantity),
		observability.L("product", res.ProductID),
		observability.L("kind", kind),
	)
}

func classify(err error) error {
	switch {
	case errors.Is(err, dominv.ErrInsufficientStock):
		return application.Wrap(application.ErrOutOfStock, err)
	case errors.Is(err, dominv.ErrProductNotFound):
		return application.Wrap(application.ErrProductNotFound, err)
	case errors.Is(err, dominv.ErrNotFound):
		return application.Wrap(application.ErrNotFound, err)
	case errors.Is(err, dominv.ErrInvalidQuantity):
		return application.Wrap(application.ErrInvalidQuantity, err)
	default:
		return err
	}
}
