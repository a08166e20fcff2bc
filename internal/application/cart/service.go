package cart

import (
	"context"
	"errors"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	domcart "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
	domcatalog "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	dominv "github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
)

const (
	cartService = "cart-service"

	useCaseAdd    = "cart.add"
	useCaseRemove = "cart.remove"
	useCaseClear  = "cart.clear"
	useCaseExpire = "cart.expire"
)

// StockKeeper is the part of the inventory service a cart drives.
type StockKeeper interface {
	Reserve(ctx context.Context, productID string, quantity int, sessionID string) (dominv.Reservation, error)
	Release(ctx context.Context, reservationID string) (dominv.Reservation, error)
}

// LineView is one displayed cart line, priced from the live catalog.
type LineView struct {
	Product   domcatalog.Product
	Quantity  int
	LineTotal int64
}

// View is the computed cart shown to the customer.
type View struct {
	SessionID string
	Lines     []LineView
	Total     int64
}

// Service keeps every cart line backed by reservations of the same quantity.
type Service struct {
	catalog domcatalog.Repository
	stock   StockKeeper
	store   domcart.Store
	log     observability.Logger
	tracer  observability.Tracer
	inst    application.Instruments
}

func NewService(catalog domcatalog.Repository, stock StockKeeper, store domcart.Store, tel observability.Observability) *Service {
	tracer, logger, metrics := observability.Parts(tel)
	return &Service{
		catalog: catalog,
		stock:   stock,
		store:   store,
		log:     logger.With(observability.F("service", cartService)),
		tracer:  tracer,
		inst:    application.NewInstruments(metrics),
	}
}

// Add reserves quantity units and records the reservation on the line. On
// any failure after the reservation the hold is released again, so the
// cart and the ledger never diverge.
func (s *Service) Add(ctx context.Context, sessionID, productID string, quantity int) (_ View, err error) {
	ctx, run := s.begin(ctx, useCaseAdd, "AddToCart", sessionID,
		attribute.String("product.id", productID),
		attribute.Int("cart.quantity", quantity),
	)
	run.With(observability.F("product_id", productID), observability.F("quantity", quantity))
	defer func() { run.End(err) }()

	if quantity <= 0 {
		run.Fail("QUANTITY_INVALID")
		return View{}, application.ErrInvalidQuantity
	}
	if _, err := s.catalog.Get(ctx, productID); err != nil {
		run.Fail("PRODUCT_NOT_FOUND")
		if errors.Is(err, domcatalog.ErrNotFound) {
			return View{}, application.Wrap(application.ErrProductNotFound, err)
		}
		return View{}, err
	}

	c, release, err := s.store.Acquire(ctx, sessionID, true)
	if err != nil {
		run.Fail("CART_UNAVAILABLE")
		return View{}, err
	}
	defer release()
	// A failed first add must not leave an empty cart behind.
	defer func() {
		if err != nil && c.IsEmpty() {
			s.store.Drop(sessionID)
		}
	}()

	res, err := s.stock.Reserve(ctx, productID, quantity, sessionID)
	if err != nil {
		run.Fail("RESERVE_FAILED")
		return View{}, err
	}

	kept := false
	defer func() {
		if kept {
			return
		}
		// The request context may already be gone; the hold must still go.
		if _, relErr := s.stock.Release(context.WithoutCancel(ctx), res.ID); relErr != nil {
			run.Logger().Warn("orphan_reservation_release_failed",
				observability.F("reservation_id", res.ID),
				observability.F("error", relErr),
			)
		}
	}()

	if err := ctx.Err(); err != nil {
		run.Fail("CONTEXT_CANCELED")
		return View{}, err
	}
	if err := c.AddHold(productID, domcart.Hold{ReservationID: res.ID, Quantity: res.Quantity}); err != nil {
		run.Fail("CART_UPDATE_FAILED")
		return View{}, err
	}
	kept = true

	run.Span().AddEvent("cart.line_added")
	return s.view(ctx, c), nil
}

// Remove drops a line and releases every reservation behind it.
func (s *Service) Remove(ctx context.Context, sessionID, productID string) (err error) {
	ctx, run := s.begin(ctx, useCaseRemove, "RemoveFromCart", sessionID,
		attribute.String("product.id", productID),
	)
	run.With(observability.F("product_id", productID))
	defer func() { run.End(err) }()

	c, release, err := s.store.Acquire(ctx, sessionID, false)
	if err != nil {
		run.Fail("LINE_NOT_FOUND")
		return s.missingCart(err)
	}
	defer release()

	line, err := c.RemoveLine(productID)
	if err != nil {
		run.Fail("LINE_NOT_FOUND")
		return application.Wrap(application.ErrNotFound, err)
	}
	s.releaseHolds(ctx, []domcart.Line{line})
	return nil
}

// Clear releases every reservation in the cart and empties it. Clearing an
// unknown or empty cart is a no-op.
func (s *Service) Clear(ctx context.Context, sessionID string) (err error) {
	ctx, run := s.begin(ctx, useCaseClear, "ClearCart", sessionID)
	defer func() { run.End(err) }()

	c, release, err := s.store.Acquire(ctx, sessionID, false)
	if errors.Is(err, domcart.ErrNoCart) {
		run.Status("NO_CART")
		return nil
	}
	if err != nil {
		run.Fail("CART_UNAVAILABLE")
		return err
	}
	defer release()

	lines := c.Reset()
	s.releaseHolds(ctx, lines)
	run.With(observability.F("lines", len(lines)))
	return nil
}

// Expire is Clear for an abandoned session: the cart is dropped afterwards.
// A cart modified after cutoff is left alone; a zero cutoff expires
// unconditionally.
func (s *Service) Expire(ctx context.Context, sessionID string, cutoff time.Time) (expired bool, err error) {
	ctx, run := s.begin(ctx, useCaseExpire, "ExpireCart", sessionID)
	defer func() { run.End(err) }()

	c, release, err := s.store.Acquire(ctx, sessionID, false)
	if errors.Is(err, domcart.ErrNoCart) {
		run.Status("NO_CART")
		return false, nil
	}
	if err != nil {
		run.Fail("CART_UNAVAILABLE")
		return false, err
	}
	defer release()

	if !cutoff.IsZero() && c.UpdatedAt.After(cutoff) {
		run.Status("ACTIVE")
		return false, nil
	}
	lines := c.Reset()
	s.releaseHolds(ctx, lines)
	s.store.Drop(sessionID)
	run.With(observability.F("lines", len(lines)))
	return true, nil
}

// Lines returns the cart with prices read from the catalog right now.
func (s *Service) Lines(ctx context.Context, sessionID string) (View, error) {
	c, release, err := s.store.Acquire(ctx, sessionID, false)
	if errors.Is(err, domcart.ErrNoCart) {
		return View{SessionID: sessionID, Lines: []LineView{}}, nil
	}
	if err != nil {
		return View{}, err
	}
	defer release()
	return s.view(ctx, c), nil
}

func (s *Service) view(ctx context.Context, c *domcart.Cart) View {
	v := View{SessionID: c.SessionID, Lines: make([]LineView, 0)}
	for _, line := range c.Lines() {
		p, err := s.catalog.Get(ctx, line.ProductID)
		if err != nil {
			logctx.FromOr(ctx, s.log).Warn("cart_line_product_missing",
				observability.F("product_id", line.ProductID),
				observability.F("error", err),
			)
			p = domcatalog.Product{ID: line.ProductID}
		}
		total := p.Price * int64(line.Quantity)
		v.Lines = append(v.Lines, LineView{Product: p, Quantity: line.Quantity, LineTotal: total})
		v.Total += total
	}
	return v
}

// releaseHolds tolerates holds whose reservation is already gone.
func (s *Service) releaseHolds(ctx context.Context, lines []domcart.Line) {
	logger := logctx.FromOr(ctx, s.log)
	ctx = context.WithoutCancel(ctx)
	for _, line := range lines {
		for _, h := range line.Holds {
			if _, err := s.stock.Release(ctx, h.ReservationID); err != nil && !errors.Is(err, application.ErrNotFound) {
				logger.Warn("reservation_release_failed",
					observability.F("reservation_id", h.ReservationID),
					observability.F("product_id", line.ProductID),
					observability.F("error", err),
				)
			}
		}
	}
}

func (s *Service) missingCart(err error) error {
	if errors.Is(err, domcart.ErrNoCart) {
		return application.Wrap(application.ErrNotFound, err)
	}
	return err
}

func (s *Service) begin(ctx context.Context, useCase, spanName, sessionID string, attrs ...attribute.KeyValue) (context.Context, *application.Run) {
	attrs = append(attrs, attribute.String("session.id", sessionID))
	ctx, run := application.Begin(ctx, s.tracer, s.log, s.inst, useCase, spanName, attrs...)
	run.With(observability.F("session_id", sessionID))
	return ctx, run
}
