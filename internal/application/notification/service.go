package notification

import (
	"context"
	"errors"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/notification"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	notificationService = "notification-service"
	useCaseNotify       = "notification.order_placed"
)

// Service delivers a confirmation through every configured sender. One
// failing sender never stops the others, and nothing here reaches back into
// the order.
type Service struct {
	senders []domain.Sender
	log     observability.Logger
	tracer  observability.Tracer
	inst    application.Instruments

	sent         observability.Counter   // notifications_sent_total{sender,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewService(tel observability.Observability, senders ...domain.Sender) *Service {
	tracer, logger, metrics := observability.Parts(tel)
	kept := make([]domain.Sender, 0, len(senders))
	for _, s := range senders {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Service{
		senders:      kept,
		log:          logger.With(observability.F("service", notificationService)),
		tracer:       tracer,
		inst:         application.NewInstruments(metrics),
		sent:         metrics.Counter(observability.MNotificationsSent),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

// Senders lists the configured channel names.
func (s *Service) Senders() []string {
	out := make([]string, 0, len(s.senders))
	for _, snd := range s.senders {
		out = append(out, snd.Name())
	}
	return out
}

// Notify returns the joined sender errors for the caller to log; it has
// already attempted every sender.
func (s *Service) Notify(ctx context.Context, c domain.Confirmation) (err error) {
	ctx, run := application.Begin(ctx, s.tracer, s.log, s.inst, useCaseNotify, "NotifyOrderPlaced",
		attribute.String("order.id", c.OrderID),
	)
	run.With(observability.F("order_id", c.OrderID))
	defer func() { run.End(err) }()

	var errs []error
	delivered := 0
	for _, snd := range s.senders {
		start := time.Now()
		sendErr := snd.Send(ctx, c)
		outcome := "success"
		if sendErr != nil {
			outcome = "error"
			errs = append(errs, sendErr)
			run.Logger().Warn("notification_send_failed",
				observability.F("sender", snd.Name()),
				observability.F("order_id", c.OrderID),
				observability.F("error", sendErr),
			)
		} else {
			delivered++
		}
		s.sent.Add(1,
			observability.L("sender", snd.Name()),
			observability.L("outcome", outcome),
		)
		s.extHistogram.Observe(time.Since(start).Seconds(),
			observability.L("peer", snd.Name()),
			observability.L("endpoint", "order.confirmation"),
		)
	}

	run.With(
		observability.F("senders", len(s.senders)),
		observability.F("delivered", delivered),
	)
	if len(errs) > 0 {
		run.Fail("PARTIAL_DELIVERY")
		return errors.Join(errs...)
	}
	return nil
}
