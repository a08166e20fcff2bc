package notify

import (
	"context"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/notification"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

// LogSender writes the confirmation as a structured log line. It is always
// configured so a placed order leaves a trace even without mail or Redis.
type LogSender struct {
	log observability.Logger
}

func NewLogSender(logger observability.Logger) *LogSender {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &LogSender{log: logger}
}

func (*LogSender) Name() string { return "log" }

func (s *LogSender) Send(ctx context.Context, c notification.Confirmation) error {
	logctx.FromOr(ctx, s.log).Info("order_confirmation",
		observability.F("order_id", c.OrderID),
		observability.F("customer", c.Customer.Name),
		observability.F("email", c.Customer.Email),
		observability.F("lines", len(c.Lines)),
		observability.F("amount", c.Amount),
		observability.F("payment_method", string(c.PaymentMethod)),
	)
	return nil
}
