package workerpresentation

import (
	"context"
	"fmt"

	appnotification "github.com/Zhima-Mochi/minishop-storefront/internal/application/notification"
	domnotification "github.com/Zhima-Mochi/minishop-storefront/internal/domain/notification"
	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

const componentNotificationWorker = "notification_worker"

// NotificationWorker turns order.placed events into customer confirmations.
type NotificationWorker struct {
	notifier *appnotification.Service
	log      observability.Logger
}

func NewNotificationWorker(notifier *appnotification.Service, logger observability.Logger) *NotificationWorker {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &NotificationWorker{
		notifier: notifier,
		log:      logger.With(observability.F("component", componentNotificationWorker)),
	}
}

// Register subscribes the worker on sub.
func (w *NotificationWorker) Register(sub domoutbox.Subscriber) {
	sub.Subscribe(domorder.OrderPlacedEvent{}.EventName(), w.handle)
}

func (w *NotificationWorker) handle(ctx context.Context, e domoutbox.Event) error {
	placed, ok := e.(domorder.OrderPlacedEvent)
	if !ok {
		return fmt.Errorf("notification worker: unexpected event %T", e)
	}
	ctx = WithEventContext(ctx, w.log, map[string]string{
		"event":    e.EventName(),
		"order_id": placed.OrderID,
	})
	// Failures are already logged per sender; nothing upstream can act on them.
	_ = w.notifier.Notify(ctx, domnotification.FromPlaced(placed))
	return nil
}
