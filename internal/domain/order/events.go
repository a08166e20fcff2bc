package order

import "time"

// OrderPlacedEvent announces a committed order to notification handlers.
type OrderPlacedEvent struct {
	OrderID       string
	SessionID     string
	Customer      Customer
	Lines         []Line
	PaymentMethod PaymentMethod
	Amount        int64
	OccurredAt    time.Time
}

func (OrderPlacedEvent) EventName() string { return "order.placed" }

func NewOrderPlacedEvent(o *Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:       o.ID,
		SessionID:     o.SessionID,
		Customer:      o.Customer,
		Lines:         append([]Line(nil), o.Lines...),
		PaymentMethod: o.PaymentMethod,
		Amount:        o.Amount,
		OccurredAt:    time.Now().UTC(),
	}
}

// OrderFailedEvent is emitted when a placed order had to be compensated.
type OrderFailedEvent struct {
	OrderID    string
	Reason     string
	OccurredAt time.Time
}

func (OrderFailedEvent) EventName() string { return "order.failed" }

func NewOrderFailedEvent(o *Order) OrderFailedEvent {
	return OrderFailedEvent{
		OrderID:    o.ID,
		Reason:     o.FailureReason,
		OccurredAt: time.Now().UTC(),
	}
}
