package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
)

// Confirmation is what a customer is told once an order is placed.
type Confirmation struct {
	OrderID       string
	Customer      order.Customer
	Lines         []order.Line
	PaymentMethod order.PaymentMethod
	Amount        int64
}

func FromPlaced(e order.OrderPlacedEvent) Confirmation {
	return Confirmation{
		OrderID:       e.OrderID,
		Customer:      e.Customer,
		Lines:         append([]order.Line(nil), e.Lines...),
		PaymentMethod: e.PaymentMethod,
		Amount:        e.Amount,
	}
}

// Sender delivers a confirmation over one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, c Confirmation) error
}

func (c Confirmation) Subject() string {
	return fmt.Sprintf("Order %s confirmed", c.OrderID)
}

// Body renders the plain-text message shared by every channel.
func (c Confirmation) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", c.Customer.Name)
	fmt.Fprintf(&b, "Thank you for your order %s.\n\n", c.OrderID)
	for _, l := range c.Lines {
		fmt.Fprintf(&b, "  %s x%d  %d\n", l.Name, l.Quantity, l.Total())
	}
	fmt.Fprintf(&b, "\nTotal: %d\n", c.Amount)
	fmt.Fprintf(&b, "Payment: %s\n", c.PaymentMethod)
	fmt.Fprintf(&b, "Deliver to: %s\n", c.Customer.Address)
	if c.Customer.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", c.Customer.Notes)
	}
	return b.String()
}
