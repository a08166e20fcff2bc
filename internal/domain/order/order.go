package order

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

var (
	ErrNotFound                 = errors.New("order: not found")
	ErrConflict                 = errors.New("order: id already exists")
	ErrValidation               = errors.New("order: validation failed")
	ErrInvalidQuantity          = errors.New("order: quantity must be greater than zero")
	ErrInvalidAmount            = errors.New("order: amount must be zero or greater")
	ErrNoLines                  = errors.New("order: at least one line is required")
	ErrInvalidStateTransition   = errors.New("order: invalid state transition")
	ErrUnsupportedPaymentMethod = errors.New("order: unsupported payment method")
)

type Status string

const (
	StatusPlaced Status = "placed"
	StatusFailed Status = "failed"
)

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cod"
	PaymentUPI            PaymentMethod = "upi"
	PaymentCard           PaymentMethod = "card"
	PaymentNetBanking     PaymentMethod = "netbanking"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCashOnDelivery, PaymentUPI, PaymentCard, PaymentNetBanking:
		return true
	}
	return false
}

// Customer carries the checkout contact fields.
type Customer struct {
	Name    string
	Email   string
	Phone   string
	Address string
	Notes   string
}

// Validate reports every missing or malformed field at once.
func (c Customer) Validate(method PaymentMethod) error {
	var problems []string
	if strings.TrimSpace(c.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		problems = append(problems, "email is required")
	} else if addr, err := mail.ParseAddress(c.Email); err != nil || addr.Address != strings.TrimSpace(c.Email) {
		// Only a bare addr-spec is usable as an SMTP recipient.
		problems = append(problems, "email is malformed")
	}
	if strings.TrimSpace(c.Phone) == "" {
		problems = append(problems, "phone is required")
	}
	if strings.TrimSpace(c.Address) == "" {
		problems = append(problems, "address is required")
	}
	if method == "" {
		problems = append(problems, "payment method is required")
	} else if !method.Valid() {
		problems = append(problems, ErrUnsupportedPaymentMethod.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, ", "))
	}
	return nil
}

// Line freezes the price a product was sold at.
type Line struct {
	ProductID string
	Name      string
	UnitPrice int64
	Quantity  int
}

func (l Line) Total() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

type Order struct {
	ID            string
	SessionID     string
	Customer      Customer
	Lines         []Line
	PaymentMethod PaymentMethod
	Amount        int64
	Status        Status
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func New(id, sessionID string, customer Customer, method PaymentMethod, lines []Line) (*Order, error) {
	if id == "" {
		return nil, errors.New("order: id is required")
	}
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	var amount int64
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if l.UnitPrice < 0 {
			return nil, ErrInvalidAmount
		}
		amount += l.Total()
	}

	now := time.Now().UTC()
	return &Order{
		ID:            id,
		SessionID:     sessionID,
		Customer:      customer,
		Lines:         append([]Line(nil), lines...),
		PaymentMethod: method,
		Amount:        amount,
		Status:        StatusPlaced,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// MarkFailed is the only transition an order allows: a placed order whose
// stock could not be committed.
func (o *Order) MarkFailed(reason string) error {
	if o.Status != StatusPlaced {
		return ErrInvalidStateTransition
	}
	o.Status = StatusFailed
	o.FailureReason = reason
	o.touch()
	return nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Lines = append([]Line(nil), o.Lines...)
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
