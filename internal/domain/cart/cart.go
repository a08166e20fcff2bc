package cart

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("cart: line not found")
	ErrEmpty           = errors.New("cart: cart is empty")
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than zero")
)

// Hold is one reservation backing part of a line.
type Hold struct {
	ReservationID string
	Quantity      int
}

// Line is a product in the cart. Quantity always equals the sum of its holds.
type Line struct {
	ProductID string
	Quantity  int
	Holds     []Hold
}

// Cart belongs to exactly one session. It is not safe for concurrent use;
// callers serialize access through Store.
type Cart struct {
	SessionID string
	lines     map[string]*Line
	order     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(sessionID string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		SessionID: sessionID,
		lines:     make(map[string]*Line),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddHold records a fresh reservation against the product's line, creating
// the line when needed.
func (c *Cart) AddHold(productID string, h Hold) error {
	if h.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	line, ok := c.lines[productID]
	if !ok {
		line = &Line{ProductID: productID}
		c.lines[productID] = line
		c.order = append(c.order, productID)
	}
	line.Holds = append(line.Holds, h)
	line.Quantity += h.Quantity
	c.touch()
	return nil
}

func (c *Cart) Line(productID string) (Line, bool) {
	line, ok := c.lines[productID]
	if !ok {
		return Line{}, false
	}
	return cloneLine(line), true
}

// RemoveLine drops the line and hands back its holds for release.
func (c *Cart) RemoveLine(productID string) (Line, error) {
	line, ok := c.lines[productID]
	if !ok {
		return Line{}, ErrNotFound
	}
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.touch()
	return cloneLine(line), nil
}

// Lines returns the lines in the order they were first added.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, cloneLine(c.lines[id]))
	}
	return out
}

// Reset empties the cart and returns what it held.
func (c *Cart) Reset() []Line {
	out := c.Lines()
	c.lines = make(map[string]*Line)
	c.order = nil
	c.touch()
	return out
}

func (c *Cart) IsEmpty() bool {
	return len(c.order) == 0
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}

func cloneLine(l *Line) Line {
	clone := *l
	clone.Holds = append([]Hold(nil), l.Holds...)
	return clone
}
