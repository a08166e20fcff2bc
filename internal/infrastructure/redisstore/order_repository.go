package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "minishop:order:"

// OrderRepository stores each order as a JSON string under prefix+id.
// Create-if-absent rides on SET NX, updates on SET XX.
type OrderRepository struct {
	client redis.Cmdable
	prefix string
}

var _ domain.Repository = (*OrderRepository)(nil)

func NewOrderRepository(client redis.Cmdable, prefix string) *OrderRepository {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &OrderRepository{client: client, prefix: prefix}
}

type orderLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

type orderRecord struct {
	ID            string      `json:"id"`
	SessionID     string      `json:"session_id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	Address       string      `json:"address"`
	Notes         string      `json:"notes,omitempty"`
	Lines         []orderLine `json:"lines"`
	PaymentMethod string      `json:"payment_method"`
	Amount        int64       `json:"amount"`
	Status        string      `json:"status"`
	FailureReason string      `json:"failure_reason,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func toRecord(o *domain.Order) orderRecord {
	lines := make([]orderLine, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, orderLine(l))
	}
	return orderRecord{
		ID:            o.ID,
		SessionID:     o.SessionID,
		Name:          o.Customer.Name,
		Email:         o.Customer.Email,
		Phone:         o.Customer.Phone,
		Address:       o.Customer.Address,
		Notes:         o.Customer.Notes,
		Lines:         lines,
		PaymentMethod: string(o.PaymentMethod),
		Amount:        o.Amount,
		Status:        string(o.Status),
		FailureReason: o.FailureReason,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func (r orderRecord) toDomain() *domain.Order {
	lines := make([]domain.Line, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, domain.Line(l))
	}
	return &domain.Order{
		ID:        r.ID,
		SessionID: r.SessionID,
		Customer: domain.Customer{
			Name:    r.Name,
			Email:   r.Email,
			Phone:   r.Phone,
			Address: r.Address,
			Notes:   r.Notes,
		},
		Lines:         lines,
		PaymentMethod: domain.PaymentMethod(r.PaymentMethod),
		Amount:        r.Amount,
		Status:        domain.Status(r.Status),
		FailureReason: r.FailureReason,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (r *OrderRepository) key(id string) string {
	return r.prefix + id
}

func (r *OrderRepository) encode(order *domain.Order) ([]byte, error) {
	if order == nil || order.ID == "" {
		return nil, fmt.Errorf("order repository: id is required")
	}
	data, err := json.Marshal(toRecord(order))
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}
	return data, nil
}

func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	data, err := r.encode(order)
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, r.key(order.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("save order %s: %w", order.ID, err)
	}
	if !ok {
		return domain.ErrConflict
	}
	return nil
}

func (r *OrderRepository) Exists(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("check order %s: %w", id, err)
	}
	return n > 0, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", id, err)
	}
	var rec orderRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal order %s: %w", id, err)
	}
	return rec.toDomain(), nil
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	data, err := r.encode(order)
	if err != nil {
		return err
	}
	ok, err := r.client.SetXX(ctx, r.key(order.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("update order %s: %w", order.ID, err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}
