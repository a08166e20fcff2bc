package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/notification"
	"github.com/redis/go-redis/v9"
)

const defaultChannel = "minishop:orders:placed"

// RedisPublisher fans confirmations out on a pub/sub channel for whatever
// downstream (SMS gateway, back office) subscribes.
type RedisPublisher struct {
	client  redis.Cmdable
	channel string
}

func NewRedisPublisher(client redis.Cmdable, channel string) *RedisPublisher {
	if channel == "" {
		channel = defaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (*RedisPublisher) Name() string { return "redis" }

type confirmationMessage struct {
	OrderID       string `json:"order_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"payment_method"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
}

func (p *RedisPublisher) Send(ctx context.Context, c notification.Confirmation) error {
	data, err := json.Marshal(confirmationMessage{
		OrderID:       c.OrderID,
		Name:          c.Customer.Name,
		Email:         c.Customer.Email,
		Phone:         c.Customer.Phone,
		Amount:        c.Amount,
		PaymentMethod: string(c.PaymentMethod),
		Subject:       c.Subject(),
		Body:          c.Body(),
	})
	if err != nil {
		return fmt.Errorf("redis: marshal confirmation: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("redis: publish order %s: %w", c.OrderID, err)
	}
	return nil
}
