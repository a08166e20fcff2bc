package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/notification"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	obsprovider "github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSender struct {
	name string
	err  error

	mu   sync.Mutex
	sent []domain.Confirmation
}

func (s *stubSender) Name() string { return s.name }

func (s *stubSender) Send(_ context.Context, c domain.Confirmation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, c)
	return s.err
}

func confirmation() domain.Confirmation {
	return domain.Confirmation{
		OrderID:       "AB12CD34",
		Customer:      order.Customer{Name: "Asha", Email: "asha@example.com", Address: "12 Temple Street"},
		Lines:         []order.Line{{ProductID: "mango", Name: "Mango Pickle", UnitPrice: 200, Quantity: 2}},
		PaymentMethod: order.PaymentCashOnDelivery,
		Amount:        400,
	}
}

func TestNotifyDeliversThroughEverySender(t *testing.T) {
	first := &stubSender{name: "log"}
	second := &stubSender{name: "smtp"}
	svc := NewService(nil, first, nil, second)

	assert.Equal(t, []string{"log", "smtp"}, svc.Senders())
	require.NoError(t, svc.Notify(context.Background(), confirmation()))
	assert.Len(t, first.sent, 1)
	assert.Len(t, second.sent, 1)
	assert.Equal(t, "AB12CD34", second.sent[0].OrderID)
}

func TestNotifyFailingSenderDoesNotStopOthers(t *testing.T) {
	reg := prometheus.NewRegistry()
	tel := obsprovider.NewPrometheus(prometrics.New(reg, "", ""), nil, observability.NopLogger())

	boom := errors.New("smtp: connection refused")
	broken := &stubSender{name: "smtp", err: boom}
	healthy := &stubSender{name: "redis"}
	svc := NewService(tel, broken, healthy)

	err := svc.Notify(context.Background(), confirmation())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, healthy.sent, 1)

	expected := `
# HELP notifications_sent_total Order confirmations handed to a sender.
# TYPE notifications_sent_total counter
notifications_sent_total{outcome="error",sender="smtp"} 1
notifications_sent_total{outcome="success",sender="redis"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "notifications_sent_total"))
}

func TestNotifyWithoutSenders(t *testing.T) {
	svc := NewService(nil)
	assert.Empty(t, svc.Senders())
	assert.NoError(t, svc.Notify(context.Background(), confirmation()))
}
