package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func retryTestConsumer() *Consumer {
	return &Consumer{logger: zap.NewNop(), retryDelay: time.Millisecond}
}

func TestHandleWithRetryRecovers(t *testing.T) {
	c := retryTestConsumer()
	attempts := 0

	err := c.handleWithRetry(context.Background(), func(ctx context.Context, msg kafkago.Message) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient store error")
		}
		return nil
	}, kafkago.Message{Topic: "gateway.events"})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestHandleWithRetryExhausts(t *testing.T) {
	c := retryTestConsumer()
	attempts := 0
	handlerErr := errors.New("store unavailable")

	err := c.handleWithRetry(context.Background(), func(ctx context.Context, msg kafkago.Message) error {
		attempts++
		return handlerErr
	}, kafkago.Message{Topic: "gateway.events"})

	// The failed message's offset stays uncommitted; the error propagates
	// instead of later offsets leapfrogging it.
	assert.ErrorIs(t, err, handlerErr)
	assert.Equal(t, maxHandlerAttempts, attempts)
}

func TestHandleWithRetryStopsOnCancel(t *testing.T) {
	c := retryTestConsumer()
	c.retryDelay = time.Minute
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := c.handleWithRetry(ctx, func(ctx context.Context, msg kafkago.Message) error {
		attempts++
		return errors.New("transient store error")
	}, kafkago.Message{Topic: "gateway.events"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestCloudEventRoundTrip(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	ce, err := NewCloudEvent("service-reservation", "reservation.confirmed", payload{Name: "RSV-ABC234", Count: 2})
	require.NoError(t, err)
	assert.NotEmpty(t, ce.ID)
	assert.Equal(t, "1.0", ce.SpecVersion)

	var out payload
	require.NoError(t, ce.ParseData(&out))
	assert.Equal(t, "RSV-ABC234", out.Name)
	assert.Equal(t, 2, out.Count)
}
