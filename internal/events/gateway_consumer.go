package events

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/stayflow/service-reservation/internal/application"
	"github.com/stayflow/service-reservation/internal/pkg/domain"
	"github.com/stayflow/service-reservation/internal/pkg/events"
	"github.com/stayflow/service-reservation/internal/pkg/kafka"
)

// GatewayEventConsumer listens to payment gateway events and settles the
// entity each capture pays for.
type GatewayEventConsumer struct {
	consumer *kafka.Consumer
	bookings *application.BookingService
	wallets  *application.WalletService
	logger   *zap.Logger
}

// NewGatewayEventConsumer creates a new GatewayEventConsumer.
func NewGatewayEventConsumer(
	brokers []string,
	groupID string,
	bookings *application.BookingService,
	wallets *application.WalletService,
	logger *zap.Logger,
) *GatewayEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicGatewayEvents, logger)
	return &GatewayEventConsumer{
		consumer: consumer,
		bookings: bookings,
		wallets:  wallets,
		logger:   logger,
	}
}

// Start begins consuming gateway events. This blocks until the context is
// cancelled.
func (c *GatewayEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *GatewayEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *GatewayEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from gateway topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.PaymentCaptured:
		return c.handlePaymentCaptured(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled gateway event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

// handlePaymentCaptured dispatches a capture by its settlement purpose. The
// purpose set is closed; unknown purposes are dropped loudly rather than
// guessed at.
func (c *GatewayEventConsumer) handlePaymentCaptured(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.PaymentCapturedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentCapturedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing payment captured event",
		zap.String("purpose", string(evt.Purpose)),
		zap.String("reference_id", evt.ReferenceID.String()),
		zap.Int64("amount_cents", evt.AmountCents),
	)

	switch evt.Purpose {
	case events.PurposeBooking:
		return c.settleBooking(ctx, evt)
	case events.PurposeWalletTopup:
		return c.retryable(c.wallets.TopupFromGateway(ctx, evt.ReferenceID, evt.AmountCents, evt.GatewayRef))
	case events.PurposeSubscription:
		// Subscriptions are settled by the subscription service; this
		// consumer only acknowledges them.
		c.logger.Debug("skipping subscription capture",
			zap.String("reference_id", evt.ReferenceID.String()),
		)
		return nil
	default:
		c.logger.Error("unknown settlement purpose, dropping event",
			zap.String("purpose", string(evt.Purpose)),
			zap.String("reference_id", evt.ReferenceID.String()),
		)
		return nil
	}
}

func (c *GatewayEventConsumer) settleBooking(ctx context.Context, evt events.PaymentCapturedEvent) error {
	_, err := c.bookings.SettleExternalPayment(ctx, evt.ReferenceID, evt.AmountCents)
	if err == nil {
		c.logger.Info("booking settled from gateway capture",
			zap.String("booking_id", evt.ReferenceID.String()),
		)
		return nil
	}

	// Redelivered captures hit an already-settled booking; committing them
	// keeps the handler idempotent. Amount mismatches cannot succeed on
	// retry either.
	if domain.HasCode(err, domain.CodeInvalidState) || domain.HasCode(err, domain.CodeValidation) || domain.HasCode(err, domain.CodeNotFound) {
		c.logger.Warn("dropping unsettleable gateway capture",
			zap.String("booking_id", evt.ReferenceID.String()),
			zap.Error(err),
		)
		return nil
	}

	c.logger.Error("failed to settle booking from gateway capture",
		zap.String("booking_id", evt.ReferenceID.String()),
		zap.Error(err),
	)
	return err
}

// retryable passes transient errors back to the consumer loop for
// redelivery and swallows permanent ones.
func (c *GatewayEventConsumer) retryable(err error) error {
	if err == nil {
		return nil
	}
	if domain.HasCode(err, domain.CodeValidation) {
		c.logger.Warn("dropping invalid gateway capture", zap.Error(err))
		return nil
	}
	return err
}
