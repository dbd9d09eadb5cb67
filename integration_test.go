//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayflow/service-reservation/internal/domain/catalog"
	"github.com/stayflow/service-reservation/internal/pkg/events"
	"github.com/stayflow/service-reservation/internal/repository"
)

// TestPaymentCaptured_SettlesBooking verifies that when a PaymentCapturedEvent
// with a booking purpose lands on gateway.events, the reservation service
// confirms the booking, credits the vendor wallet and announces the
// confirmation on reservation.events.
func TestPaymentCaptured_SettlesBooking(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	room := &catalog.Room{
		ID:             uuid.New(),
		HotelID:        uuid.New(),
		VendorID:       uuid.New(),
		RoomType:       "deluxe",
		RoomCount:      5,
		BasePriceCents: 10000,
		BedType:        catalog.BedTypeQueen,
		Available:      true,
	}
	stack := setupReservationStack(t, infra.DB, infra.KafkaBrokers, room)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	// Seed a booking awaiting an online gateway capture.
	bookingID := uuid.New()
	guestID := uuid.New()
	vendorID := uuid.New()
	seedPendingOnlineBooking(t, infra.DB, bookingID, guestID, room.ID, vendorID, 33600)

	// Start the consumer.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	// Publish the gateway capture.
	evt := events.PaymentCapturedEvent{
		Purpose:     events.PurposeBooking,
		ReferenceID: bookingID,
		AmountCents: 33600,
		Currency:    "INR",
		GatewayRef:  "pg_integration_1",
		OccurredAt:  time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, events.TopicGatewayEvents,
		"service-payment-gateway", events.PaymentCaptured, evt)

	// Assert: booking transitions to (confirmed, success).
	model := waitForBookingState(t, infra.DB, bookingID, "confirmed", "success", 15*time.Second)
	assert.Equal(t, int64(33600), model.TotalPriceCents)

	// Assert: the vendor wallet received the full amount.
	vendorWallet, err := stack.Ledger.FindWalletByUserID(context.Background(), vendorID)
	require.NoError(t, err)
	assert.Equal(t, int64(33600), vendorWallet.BalanceCents())

	// Assert: ReservationConfirmedEvent on reservation.events.
	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicReservationEvents,
		events.ReservationConfirmed, 15*time.Second)

	var confirmed events.ReservationConfirmedEvent
	require.NoError(t, ce.ParseData(&confirmed))
	assert.Equal(t, bookingID, confirmed.BookingID)
	assert.Equal(t, guestID, confirmed.GuestID)
	assert.Equal(t, vendorID, confirmed.VendorID)
	assert.Equal(t, int64(33600), confirmed.TotalPriceCents)
	assert.Equal(t, "INR", confirmed.Currency)
}

// TestWalletTopupCaptured_CreditsWallet verifies the wallet top-up capture
// path end to end.
func TestWalletTopupCaptured_CreditsWallet(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupReservationStack(t, infra.DB, infra.KafkaBrokers, nil)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second)

	userID := uuid.New()
	evt := events.PaymentCapturedEvent{
		Purpose:     events.PurposeWalletTopup,
		ReferenceID: userID,
		AmountCents: 50000,
		Currency:    "INR",
		GatewayRef:  "pg_integration_2",
		OccurredAt:  time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, events.TopicGatewayEvents,
		"service-payment-gateway", events.PaymentCaptured, evt)

	require.Eventually(t, func() bool {
		var model repository.WalletModel
		if err := infra.DB.Where("user_id = ?", userID).First(&model).Error; err != nil {
			return false
		}
		return model.BalanceCents == 50000
	}, 15*time.Second, 200*time.Millisecond, "wallet was not credited")
}
