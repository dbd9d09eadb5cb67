package application

import (
	"context"

	bookingDomain "github.com/stayflow/service-reservation/internal/domain/booking"
	"github.com/stayflow/service-reservation/internal/pkg/kafka"
)

// EventPublisher abstracts the kafka producer for the application services.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// SettlementStore executes the money movements that must commit together
// with a booking state flip. Each method runs in a single database
// transaction: the wallet mutations, their ledger entries and the booking
// update all land, or none do.
type SettlementStore interface {
	// SettleWalletBooking debits the guest, credits the vendor, records both
	// ledger entries and flips the booking to its settled state.
	SettleWalletBooking(ctx context.Context, b *bookingDomain.Booking) error

	// SettleExternalBooking credits the vendor for a gateway-captured payment
	// and flips the booking to its settled state.
	SettleExternalBooking(ctx context.Context, b *bookingDomain.Booking) error

	// RefundAndCancel debits the vendor, credits the guest and persists the
	// already-cancelled booking. The caller flips the aggregate first so the
	// state machine vets the transition.
	RefundAndCancel(ctx context.Context, b *bookingDomain.Booking) error
}
