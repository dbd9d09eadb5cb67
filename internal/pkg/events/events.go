package events

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics shared across stayflow services.
const (
	TopicReservationEvents = "reservation.events"
	TopicGatewayEvents     = "gateway.events"
)

// Event type names carried in the CloudEvent envelope.
const (
	ReservationConfirmed     = "reservation.confirmed"
	ReservationCancelled     = "reservation.cancelled"
	ReservationPaymentFailed = "reservation.payment_failed"
	PaymentCaptured          = "payment.captured"
)

// SettlementPurpose says what a captured gateway payment settles. The set
// is closed: consumers must dispatch on every variant and reject unknowns
// rather than guessing.
type SettlementPurpose string

const (
	PurposeBooking      SettlementPurpose = "booking"
	PurposeWalletTopup  SettlementPurpose = "wallet_topup"
	PurposeSubscription SettlementPurpose = "subscription"
)

func (p SettlementPurpose) IsValid() bool {
	switch p {
	case PurposeBooking, PurposeWalletTopup, PurposeSubscription:
		return true
	}
	return false
}

// ReservationConfirmedEvent is published when a booking settles.
type ReservationConfirmedEvent struct {
	BookingID       uuid.UUID `json:"booking_id"`
	BookingNumber   string    `json:"booking_number"`
	GuestID         uuid.UUID `json:"guest_id"`
	VendorID        uuid.UUID `json:"vendor_id"`
	HotelID         uuid.UUID `json:"hotel_id"`
	RoomID          uuid.UUID `json:"room_id"`
	CheckIn         time.Time `json:"check_in"`
	CheckOut        time.Time `json:"check_out"`
	TotalPriceCents int64     `json:"total_price_cents"`
	Currency        string    `json:"currency"`
	Method          string    `json:"method"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// ReservationCancelledEvent is published when a booking is cancelled.
// Refunded is true when a compensating wallet transfer accompanied the
// cancellation.
type ReservationCancelledEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	GuestID       uuid.UUID `json:"guest_id"`
	VendorID      uuid.UUID `json:"vendor_id"`
	Reason        string    `json:"reason"`
	Refunded      bool      `json:"refunded"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ReservationPaymentFailedEvent is published when settlement of a booking
// fails, leaving it open for retry or cancellation.
type ReservationPaymentFailedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	GuestID       uuid.UUID `json:"guest_id"`
	AmountCents   int64     `json:"amount_cents"`
	Reason        string    `json:"reason"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// PaymentCapturedEvent is consumed from the payment gateway. ReferenceID
// identifies the settled entity per Purpose: the booking ID, the topped-up
// user ID, or the subscription ID.
type PaymentCapturedEvent struct {
	Purpose     SettlementPurpose `json:"purpose"`
	ReferenceID uuid.UUID         `json:"reference_id"`
	AmountCents int64             `json:"amount_cents"`
	Currency    string            `json:"currency"`
	GatewayRef  string            `json:"gateway_ref"`
	OccurredAt  time.Time         `json:"occurred_at"`
}
