package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/stayflow/service-reservation/internal/pkg/domain"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// PaymentMethod identifies how a booking is funded.
type PaymentMethod string

const (
	MethodWallet PaymentMethod = "wallet"
	MethodOnline PaymentMethod = "online"
)

// IsValid reports whether the payment method is recognized.
func (m PaymentMethod) IsValid() bool {
	return m == MethodWallet || m == MethodOnline
}

// Booking is the aggregate root for the reservation domain. All lifecycle
// changes go through its methods so the joint state machine is enforced in
// one place.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	guestID       uuid.UUID
	hotelID       uuid.UUID
	roomID        uuid.UUID
	vendorID      uuid.UUID
	stay          StayRange
	roomsCount    int
	guests        int

	totalPriceCents int64
	currency        string
	appliedOfferID  *uuid.UUID
	method          PaymentMethod

	state        State
	cancelReason string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "RSV-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "RSV-" + string(result), nil
}

// NewBooking creates a Booking in the (pending, pending) state.
func NewBooking(
	guestID, hotelID, roomID, vendorID uuid.UUID,
	stay StayRange,
	roomsCount, guests int,
	totalPriceCents int64,
	currency string,
	appliedOfferID *uuid.UUID,
	method PaymentMethod,
) (*Booking, error) {
	if guestID == uuid.Nil {
		return nil, domain.NewValidationError("guest ID is required")
	}
	if roomID == uuid.Nil {
		return nil, domain.NewValidationError("room ID is required")
	}
	if vendorID == uuid.Nil {
		return nil, domain.NewValidationError("vendor ID is required")
	}
	if roomsCount <= 0 {
		return nil, domain.NewValidationError("rooms count must be positive")
	}
	if guests <= 0 {
		return nil, domain.NewValidationError("guest count must be positive")
	}
	if totalPriceCents <= 0 {
		return nil, domain.NewValidationError("total price must be positive")
	}
	if !method.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid payment method: %s", method))
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:              uuid.New(),
		bookingNumber:   bookingNumber,
		guestID:         guestID,
		hotelID:         hotelID,
		roomID:          roomID,
		vendorID:        vendorID,
		stay:            stay,
		roomsCount:      roomsCount,
		guests:          guests,
		totalPriceCents: totalPriceCents,
		currency:        currency,
		appliedOfferID:  appliedOfferID,
		method:          method,
		state:           StateCreated,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	guestID, hotelID, roomID, vendorID uuid.UUID,
	stay StayRange,
	roomsCount, guests int,
	totalPriceCents int64,
	currency string,
	appliedOfferID *uuid.UUID,
	method PaymentMethod,
	state State,
	cancelReason string,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		bookingNumber:   bookingNumber,
		guestID:         guestID,
		hotelID:         hotelID,
		roomID:          roomID,
		vendorID:        vendorID,
		stay:            stay,
		roomsCount:      roomsCount,
		guests:          guests,
		totalPriceCents: totalPriceCents,
		currency:        currency,
		appliedOfferID:  appliedOfferID,
		method:          method,
		state:           state,
		cancelReason:    cancelReason,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// GuestID returns the booking guest's user ID.
func (b *Booking) GuestID() uuid.UUID { return b.guestID }

// HotelID returns the hotel the booked room belongs to.
func (b *Booking) HotelID() uuid.UUID { return b.hotelID }

// RoomID returns the booked room type's ID.
func (b *Booking) RoomID() uuid.UUID { return b.roomID }

// VendorID returns the user ID of the hotel's owning vendor.
func (b *Booking) VendorID() uuid.UUID { return b.vendorID }

// Stay returns the booked date range.
func (b *Booking) Stay() StayRange { return b.stay }

// RoomsCount returns how many room units the booking occupies.
func (b *Booking) RoomsCount() int { return b.roomsCount }

// Guests returns the number of guests staying.
func (b *Booking) Guests() int { return b.guests }

// TotalPriceCents returns the payable total in cents.
func (b *Booking) TotalPriceCents() int64 { return b.totalPriceCents }

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

// AppliedOfferID returns the promotional offer applied at pricing time, if any.
func (b *Booking) AppliedOfferID() *uuid.UUID { return b.appliedOfferID }

// Method returns the payment method.
func (b *Booking) Method() PaymentMethod { return b.method }

// State returns the joint lifecycle state.
func (b *Booking) State() State { return b.state }

// Status returns the reservation half of the state.
func (b *Booking) Status() Status { return b.state.Status }

// Payment returns the settlement half of the state.
func (b *Booking) Payment() PaymentStatus { return b.state.Payment }

// CancelReason returns the reason recorded at cancellation.
func (b *Booking) CancelReason() string { return b.cancelReason }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// MarkSettled transitions the booking to (confirmed, success). Legal from
// (pending, pending) and, for payment retries, (pending, failed).
func (b *Booking) MarkSettled() error {
	if !b.state.CanTransitionTo(StateSettled) {
		return domain.NewInvalidStateError(b.state.String(), StateSettled.String())
	}
	b.state = StateSettled
	b.updatedAt = time.Now().UTC()
	return nil
}

// MarkSettlementFailed transitions the booking to (pending, failed), leaving
// it revisable by the guest: retry payment or cancel.
func (b *Booking) MarkSettlementFailed() error {
	if !b.state.CanTransitionTo(StateSettlementFailed) {
		return domain.NewInvalidStateError(b.state.String(), StateSettlementFailed.String())
	}
	b.state = StateSettlementFailed
	b.updatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions the booking to cancelled. The returned refundRequired
// flag is true when the booking was settled, meaning a compensating transfer
// must accompany this flip; payment moves to refunded in that case.
func (b *Booking) Cancel(reason string) (refundRequired bool, err error) {
	target, ok := b.state.cancelTarget()
	if !ok {
		return false, domain.NewInvalidStateError(b.state.String(), "cancelled")
	}
	refundRequired = b.state == StateSettled
	b.state = target
	b.cancelReason = reason
	b.updatedAt = time.Now().UTC()
	return refundRequired, nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
