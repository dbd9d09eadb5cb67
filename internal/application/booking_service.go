package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/stayflow/service-reservation/internal/domain/booking"
	"github.com/stayflow/service-reservation/internal/domain/catalog"
	"github.com/stayflow/service-reservation/internal/domain/wallet"
	"github.com/stayflow/service-reservation/internal/pkg/auth"
	"github.com/stayflow/service-reservation/internal/pkg/domain"
	"github.com/stayflow/service-reservation/internal/pkg/events"
	"github.com/stayflow/service-reservation/internal/pkg/kafka"
)

const eventSource = "service-reservation"

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	RoomID     uuid.UUID `json:"room_id" binding:"required"`
	CheckIn    time.Time `json:"check_in" binding:"required"`
	CheckOut   time.Time `json:"check_out" binding:"required"`
	RoomsCount int       `json:"rooms_count" binding:"required,min=1"`
	Guests     int       `json:"guests" binding:"required,min=1"`
	Method     string    `json:"payment_method" binding:"required"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID              uuid.UUID  `json:"id"`
	BookingNumber   string     `json:"booking_number"`
	GuestID         uuid.UUID  `json:"guest_id"`
	HotelID         uuid.UUID  `json:"hotel_id"`
	RoomID          uuid.UUID  `json:"room_id"`
	VendorID        uuid.UUID  `json:"vendor_id"`
	CheckIn         time.Time  `json:"check_in"`
	CheckOut        time.Time  `json:"check_out"`
	Nights          int        `json:"nights"`
	RoomsCount      int        `json:"rooms_count"`
	Guests          int        `json:"guests"`
	TotalPriceCents int64      `json:"total_price_cents"`
	Currency        string     `json:"currency"`
	AppliedOfferID  *uuid.UUID `json:"applied_offer_id,omitempty"`
	PaymentMethod   string     `json:"payment_method"`
	Status          string     `json:"status"`
	PaymentStatus   string     `json:"payment_status"`
	CancelReason    string     `json:"cancel_reason,omitempty"`
	Version         int64      `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// BookingService is the application service orchestrating reservation use
// cases: availability, pricing, the reservation transaction and settlement.
type BookingService struct {
	repo         bookingDomain.Repository
	catalog      catalog.Service
	availability *AvailabilityService
	settlements  SettlementStore
	ledger       wallet.Ledger
	producer     EventPublisher
	logger       *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.Repository,
	catalogSvc catalog.Service,
	availability *AvailabilityService,
	settlements SettlementStore,
	ledger wallet.Ledger,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:         repo,
		catalog:      catalogSvc,
		availability: availability,
		settlements:  settlements,
		ledger:       ledger,
		producer:     producer,
		logger:       logger,
	}
}

// CreateBooking reserves rooms for the guest and, for wallet payments,
// settles immediately. Online bookings stay pending until the gateway
// reports capture. A failed wallet settlement leaves the booking in the
// payment-failed state with no money moved.
func (s *BookingService) CreateBooking(ctx context.Context, guestID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	stay, err := bookingDomain.NewStayRange(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	method := bookingDomain.PaymentMethod(req.Method)
	if !method.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid payment method: %s", req.Method))
	}

	room, err := s.catalog.RoomByID(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.Available {
		return nil, domain.NewValidationError("room is not open for booking")
	}
	if req.Guests > room.MaxGuests(req.RoomsCount) {
		return nil, domain.NewValidationError(fmt.Sprintf(
			"%d guests exceed the %s bed capacity of %d rooms", req.Guests, room.BedType, req.RoomsCount))
	}

	// Occupancy snapshot for pricing. The binding capacity check runs again
	// inside the reservation transaction.
	booked, err := s.repo.CountOverlapping(ctx, req.RoomID, stay)
	if err != nil {
		return nil, fmt.Errorf("failed to count overlapping bookings: %w", err)
	}

	quote, err := s.availability.buildQuote(ctx, room, stay, req.RoomsCount, booked)
	if err != nil {
		return nil, err
	}

	bk, err := bookingDomain.NewBooking(
		guestID,
		room.HotelID,
		room.ID,
		room.VendorID,
		stay,
		req.RoomsCount,
		req.Guests,
		quote.TotalCents,
		domain.CurrencyINR,
		quote.AppliedOfferID,
		method,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateReserving(ctx, bk, room.RoomCount); err != nil {
		return nil, err
	}

	if method == bookingDomain.MethodWallet {
		if err := s.settleFromWallet(ctx, bk); err != nil {
			return nil, err
		}
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// settleFromWallet debits the guest and credits the vendor atomically. On
// insufficient funds the booking flips to payment-failed and the guest can
// retry or cancel; any other error is returned as-is with the booking left
// pending.
func (s *BookingService) settleFromWallet(ctx context.Context, bk *bookingDomain.Booking) error {
	err := s.settlements.SettleWalletBooking(ctx, bk)
	if err == nil {
		s.publishConfirmed(ctx, bk)
		return nil
	}
	if !domain.HasCode(err, domain.CodeInsufficientFunds) {
		return fmt.Errorf("failed to settle booking %s: %w", bk.BookingNumber(), err)
	}

	if ferr := bk.MarkSettlementFailed(); ferr != nil {
		return ferr
	}
	bk.IncrementVersion()
	if uerr := s.repo.Update(ctx, bk); uerr != nil {
		return uerr
	}

	evt := events.ReservationPaymentFailedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		GuestID:       bk.GuestID(),
		AmountCents:   bk.TotalPriceCents(),
		Reason:        "insufficient wallet balance",
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicReservationEvents, events.ReservationPaymentFailed, evt)
	return nil
}

// RetryPayment re-attempts wallet settlement of an unsettled booking.
func (s *BookingService) RetryPayment(ctx context.Context, bookingID, guestID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bk.GuestID() != guestID {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	// Settlement can also fail transiently without flipping the booking to
	// payment-failed, so a still-pending wallet booking is retryable too.
	if bk.State() != bookingDomain.StateCreated && bk.State() != bookingDomain.StateSettlementFailed {
		return nil, domain.NewInvalidStateError(bk.State().String(), bookingDomain.StateSettled.String())
	}
	if bk.Method() != bookingDomain.MethodWallet {
		return nil, domain.NewValidationError("online payments are re-initiated through the payment gateway")
	}

	if err := s.settlements.SettleWalletBooking(ctx, bk); err != nil {
		return nil, err
	}
	s.publishConfirmed(ctx, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// SettleExternalPayment confirms a booking from a gateway capture. The
// captured amount must match the booking total exactly.
func (s *BookingService) SettleExternalPayment(ctx context.Context, bookingID uuid.UUID, amountCents int64) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if amountCents != bk.TotalPriceCents() {
		return nil, domain.NewValidationError(fmt.Sprintf(
			"captured amount %d does not match booking total %d", amountCents, bk.TotalPriceCents()))
	}

	if err := s.settlements.SettleExternalBooking(ctx, bk); err != nil {
		return nil, err
	}
	s.publishConfirmed(ctx, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels a booking on behalf of its guest, the hotel's
// vendor or an admin. Cancelling a settled booking refunds the guest in the
// same transaction that records the cancellation.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, actorID uuid.UUID, role, reason string) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canActOn(bk, actorID, role) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}

	refundRequired, err := bk.Cancel(reason)
	if err != nil {
		return nil, err
	}

	if refundRequired {
		if err := s.settlements.RefundAndCancel(ctx, bk); err != nil {
			return nil, err
		}
	} else {
		bk.IncrementVersion()
		if err := s.repo.Update(ctx, bk); err != nil {
			return nil, err
		}
	}

	evt := events.ReservationCancelledEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		GuestID:       bk.GuestID(),
		VendorID:      bk.VendorID(),
		Reason:        reason,
		Refunded:      refundRequired,
		OccurredAt:    time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicReservationEvents, events.ReservationCancelled, evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking, visible to its guest, its vendor
// and admins.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, actorID uuid.UUID, role string) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canActOn(bk, actorID, role) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetGuestBookings retrieves paginated bookings made by a guest.
func (s *BookingService) GetGuestBookings(ctx context.Context, guestID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByGuestID(ctx, guestID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// GetVendorBookings retrieves paginated bookings against a vendor's hotels.
func (s *BookingService) GetVendorBookings(ctx context.Context, vendorID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByVendorID(ctx, vendorID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// GetBookingTransactions lists the ledger entries recorded for a booking:
// the settlement legs and, after cancellation, the refund legs.
func (s *BookingService) GetBookingTransactions(ctx context.Context, bookingID, actorID uuid.UUID, role string) ([]TransactionDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canActOn(bk, actorID, role) {
		return nil, domain.NewForbiddenError("booking does not belong to this user")
	}

	txs, err := s.ledger.TransactionsByCorrelation(ctx, wallet.CorrelationBooking, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking transactions: %w", err)
	}

	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	return dtos, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

// canActOn reports whether the actor may read or cancel the booking.
func canActOn(bk *bookingDomain.Booking, actorID uuid.UUID, role string) bool {
	switch role {
	case auth.RoleAdmin:
		return true
	case auth.RoleVendor:
		return bk.VendorID() == actorID
	default:
		return bk.GuestID() == actorID
	}
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:              bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		GuestID:         bk.GuestID(),
		HotelID:         bk.HotelID(),
		RoomID:          bk.RoomID(),
		VendorID:        bk.VendorID(),
		CheckIn:         bk.Stay().CheckIn,
		CheckOut:        bk.Stay().CheckOut,
		Nights:          bk.Stay().Nights(),
		RoomsCount:      bk.RoomsCount(),
		Guests:          bk.Guests(),
		TotalPriceCents: bk.TotalPriceCents(),
		Currency:        bk.Currency(),
		AppliedOfferID:  bk.AppliedOfferID(),
		PaymentMethod:   string(bk.Method()),
		Status:          string(bk.Status()),
		PaymentStatus:   string(bk.Payment()),
		CancelReason:    bk.CancelReason(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}

func (s *BookingService) publishConfirmed(ctx context.Context, bk *bookingDomain.Booking) {
	evt := events.ReservationConfirmedEvent{
		BookingID:       bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		GuestID:         bk.GuestID(),
		VendorID:        bk.VendorID(),
		HotelID:         bk.HotelID(),
		RoomID:          bk.RoomID(),
		CheckIn:         bk.Stay().CheckIn,
		CheckOut:        bk.Stay().CheckOut,
		TotalPriceCents: bk.TotalPriceCents(),
		Currency:        bk.Currency(),
		Method:          string(bk.Method()),
		OccurredAt:      time.Now().UTC(),
	}
	s.publishEvent(ctx, events.TopicReservationEvents, events.ReservationConfirmed, evt)
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
