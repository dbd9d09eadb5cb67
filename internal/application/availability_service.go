package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/stayflow/service-reservation/internal/domain/booking"
	"github.com/stayflow/service-reservation/internal/domain/catalog"
	"github.com/stayflow/service-reservation/internal/domain/pricing"
	"github.com/stayflow/service-reservation/internal/pkg/domain"
)

// AvailabilityDTO reports how many units of a room type remain free for a
// stay.
type AvailabilityDTO struct {
	RoomID         uuid.UUID `json:"room_id"`
	CheckIn        time.Time `json:"check_in"`
	CheckOut       time.Time `json:"check_out"`
	TotalRooms     int       `json:"total_rooms"`
	BookedRooms    int       `json:"booked_rooms"`
	AvailableRooms int       `json:"available_rooms"`
	Available      bool      `json:"available"`
}

// QuoteDTO is the priced breakdown for a prospective stay.
type QuoteDTO struct {
	RoomID   uuid.UUID     `json:"room_id"`
	Currency string        `json:"currency"`
	Quote    pricing.Quote `json:"quote"`
}

// AvailabilityService answers availability and price questions without
// creating bookings. Its answers are advisory: the authoritative capacity
// check happens again inside the reservation transaction.
type AvailabilityService struct {
	repo    bookingDomain.Repository
	catalog catalog.Service
	offers  pricing.OfferSource
	logger  *zap.Logger
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(
	repo bookingDomain.Repository,
	catalogSvc catalog.Service,
	offers pricing.OfferSource,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		repo:    repo,
		catalog: catalogSvc,
		offers:  offers,
		logger:  logger,
	}
}

// CheckAvailability reports whether roomsCount units of the room are free
// over the stay. Cancelled bookings never count against capacity.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, roomID uuid.UUID, stay bookingDomain.StayRange, roomsCount int) (*AvailabilityDTO, error) {
	if roomsCount <= 0 {
		return nil, domain.NewValidationError("rooms count must be positive")
	}

	room, err := s.catalog.RoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	booked, err := s.repo.CountOverlapping(ctx, roomID, stay)
	if err != nil {
		return nil, fmt.Errorf("failed to count overlapping bookings: %w", err)
	}

	available := room.RoomCount - booked
	if available < 0 {
		available = 0
	}

	return &AvailabilityDTO{
		RoomID:         roomID,
		CheckIn:        stay.CheckIn,
		CheckOut:       stay.CheckOut,
		TotalRooms:     room.RoomCount,
		BookedRooms:    booked,
		AvailableRooms: available,
		Available:      room.Available && available >= roomsCount,
	}, nil
}

// GetQuote prices a prospective stay: occupancy-adjusted nightly rate,
// scaled by nights and rooms, taxed, then discounted by the best applicable
// offer.
func (s *AvailabilityService) GetQuote(ctx context.Context, roomID uuid.UUID, stay bookingDomain.StayRange, roomsCount int) (*QuoteDTO, error) {
	if roomsCount <= 0 {
		return nil, domain.NewValidationError("rooms count must be positive")
	}

	room, err := s.catalog.RoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	booked, err := s.repo.CountOverlapping(ctx, roomID, stay)
	if err != nil {
		return nil, fmt.Errorf("failed to count overlapping bookings: %w", err)
	}

	quote, err := s.buildQuote(ctx, room, stay, roomsCount, booked)
	if err != nil {
		return nil, err
	}

	return &QuoteDTO{
		RoomID:   roomID,
		Currency: domain.CurrencyINR,
		Quote:    quote,
	}, nil
}

// buildQuote runs the full pricing pipeline for one room and stay. Shared
// with the booking flow so quoted and charged prices agree for the same
// occupancy snapshot.
func (s *AvailabilityService) buildQuote(ctx context.Context, room *catalog.Room, stay bookingDomain.StayRange, roomsCount, booked int) (pricing.Quote, error) {
	quote, err := pricing.BuildQuote(room.BasePriceCents, room.RoomCount, booked, stay.Nights(), roomsCount)
	if err != nil {
		return pricing.Quote{}, domain.NewValidationError(fmt.Sprintf("pricing error: %v", err))
	}

	offers, err := s.offers.ActiveOffers(ctx, room.HotelID, room.RoomType, stay.CheckIn)
	if err != nil {
		// A broken offer source must not block bookings; charge the
		// undiscounted price.
		s.logger.Warn("offer lookup failed, pricing without discount",
			zap.String("room_id", room.ID.String()),
			zap.Error(err),
		)
		return quote, nil
	}

	return pricing.ApplyBestOffer(quote, offers), nil
}
