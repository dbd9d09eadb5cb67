package booking

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for booking aggregates.
type Repository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByNumber retrieves a booking by its human-readable booking number.
	FindByNumber(ctx context.Context, number string) (*Booking, error)

	// FindByGuestID retrieves bookings made by a guest with pagination.
	FindByGuestID(ctx context.Context, guestID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindByVendorID retrieves bookings against a vendor's hotels with pagination.
	FindByVendorID(ctx context.Context, vendorID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// CountOverlapping sums rooms_count over non-cancelled bookings of the
	// room whose stay overlaps the given range.
	CountOverlapping(ctx context.Context, roomID uuid.UUID, stay StayRange) (int, error)

	// CreateReserving persists a new booking only if, inside one
	// per-room-serialized transaction, the overlapping occupancy plus the
	// booking's rooms count still fits within capacity. Losing the race
	// yields a retryable conflict error.
	CreateReserving(ctx context.Context, b *Booking, capacity int) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, b *Booking) error
}
