package repository

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/stayflow/service-reservation/internal/domain/booking"
	"github.com/stayflow/service-reservation/internal/pkg/domain"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingNumber   string     `gorm:"uniqueIndex;not null;size:20"`
	GuestID         uuid.UUID  `gorm:"type:uuid;index;not null"`
	HotelID         uuid.UUID  `gorm:"type:uuid;index;not null"`
	RoomID          uuid.UUID  `gorm:"type:uuid;index;not null"`
	VendorID        uuid.UUID  `gorm:"type:uuid;index;not null"`
	CheckIn         time.Time  `gorm:"not null;index"`
	CheckOut        time.Time  `gorm:"not null;index"`
	RoomsCount      int        `gorm:"not null;default:1"`
	Guests          int        `gorm:"not null;default:1"`
	TotalPriceCents int64      `gorm:"not null"`
	Currency        string     `gorm:"not null;size:3;default:'INR'"`
	AppliedOfferID  *uuid.UUID `gorm:"type:uuid"`
	PaymentMethod   string     `gorm:"not null;size:10"`
	Status          string     `gorm:"not null;size:20;index"`
	PaymentStatus   string     `gorm:"not null;size:20;index"`
	CancelReason    string     `gorm:"size:500"`
	Version         int64      `gorm:"not null;default:1"`
	CreatedAt       time.Time  `gorm:"not null"`
	UpdatedAt       time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of the booking
// Repository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("booking_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", number)
		}
		return nil, fmt.Errorf("failed to find booking by number: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByGuestID retrieves bookings for a specific guest with pagination.
func (r *GormBookingRepository) FindByGuestID(ctx context.Context, guestID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPaged(ctx, "guest_id = ?", guestID, page, limit)
}

// FindByVendorID retrieves bookings against a vendor's hotels with pagination.
func (r *GormBookingRepository) FindByVendorID(ctx context.Context, vendorID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPaged(ctx, "vendor_id = ?", vendorID, page, limit)
}

func (r *GormBookingRepository) findPaged(ctx context.Context, cond string, arg uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where(cond, arg).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where(cond, arg).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountOverlapping sums the rooms occupied by non-cancelled bookings of the
// room whose stay intersects the given half-open range.
func (r *GormBookingRepository) CountOverlapping(ctx context.Context, roomID uuid.UUID, stay bookingDomain.StayRange) (int, error) {
	return countOverlappingTx(r.db.WithContext(ctx), roomID, stay)
}

func countOverlappingTx(tx *gorm.DB, roomID uuid.UUID, stay bookingDomain.StayRange) (int, error) {
	var booked int64
	err := tx.Model(&BookingModel{}).
		Select("COALESCE(SUM(rooms_count), 0)").
		Where("room_id = ? AND status <> ? AND check_in < ? AND check_out > ?",
			roomID, string(bookingDomain.StatusCancelled), stay.CheckOut, stay.CheckIn).
		Scan(&booked).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count overlapping bookings: %w", err)
	}
	return int(booked), nil
}

// roomLockKey folds a room ID into the signed 64-bit key space of postgres
// advisory locks.
func roomLockKey(roomID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write(roomID[:])
	return int64(h.Sum64())
}

// CreateReserving persists a new booking after re-checking capacity inside
// a transaction serialized per room. On postgres the serialization is a
// transaction-scoped advisory lock on the room key; concurrent requests for
// the same room queue behind it, so the capacity they observe is final.
// A full room yields a retryable conflict error and nothing is written.
func (r *GormBookingRepository) CreateReserving(ctx context.Context, bk *bookingDomain.Booking, capacity int) error {
	model := toBookingModel(bk)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", roomLockKey(bk.RoomID())).Error; err != nil {
				return fmt.Errorf("failed to acquire room lock: %w", err)
			}
		}

		booked, err := countOverlappingTx(tx, bk.RoomID(), bk.Stay())
		if err != nil {
			return err
		}
		if booked+bk.RoomsCount() > capacity {
			return domain.NewConflictError("room is fully booked for the selected dates")
		}

		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}
		return nil
	})
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	return updateBookingTx(r.db.WithContext(ctx), bk)
}

// updateBookingTx writes the booking row guarded by its version. Shared
// with the ledger repository so settlement transactions flip bookings with
// the same locking discipline.
func updateBookingTx(tx *gorm.DB, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// Only update if the version matches (current version - 1, since
	// IncrementVersion was called before persisting).
	expectedVersion := bk.Version() - 1
	result := tx.
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":         model.Status,
			"payment_status": model.PaymentStatus,
			"cancel_reason":  model.CancelReason,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:              bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		GuestID:         bk.GuestID(),
		HotelID:         bk.HotelID(),
		RoomID:          bk.RoomID(),
		VendorID:        bk.VendorID(),
		CheckIn:         bk.Stay().CheckIn,
		CheckOut:        bk.Stay().CheckOut,
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

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	state, err := bookingDomain.ParseState(m.Status, m.PaymentStatus)
	if err != nil {
		return nil, err
	}

	stay := bookingDomain.StayRange{CheckIn: m.CheckIn.UTC(), CheckOut: m.CheckOut.UTC()}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.GuestID,
		m.HotelID,
		m.RoomID,
		m.VendorID,
		stay,
		m.RoomsCount,
		m.Guests,
		m.TotalPriceCents,
		m.Currency,
		m.AppliedOfferID,
		bookingDomain.PaymentMethod(m.PaymentMethod),
		state,
		m.CancelReason,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
