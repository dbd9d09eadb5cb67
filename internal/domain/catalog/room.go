package catalog

import (
	"context"

	"github.com/google/uuid"
)

// BedType bounds the number of occupants a single room unit can sleep.
type BedType string

const (
	BedTypeSingle BedType = "single"
	BedTypeTwin   BedType = "twin"
	BedTypeDouble BedType = "double"
	BedTypeQueen  BedType = "queen"
	BedTypeKing   BedType = "king"
	BedTypeFamily BedType = "family"
)

// bedTypeCapacity is the fixed bed-type to maximum-occupants table.
var bedTypeCapacity = map[BedType]int{
	BedTypeSingle: 1,
	BedTypeTwin:   2,
	BedTypeDouble: 2,
	BedTypeQueen:  2,
	BedTypeKing:   3,
	BedTypeFamily: 4,
}

// IsValid reports whether the bed type is recognized.
func (b BedType) IsValid() bool {
	_, ok := bedTypeCapacity[b]
	return ok
}

// Capacity returns the maximum occupants per room unit for this bed type.
// Unknown bed types sleep one, the conservative bound.
func (b BedType) Capacity() int {
	if c, ok := bedTypeCapacity[b]; ok {
		return c
	}
	return 1
}

// Room is the read model for a bookable room type. The reservation service
// never mutates rooms; it reads capacity and price inputs from the catalog.
type Room struct {
	ID             uuid.UUID `json:"id"`
	HotelID        uuid.UUID `json:"hotel_id"`
	VendorID       uuid.UUID `json:"vendor_id"`
	RoomType       string    `json:"room_type"`
	RoomCount      int       `json:"room_count"`
	BasePriceCents int64     `json:"base_price_cents"`
	BedType        BedType   `json:"bed_type"`
	Available      bool      `json:"available"`
}

// MaxGuests returns the occupant bound for a request of the given unit count.
func (r Room) MaxGuests(roomsRequested int) int {
	return r.BedType.Capacity() * roomsRequested
}

// Service is the read-only contract against the external hotel/room catalog.
type Service interface {
	// RoomByID looks up one room type by id.
	RoomByID(ctx context.Context, roomID uuid.UUID) (*Room, error)
}
