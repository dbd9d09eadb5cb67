package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OfferKind discriminates how an offer's value is interpreted.
type OfferKind string

const (
	// OfferPercent discounts the taxed price by Value percent.
	OfferPercent OfferKind = "percent"
	// OfferFlat subtracts Value cents from the taxed price, floored at zero.
	OfferFlat OfferKind = "flat"
)

// Offer is a promotional discount scoped to a hotel and room type, valid
// within a date window.
type Offer struct {
	ID         uuid.UUID `json:"id"`
	HotelID    uuid.UUID `json:"hotel_id"`
	RoomType   string    `json:"room_type"`
	Kind       OfferKind `json:"kind"`
	Value      int64     `json:"value"`
	StartDate  time.Time `json:"start_date"`
	ExpiryDate time.Time `json:"expiry_date"`
	CreatedAt  time.Time `json:"created_at"`
}

// AppliesTo reports whether the offer covers the given hotel and room type
// at the given check-in date. The validity window is inclusive of both ends.
func (o Offer) AppliesTo(hotelID uuid.UUID, roomType string, checkIn time.Time) bool {
	if o.HotelID != hotelID || o.RoomType != roomType {
		return false
	}
	if checkIn.Before(o.StartDate) || checkIn.After(o.ExpiryDate) {
		return false
	}
	return true
}

// DiscountedPrice applies the offer to a taxed price. Discounts never
// drive the price below zero; unknown kinds leave the price untouched.
func (o Offer) DiscountedPrice(taxedCents int64) int64 {
	switch o.Kind {
	case OfferPercent:
		price := taxedCents - taxedCents*o.Value/100
		if price < 0 {
			return 0
		}
		return price
	case OfferFlat:
		price := taxedCents - o.Value
		if price < 0 {
			return 0
		}
		return price
	default:
		return taxedCents
	}
}

// PickBestOffer returns the offer producing the lowest final price together
// with that price. Ties break to the earliest created offer so results are
// stable across requests. A nil offer means no discount applies.
func PickBestOffer(taxedCents int64, offers []Offer) (*Offer, int64) {
	var best *Offer
	finalPrice := taxedCents

	for i := range offers {
		price := offers[i].DiscountedPrice(taxedCents)
		if price > finalPrice {
			continue
		}
		if price < finalPrice || (best != nil && offers[i].CreatedAt.Before(best.CreatedAt)) {
			best = &offers[i]
			finalPrice = price
		}
	}
	return best, finalPrice
}

// OfferSource yields the offers applicable to a hotel room for a check-in
// date. Implementations filter by AppliesTo before returning.
type OfferSource interface {
	ActiveOffers(ctx context.Context, hotelID uuid.UUID, roomType string, checkIn time.Time) ([]Offer, error)
}
