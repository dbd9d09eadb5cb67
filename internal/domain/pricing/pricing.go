package pricing

import (
	"fmt"

	"github.com/google/uuid"
)

// GSTRatePercent is the fixed tax surcharge applied to the dynamic price.
const GSTRatePercent = 12

// occupancySurchargeDivisor controls the slope of the occupancy surcharge:
// a fully booked room costs 1.5x its base price.
const occupancySurchargeDivisor = 2

// Quote is the full price breakdown for one stay.
type Quote struct {
	BaseNightlyCents    int64      `json:"base_nightly_cents"`
	DynamicNightlyCents int64      `json:"dynamic_nightly_cents"`
	Nights              int        `json:"nights"`
	Rooms               int        `json:"rooms"`
	SubtotalCents       int64      `json:"subtotal_cents"`
	TaxCents            int64      `json:"tax_cents"`
	TaxedCents          int64      `json:"taxed_cents"`
	DiscountCents       int64      `json:"discount_cents"`
	TotalCents          int64      `json:"total_cents"`
	AppliedOfferID      *uuid.UUID `json:"applied_offer_id,omitempty"`
}

// DynamicPriceCents adjusts a base nightly price for occupancy pressure.
// The surcharge grows linearly with booked/capacity: empty rooms cost the
// base price, a full house costs base + base/occupancySurchargeDivisor.
// Integer arithmetic keeps it deterministic and non-decreasing in booked.
func DynamicPriceCents(baseCents int64, capacity, booked int) (int64, error) {
	if baseCents <= 0 {
		return 0, fmt.Errorf("base price must be positive")
	}
	if capacity <= 0 {
		return 0, fmt.Errorf("room capacity must be positive")
	}
	if booked < 0 {
		return 0, fmt.Errorf("booked count cannot be negative")
	}
	if booked > capacity {
		booked = capacity
	}

	surcharge := baseCents * int64(booked) / (int64(occupancySurchargeDivisor) * int64(capacity))
	return baseCents + surcharge, nil
}

// ApplyGST adds the fixed tax surcharge. Deterministic from its input alone.
func ApplyGST(cents int64) int64 {
	return cents + cents*GSTRatePercent/100
}

// BuildQuote computes the taxed, undiscounted price for a stay. The per-stay
// total is scaled by rooms and nights before tax so that percentage offers
// apply to the right amount.
func BuildQuote(baseNightlyCents int64, capacity, booked, nights, rooms int) (Quote, error) {
	if nights <= 0 {
		return Quote{}, fmt.Errorf("nights must be positive")
	}
	if rooms <= 0 {
		return Quote{}, fmt.Errorf("rooms must be positive")
	}

	dynamic, err := DynamicPriceCents(baseNightlyCents, capacity, booked)
	if err != nil {
		return Quote{}, err
	}

	subtotal := dynamic * int64(nights) * int64(rooms)
	taxed := ApplyGST(subtotal)

	return Quote{
		BaseNightlyCents:    baseNightlyCents,
		DynamicNightlyCents: dynamic,
		Nights:              nights,
		Rooms:               rooms,
		SubtotalCents:       subtotal,
		TaxCents:            taxed - subtotal,
		TaxedCents:          taxed,
		TotalCents:          taxed,
	}, nil
}

// ApplyBestOffer selects the applicable offer yielding the lowest final
// price and folds it into the quote. With no applicable offer the quote is
// returned unchanged.
func ApplyBestOffer(q Quote, offers []Offer) Quote {
	best, finalPrice := PickBestOffer(q.TaxedCents, offers)
	if best == nil {
		return q
	}
	q.DiscountCents = q.TaxedCents - finalPrice
	q.TotalCents = finalPrice
	id := best.ID
	q.AppliedOfferID = &id
	return q
}
