package booking

import (
	"time"

	"github.com/stayflow/service-reservation/internal/pkg/domain"
)

// StayRange is a half-open date interval [CheckIn, CheckOut) at day
// granularity. The check-out day is not occupied, so back-to-back stays
// sharing a boundary date do not overlap.
type StayRange struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

// NewStayRange validates and normalizes a stay to UTC midnights.
// Zero-length stays are rejected.
func NewStayRange(checkIn, checkOut time.Time) (StayRange, error) {
	in := truncateToDay(checkIn)
	out := truncateToDay(checkOut)
	if !out.After(in) {
		return StayRange{}, domain.NewValidationError("check-out must be after check-in")
	}
	return StayRange{CheckIn: in, CheckOut: out}, nil
}

// Nights returns the number of occupied nights.
func (r StayRange) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

// Overlaps reports whether two half-open stays intersect:
// [a,b) and [c,d) overlap iff a < d && b > c.
func (r StayRange) Overlaps(other StayRange) bool {
	return r.CheckIn.Before(other.CheckOut) && r.CheckOut.After(other.CheckIn)
}

// Contains reports whether the given day falls inside the stay.
func (r StayRange) Contains(day time.Time) bool {
	d := truncateToDay(day)
	return !d.Before(r.CheckIn) && d.Before(r.CheckOut)
}

func truncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
