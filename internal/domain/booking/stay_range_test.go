package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustStay(t *testing.T, in, out time.Time) StayRange {
	t.Helper()
	stay, err := NewStayRange(in, out)
	require.NoError(t, err)
	return stay
}

func TestNewStayRange(t *testing.T) {
	t.Run("valid range", func(t *testing.T) {
		stay, err := NewStayRange(day(2026, 3, 10), day(2026, 3, 12))
		require.NoError(t, err)
		assert.Equal(t, 2, stay.Nights())
	})

	t.Run("zero length rejected", func(t *testing.T) {
		_, err := NewStayRange(day(2026, 3, 10), day(2026, 3, 10))
		assert.Error(t, err)
	})

	t.Run("inverted rejected", func(t *testing.T) {
		_, err := NewStayRange(day(2026, 3, 12), day(2026, 3, 10))
		assert.Error(t, err)
	})

	t.Run("normalizes to utc midnight", func(t *testing.T) {
		loc := time.FixedZone("IST", 5*3600+1800)
		in := time.Date(2026, 3, 10, 14, 30, 0, 0, loc)
		out := time.Date(2026, 3, 12, 9, 0, 0, 0, loc)
		stay, err := NewStayRange(in, out)
		require.NoError(t, err)
		assert.Equal(t, day(2026, 3, 10), stay.CheckIn)
		assert.Equal(t, day(2026, 3, 12), stay.CheckOut)
	})
}

func TestStayRangeOverlaps(t *testing.T) {
	base := mustStay(t, day(2026, 5, 10), day(2026, 5, 15))

	tests := []struct {
		name     string
		other    StayRange
		overlaps bool
	}{
		{"identical", mustStay(t, day(2026, 5, 10), day(2026, 5, 15)), true},
		{"contained", mustStay(t, day(2026, 5, 11), day(2026, 5, 13)), true},
		{"containing", mustStay(t, day(2026, 5, 8), day(2026, 5, 20)), true},
		{"partial left", mustStay(t, day(2026, 5, 8), day(2026, 5, 11)), true},
		{"partial right", mustStay(t, day(2026, 5, 14), day(2026, 5, 18)), true},
		{"one shared night", mustStay(t, day(2026, 5, 14), day(2026, 5, 15)), true},
		{"back-to-back after", mustStay(t, day(2026, 5, 15), day(2026, 5, 18)), false},
		{"back-to-back before", mustStay(t, day(2026, 5, 7), day(2026, 5, 10)), false},
		{"disjoint after", mustStay(t, day(2026, 5, 20), day(2026, 5, 22)), false},
		{"disjoint before", mustStay(t, day(2026, 5, 1), day(2026, 5, 3)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overlaps, base.Overlaps(tt.other))
			// Overlap is symmetric.
			assert.Equal(t, tt.overlaps, tt.other.Overlaps(base))
		})
	}
}

func TestStayRangeContains(t *testing.T) {
	stay := mustStay(t, day(2026, 5, 10), day(2026, 5, 12))

	assert.True(t, stay.Contains(day(2026, 5, 10)))
	assert.True(t, stay.Contains(day(2026, 5, 11)))
	// The check-out day is not occupied.
	assert.False(t, stay.Contains(day(2026, 5, 12)))
	assert.False(t, stay.Contains(day(2026, 5, 9)))
}
