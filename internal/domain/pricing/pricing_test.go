package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDynamicPriceCents(t *testing.T) {
	t.Run("base price at zero occupancy", func(t *testing.T) {
		price, err := DynamicPriceCents(10000, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(10000), price)
	})

	t.Run("half occupancy adds a quarter", func(t *testing.T) {
		price, err := DynamicPriceCents(10000, 10, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(12500), price)
	})

	t.Run("full occupancy adds half", func(t *testing.T) {
		price, err := DynamicPriceCents(10000, 10, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(15000), price)
	})

	t.Run("booked above capacity clamps", func(t *testing.T) {
		price, err := DynamicPriceCents(10000, 10, 25)
		require.NoError(t, err)
		assert.Equal(t, int64(15000), price)
	})

	t.Run("non-decreasing in booked count", func(t *testing.T) {
		prev := int64(0)
		for booked := 0; booked <= 10; booked++ {
			price, err := DynamicPriceCents(9999, 10, booked)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, price, prev, "booked=%d", booked)
			prev = price
		}
	})

	t.Run("invalid inputs rejected", func(t *testing.T) {
		_, err := DynamicPriceCents(0, 10, 0)
		assert.Error(t, err)
		_, err = DynamicPriceCents(10000, 0, 0)
		assert.Error(t, err)
		_, err = DynamicPriceCents(10000, 10, -1)
		assert.Error(t, err)
	})
}

func TestApplyGST(t *testing.T) {
	assert.Equal(t, int64(11200), ApplyGST(10000))
	assert.Equal(t, int64(0), ApplyGST(0))
	// Deterministic from the amount alone.
	assert.Equal(t, ApplyGST(33333), ApplyGST(33333))
}

func TestBuildQuote(t *testing.T) {
	t.Run("scales by nights and rooms before tax", func(t *testing.T) {
		// 10000 base, half occupancy -> 12500 nightly.
		q, err := BuildQuote(10000, 10, 5, 3, 2)
		require.NoError(t, err)

		assert.Equal(t, int64(12500), q.DynamicNightlyCents)
		assert.Equal(t, int64(75000), q.SubtotalCents)
		assert.Equal(t, int64(84000), q.TaxedCents)
		assert.Equal(t, int64(9000), q.TaxCents)
		assert.Equal(t, q.TaxedCents, q.TotalCents)
		assert.Nil(t, q.AppliedOfferID)
	})

	t.Run("rejects non-positive nights and rooms", func(t *testing.T) {
		_, err := BuildQuote(10000, 10, 0, 0, 1)
		assert.Error(t, err)
		_, err = BuildQuote(10000, 10, 0, 2, 0)
		assert.Error(t, err)
	})
}
