package booking

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayflow/service-reservation/internal/pkg/domain"
)

func newTestBooking(t *testing.T) *Booking {
	t.Helper()
	stay := mustStay(t, day(2026, 6, 1), day(2026, 6, 4))
	bk, err := NewBooking(
		uuid.New(), uuid.New(), uuid.New(), uuid.New(),
		stay, 1, 2, 45000, domain.CurrencyINR, nil, MethodWallet,
	)
	require.NoError(t, err)
	return bk
}

func TestNewBooking(t *testing.T) {
	t.Run("starts pending on both axes", func(t *testing.T) {
		bk := newTestBooking(t)
		assert.Equal(t, StateCreated, bk.State())
		assert.Equal(t, int64(1), bk.Version())
		assert.Regexp(t, regexp.MustCompile(`^RSV-[A-Z2-9]{6}$`), bk.BookingNumber())
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		stay := mustStay(t, day(2026, 6, 1), day(2026, 6, 4))

		_, err := NewBooking(uuid.Nil, uuid.New(), uuid.New(), uuid.New(), stay, 1, 2, 45000, domain.CurrencyINR, nil, MethodWallet)
		assert.True(t, domain.HasCode(err, domain.CodeValidation), "nil guest")

		_, err = NewBooking(uuid.New(), uuid.New(), uuid.New(), uuid.New(), stay, 0, 2, 45000, domain.CurrencyINR, nil, MethodWallet)
		assert.True(t, domain.HasCode(err, domain.CodeValidation), "zero rooms")

		_, err = NewBooking(uuid.New(), uuid.New(), uuid.New(), uuid.New(), stay, 1, 2, 0, domain.CurrencyINR, nil, MethodWallet)
		assert.True(t, domain.HasCode(err, domain.CodeValidation), "zero price")

		_, err = NewBooking(uuid.New(), uuid.New(), uuid.New(), uuid.New(), stay, 1, 2, 45000, domain.CurrencyINR, nil, PaymentMethod("cheque"))
		assert.True(t, domain.HasCode(err, domain.CodeValidation), "bad method")
	})
}

func TestBookingSettlement(t *testing.T) {
	t.Run("settle from created", func(t *testing.T) {
		bk := newTestBooking(t)
		require.NoError(t, bk.MarkSettled())
		assert.Equal(t, StateSettled, bk.State())
	})

	t.Run("settle after failure", func(t *testing.T) {
		bk := newTestBooking(t)
		require.NoError(t, bk.MarkSettlementFailed())
		require.NoError(t, bk.MarkSettled())
		assert.Equal(t, StateSettled, bk.State())
	})

	t.Run("double settle rejected", func(t *testing.T) {
		bk := newTestBooking(t)
		require.NoError(t, bk.MarkSettled())
		err := bk.MarkSettled()
		assert.True(t, domain.HasCode(err, domain.CodeInvalidState))
	})

	t.Run("failure after settle rejected", func(t *testing.T) {
		bk := newTestBooking(t)
		require.NoError(t, bk.MarkSettled())
		err := bk.MarkSettlementFailed()
		assert.True(t, domain.HasCode(err, domain.CodeInvalidState))
	})
}

func TestBookingCancel(t *testing.T) {
	t.Run("unpaid cancellation needs no refund", func(t *testing.T) {
		bk := newTestBooking(t)
		refund, err := bk.Cancel("changed plans")
		require.NoError(t, err)
		assert.False(t, refund)
		assert.Equal(t, StateCancelledUnpaid, bk.State())
		assert.Equal(t, "changed plans", bk.CancelReason())
	})

	t.Run("settled cancellation requires refund", func(t *testing.T) {
		bk := newTestBooking(t)
		require.NoError(t, bk.MarkSettled())
		refund, err := bk.Cancel("hotel closed")
		require.NoError(t, err)
		assert.True(t, refund)
		assert.Equal(t, StateCancelledRefunded, bk.State())
	})

	t.Run("failed payment cancellation keeps failed marker", func(t *testing.T) {
		bk := newTestBooking(t)
		require.NoError(t, bk.MarkSettlementFailed())
		refund, err := bk.Cancel("gave up")
		require.NoError(t, err)
		assert.False(t, refund)
		assert.Equal(t, StateCancelledFailed, bk.State())
	})

	t.Run("double cancel rejected", func(t *testing.T) {
		bk := newTestBooking(t)
		_, err := bk.Cancel("first")
		require.NoError(t, err)
		_, err = bk.Cancel("second")
		assert.True(t, domain.HasCode(err, domain.CodeInvalidState))
	})
}

func TestReconstructBooking(t *testing.T) {
	now := time.Now().UTC()
	id := uuid.New()
	stay := mustStay(t, day(2026, 6, 1), day(2026, 6, 4))

	bk := ReconstructBooking(
		id, "RSV-ABC234",
		uuid.New(), uuid.New(), uuid.New(), uuid.New(),
		stay, 2, 3, 90000, domain.CurrencyINR, nil, MethodOnline,
		StateSettled, "", 3, now, now,
	)

	assert.Equal(t, id, bk.ID())
	assert.Equal(t, StateSettled, bk.State())
	assert.Equal(t, int64(3), bk.Version())
	assert.Equal(t, 2, bk.RoomsCount())
}
