package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateTransitions(t *testing.T) {
	t.Run("created can settle, fail or cancel", func(t *testing.T) {
		assert.True(t, StateCreated.CanTransitionTo(StateSettled))
		assert.True(t, StateCreated.CanTransitionTo(StateSettlementFailed))
		assert.True(t, StateCreated.CanTransitionTo(StateCancelledUnpaid))
	})

	t.Run("failed settlement can retry or cancel", func(t *testing.T) {
		assert.True(t, StateSettlementFailed.CanTransitionTo(StateSettled))
		assert.True(t, StateSettlementFailed.CanTransitionTo(StateCancelledFailed))
		assert.False(t, StateSettlementFailed.CanTransitionTo(StateCancelledUnpaid))
	})

	t.Run("settled can only cancel with refund", func(t *testing.T) {
		assert.True(t, StateSettled.CanTransitionTo(StateCancelledRefunded))
		assert.False(t, StateSettled.CanTransitionTo(StateSettlementFailed))
		assert.False(t, StateSettled.CanTransitionTo(StateCreated))
	})

	t.Run("cancelled states are terminal", func(t *testing.T) {
		for _, s := range []State{StateCancelledUnpaid, StateCancelledFailed, StateCancelledRefunded} {
			assert.True(t, s.IsTerminal(), s.String())
			assert.False(t, s.CanTransitionTo(StateSettled), s.String())
		}
	})

	t.Run("settling twice is illegal", func(t *testing.T) {
		assert.False(t, StateSettled.CanTransitionTo(StateSettled))
	})

	t.Run("unreachable combinations are invalid", func(t *testing.T) {
		assert.False(t, State{StatusConfirmed, PaymentPending}.IsValid())
		assert.False(t, State{StatusConfirmed, PaymentFailed}.IsValid())
		assert.False(t, State{StatusPending, PaymentRefunded}.IsValid())
	})
}

func TestParseState(t *testing.T) {
	state, err := ParseState("pending", "failed")
	require.NoError(t, err)
	assert.Equal(t, StateSettlementFailed, state)

	_, err = ParseState("confirmed", "pending")
	assert.Error(t, err)

	_, err = ParseState("bogus", "pending")
	assert.Error(t, err)
}
