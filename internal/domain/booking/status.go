package booking

import "fmt"

// Status is the reservation half of the booking lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus is the settlement half of the booking lifecycle.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentSuccess  PaymentStatus = "success"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// State is the joint booking lifecycle state. Status and payment are not
// fully crossed: only the combinations in validTransitions are reachable.
type State struct {
	Status  Status
	Payment PaymentStatus
}

// String renders the joint state as "status/payment".
func (s State) String() string {
	return string(s.Status) + "/" + string(s.Payment)
}

var (
	StateCreated          = State{StatusPending, PaymentPending}
	StateSettled          = State{StatusConfirmed, PaymentSuccess}
	StateSettlementFailed = State{StatusPending, PaymentFailed}

	// Cancellation targets depend on the prior payment state.
	StateCancelledUnpaid   = State{StatusCancelled, PaymentPending}
	StateCancelledFailed   = State{StatusCancelled, PaymentFailed}
	StateCancelledRefunded = State{StatusCancelled, PaymentRefunded}
)

// validTransitions defines the joint state machine. Absence means illegal;
// illegal transitions are rejected with a domain error, never no-op'd,
// because a silent no-op would mask double-refund bugs.
var validTransitions = map[State][]State{
	StateCreated:          {StateSettled, StateSettlementFailed, StateCancelledUnpaid},
	StateSettlementFailed: {StateSettled, StateCancelledFailed},
	StateSettled:          {StateCancelledRefunded},

	StateCancelledUnpaid:   {},
	StateCancelledFailed:   {},
	StateCancelledRefunded: {},
}

// IsValid reports whether the joint state is reachable.
func (s State) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo reports whether moving from this state to target is legal.
func (s State) CanTransitionTo(target State) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// cancelTarget returns the cancelled state reached from this state, and
// whether cancellation is legal at all.
func (s State) cancelTarget() (State, bool) {
	for _, t := range validTransitions[s] {
		if t.Status == StatusCancelled {
			return t, true
		}
	}
	return State{}, false
}

// ParseState validates persisted status/payment strings.
func ParseState(status, payment string) (State, error) {
	s := State{Status: Status(status), Payment: PaymentStatus(payment)}
	if !s.IsValid() {
		return State{}, fmt.Errorf("invalid booking state: %s/%s", status, payment)
	}
	return s, nil
}
