package wallet

import (
	"time"

	"github.com/google/uuid"

	"github.com/stayflow/service-reservation/internal/pkg/domain"
)

// Wallet is the balance aggregate for one user. The balance is the derived
// sum of ledger credits minus debits and is never mutated except through a
// transaction that also records the matching ledger entry.
type Wallet struct {
	id           uuid.UUID
	userID       uuid.UUID
	balanceCents int64
	currency     string
	version      int
	createdAt    time.Time
	updatedAt    time.Time
}

// NewWallet opens an empty wallet for a user.
func NewWallet(userID uuid.UUID) (*Wallet, error) {
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user id is required")
	}
	now := time.Now()
	return &Wallet{
		id:        uuid.New(),
		userID:    userID,
		currency:  domain.CurrencyINR,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructWallet rebuilds a wallet from persistence.
func ReconstructWallet(id, userID uuid.UUID, balanceCents int64, currency string, version int, createdAt, updatedAt time.Time) *Wallet {
	return &Wallet{
		id:           id,
		userID:       userID,
		balanceCents: balanceCents,
		currency:     currency,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (w *Wallet) ID() uuid.UUID        { return w.id }
func (w *Wallet) UserID() uuid.UUID    { return w.userID }
func (w *Wallet) BalanceCents() int64  { return w.balanceCents }
func (w *Wallet) Currency() string     { return w.currency }
func (w *Wallet) Version() int         { return w.version }
func (w *Wallet) CreatedAt() time.Time { return w.createdAt }
func (w *Wallet) UpdatedAt() time.Time { return w.updatedAt }

// Credit increases the balance.
func (w *Wallet) Credit(amountCents int64) error {
	if amountCents <= 0 {
		return domain.NewValidationError("credit amount must be positive")
	}
	w.balanceCents += amountCents
	w.updatedAt = time.Now()
	return nil
}

// Debit decreases the balance. The balance never goes negative.
func (w *Wallet) Debit(amountCents int64) error {
	if amountCents <= 0 {
		return domain.NewValidationError("debit amount must be positive")
	}
	if w.balanceCents < amountCents {
		return domain.NewInsufficientFundsError("wallet balance too low")
	}
	w.balanceCents -= amountCents
	w.updatedAt = time.Now()
	return nil
}

// DebitOverdraft decreases the balance even below zero. Reserved for
// compensating refunds: a guest's cancellation cannot be blocked by a
// drained vendor wallet, the shortfall is recovered from future credits.
func (w *Wallet) DebitOverdraft(amountCents int64) error {
	if amountCents <= 0 {
		return domain.NewValidationError("debit amount must be positive")
	}
	w.balanceCents -= amountCents
	w.updatedAt = time.Now()
	return nil
}
