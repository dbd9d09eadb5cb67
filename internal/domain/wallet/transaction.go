package wallet

import (
	"time"

	"github.com/google/uuid"

	"github.com/stayflow/service-reservation/internal/pkg/domain"
)

// Direction marks which side of the ledger an entry sits on.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// CorrelationKind names the business event a ledger entry belongs to.
type CorrelationKind string

const (
	CorrelationBooking      CorrelationKind = "booking"
	CorrelationSubscription CorrelationKind = "subscription"
	CorrelationTopup        CorrelationKind = "topup"
	CorrelationTransfer     CorrelationKind = "transfer"
)

func (k CorrelationKind) IsValid() bool {
	switch k {
	case CorrelationBooking, CorrelationSubscription, CorrelationTopup, CorrelationTransfer:
		return true
	}
	return false
}

// Transaction is one immutable ledger entry. Entries are only ever created,
// never updated or deleted; a wallet balance equals the sum of its credits
// minus the sum of its debits.
type Transaction struct {
	id              uuid.UUID
	walletID        uuid.UUID
	direction       Direction
	amountCents     int64
	currency        string
	correlationKind CorrelationKind
	correlationID   uuid.UUID
	description     string
	createdAt       time.Time
}

// NewTransaction records one ledger entry against a wallet.
func NewTransaction(walletID uuid.UUID, direction Direction, amountCents int64, kind CorrelationKind, correlationID uuid.UUID, description string) (*Transaction, error) {
	if walletID == uuid.Nil {
		return nil, domain.NewValidationError("wallet id is required")
	}
	if direction != DirectionCredit && direction != DirectionDebit {
		return nil, domain.NewValidationError("invalid transaction direction")
	}
	if amountCents <= 0 {
		return nil, domain.NewValidationError("transaction amount must be positive")
	}
	if !kind.IsValid() {
		return nil, domain.NewValidationError("invalid correlation kind")
	}
	if correlationID == uuid.Nil {
		return nil, domain.NewValidationError("correlation id is required")
	}
	return &Transaction{
		id:              uuid.New(),
		walletID:        walletID,
		direction:       direction,
		amountCents:     amountCents,
		currency:        domain.CurrencyINR,
		correlationKind: kind,
		correlationID:   correlationID,
		description:     description,
		createdAt:       time.Now(),
	}, nil
}

// ReconstructTransaction rebuilds a ledger entry from persistence.
func ReconstructTransaction(id, walletID uuid.UUID, direction Direction, amountCents int64, currency string, kind CorrelationKind, correlationID uuid.UUID, description string, createdAt time.Time) *Transaction {
	return &Transaction{
		id:              id,
		walletID:        walletID,
		direction:       direction,
		amountCents:     amountCents,
		currency:        currency,
		correlationKind: kind,
		correlationID:   correlationID,
		description:     description,
		createdAt:       createdAt,
	}
}

func (t *Transaction) ID() uuid.UUID                    { return t.id }
func (t *Transaction) WalletID() uuid.UUID              { return t.walletID }
func (t *Transaction) Direction() Direction             { return t.direction }
func (t *Transaction) AmountCents() int64               { return t.amountCents }
func (t *Transaction) Currency() string                 { return t.currency }
func (t *Transaction) CorrelationKind() CorrelationKind { return t.correlationKind }
func (t *Transaction) CorrelationID() uuid.UUID         { return t.correlationID }
func (t *Transaction) Description() string              { return t.description }
func (t *Transaction) CreatedAt() time.Time             { return t.createdAt }

// SignedAmount is the entry's contribution to the wallet balance.
func (t *Transaction) SignedAmount() int64 {
	if t.direction == DirectionDebit {
		return -t.amountCents
	}
	return t.amountCents
}
