package wallet

import (
	"context"

	"github.com/google/uuid"

	"github.com/stayflow/service-reservation/internal/pkg/domain"
)

// Ledger persists wallets and their transaction entries. Every balance
// mutation and its ledger entry commit in the same database transaction.
type Ledger interface {
	// GetOrCreateWallet returns the user's wallet, opening an empty one on
	// first use.
	GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*Wallet, error)

	// FindWalletByUserID returns the user's wallet or a not found error.
	FindWalletByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error)

	// Credit adds funds to the user's wallet and records the credit entry.
	Credit(ctx context.Context, userID uuid.UUID, amountCents int64, kind CorrelationKind, correlationID uuid.UUID, description string) (*Wallet, *Transaction, error)

	// Transfer moves funds between two users. The debit, the credit and both
	// ledger entries commit together or not at all.
	Transfer(ctx context.Context, fromUserID, toUserID uuid.UUID, amountCents int64, correlationID uuid.UUID, description string) error

	// TransactionsByWallet lists a wallet's ledger entries, newest first.
	TransactionsByWallet(ctx context.Context, walletID uuid.UUID, page, limit int) (*domain.PaginatedResult[*Transaction], error)

	// TransactionsByCorrelation lists the entries recorded for one business
	// event, such as all legs of a booking settlement.
	TransactionsByCorrelation(ctx context.Context, kind CorrelationKind, correlationID uuid.UUID) ([]*Transaction, error)
}
