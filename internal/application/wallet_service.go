package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stayflow/service-reservation/internal/domain/wallet"
	"github.com/stayflow/service-reservation/internal/pkg/domain"
)

// maxTopupCents caps a single wallet top-up at 5,00,000 INR.
const maxTopupCents = 50_000_000

// WalletDTO is the response representation of a wallet.
type WalletDTO struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	BalanceCents int64     `json:"balance_cents"`
	Currency     string    `json:"currency"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TransactionDTO is the response representation of a ledger entry.
type TransactionDTO struct {
	ID              uuid.UUID `json:"id"`
	WalletID        uuid.UUID `json:"wallet_id"`
	Direction       string    `json:"direction"`
	AmountCents     int64     `json:"amount_cents"`
	Currency        string    `json:"currency"`
	CorrelationKind string    `json:"correlation_kind"`
	CorrelationID   uuid.UUID `json:"correlation_id"`
	Description     string    `json:"description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// WalletService handles wallet balances, top-ups and transfers. Booking
// settlements go through the BookingService, never here.
type WalletService struct {
	ledger wallet.Ledger
	logger *zap.Logger
}

// NewWalletService creates a new WalletService.
func NewWalletService(ledger wallet.Ledger, logger *zap.Logger) *WalletService {
	return &WalletService{ledger: ledger, logger: logger}
}

// GetBalance returns the user's wallet, opening an empty one on first use.
func (s *WalletService) GetBalance(ctx context.Context, userID uuid.UUID) (*WalletDTO, error) {
	w, err := s.ledger.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	result := toWalletDTO(w)
	return &result, nil
}

// AddMoney credits the user's wallet and records a top-up ledger entry.
func (s *WalletService) AddMoney(ctx context.Context, userID uuid.UUID, amountCents int64) (*WalletDTO, error) {
	if amountCents <= 0 {
		return nil, domain.NewValidationError("top-up amount must be positive")
	}
	if amountCents > maxTopupCents {
		return nil, domain.NewValidationError(fmt.Sprintf("top-up amount exceeds the limit of %d", maxTopupCents))
	}

	w, _, err := s.ledger.Credit(ctx, userID, amountCents, wallet.CorrelationTopup, uuid.New(), "wallet top-up")
	if err != nil {
		return nil, err
	}

	s.logger.Info("wallet topped up",
		zap.String("user_id", userID.String()),
		zap.Int64("amount_cents", amountCents),
	)

	result := toWalletDTO(w)
	return &result, nil
}

// TopupFromGateway credits a wallet for a payment captured by the external
// gateway on the user's behalf.
func (s *WalletService) TopupFromGateway(ctx context.Context, userID uuid.UUID, amountCents int64, gatewayRef string) error {
	if amountCents <= 0 {
		return domain.NewValidationError("top-up amount must be positive")
	}

	_, _, err := s.ledger.Credit(ctx, userID, amountCents, wallet.CorrelationTopup, uuid.New(),
		fmt.Sprintf("gateway top-up %s", gatewayRef))
	if err != nil {
		return err
	}

	s.logger.Info("gateway top-up credited",
		zap.String("user_id", userID.String()),
		zap.Int64("amount_cents", amountCents),
		zap.String("gateway_ref", gatewayRef),
	)
	return nil
}

// Transfer moves money between two users' wallets. Both legs and both
// ledger entries commit atomically.
func (s *WalletService) Transfer(ctx context.Context, fromUserID, toUserID uuid.UUID, amountCents int64) error {
	if amountCents <= 0 {
		return domain.NewValidationError("transfer amount must be positive")
	}
	if toUserID == uuid.Nil {
		return domain.NewValidationError("recipient is required")
	}
	if fromUserID == toUserID {
		return domain.NewValidationError("cannot transfer to the same wallet")
	}

	if err := s.ledger.Transfer(ctx, fromUserID, toUserID, amountCents, uuid.New(), "wallet transfer"); err != nil {
		return err
	}

	s.logger.Info("wallet transfer completed",
		zap.String("from_user_id", fromUserID.String()),
		zap.String("to_user_id", toUserID.String()),
		zap.Int64("amount_cents", amountCents),
	)
	return nil
}

// GetTransactions lists the user's ledger entries, newest first.
func (s *WalletService) GetTransactions(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[TransactionDTO], error) {
	w, err := s.ledger.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	txs, err := s.ledger.TransactionsByWallet(ctx, w.ID(), page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	dtos := make([]TransactionDTO, len(txs.Items))
	for i, tx := range txs.Items {
		dtos[i] = toTransactionDTO(tx)
	}
	result := domain.NewPaginatedResult(dtos, txs.Total, page, limit)
	return &result, nil
}

func toWalletDTO(w *wallet.Wallet) WalletDTO {
	return WalletDTO{
		ID:           w.ID(),
		UserID:       w.UserID(),
		BalanceCents: w.BalanceCents(),
		Currency:     w.Currency(),
		UpdatedAt:    w.UpdatedAt(),
	}
}

func toTransactionDTO(tx *wallet.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:              tx.ID(),
		WalletID:        tx.WalletID(),
		Direction:       string(tx.Direction()),
		AmountCents:     tx.AmountCents(),
		Currency:        tx.Currency(),
		CorrelationKind: string(tx.CorrelationKind()),
		CorrelationID:   tx.CorrelationID(),
		Description:     tx.Description(),
		CreatedAt:       tx.CreatedAt(),
	}
}
