package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	bookingDomain "github.com/stayflow/service-reservation/internal/domain/booking"
	"github.com/stayflow/service-reservation/internal/domain/wallet"
	"github.com/stayflow/service-reservation/internal/pkg/domain"
)

// WalletModel is the GORM model for the wallets table.
type WalletModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	BalanceCents int64     `gorm:"not null;default:0"`
	Currency     string    `gorm:"not null;size:3;default:'INR'"`
	Version      int       `gorm:"not null;default:1"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (WalletModel) TableName() string {
	return "wallets"
}

// TransactionModel is the GORM model for the wallet_transactions table.
// Rows are append-only.
type TransactionModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	WalletID        uuid.UUID `gorm:"type:uuid;index;not null"`
	Direction       string    `gorm:"not null;size:10"`
	AmountCents     int64     `gorm:"not null"`
	Currency        string    `gorm:"not null;size:3;default:'INR'"`
	CorrelationKind string    `gorm:"not null;size:20;index:idx_transactions_correlation"`
	CorrelationID   uuid.UUID `gorm:"type:uuid;not null;index:idx_transactions_correlation"`
	Description     string    `gorm:"size:255"`
	CreatedAt       time.Time `gorm:"not null;index"`
}

// TableName returns the table name for the GORM model.
func (TransactionModel) TableName() string {
	return "wallet_transactions"
}

// GormLedgerRepository is the GORM-based implementation of the wallet
// Ledger and of the booking settlement store. Every balance mutation, its
// ledger entries and any accompanying booking flip run in one database
// transaction.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository.
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// GetOrCreateWallet returns the user's wallet, opening an empty one on
// first use. Concurrent first uses race on the unique user index; the
// loser re-reads the winner's row.
func (r *GormLedgerRepository) GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error) {
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user id is required")
	}

	var model WalletModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error
	if err == nil {
		return toDomainWallet(&model), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}

	w, err := wallet.NewWallet(userID)
	if err != nil {
		return nil, err
	}
	model = toWalletModel(w)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isUniqueConstraintError(err) {
			return r.FindWalletByUserID(ctx, userID)
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return toDomainWallet(&model), nil
}

// FindWalletByUserID returns the user's wallet or a not found error.
func (r *GormLedgerRepository) FindWalletByUserID(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error) {
	var model WalletModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Wallet", userID.String())
		}
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}
	return toDomainWallet(&model), nil
}

// Credit adds funds to the user's wallet and records the credit entry.
func (r *GormLedgerRepository) Credit(ctx context.Context, userID uuid.UUID, amountCents int64, kind wallet.CorrelationKind, correlationID uuid.UUID, description string) (*wallet.Wallet, *wallet.Transaction, error) {
	var creditedWallet *wallet.Wallet
	var entry *wallet.Transaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := lockOrCreateWallet(tx, userID)
		if err != nil {
			return err
		}

		w := toDomainWallet(model)
		if err := w.Credit(amountCents); err != nil {
			return err
		}

		entry, err = wallet.NewTransaction(w.ID(), wallet.DirectionCredit, amountCents, kind, correlationID, description)
		if err != nil {
			return err
		}

		if err := writeBalance(tx, w); err != nil {
			return err
		}
		if err := writeEntry(tx, entry); err != nil {
			return err
		}

		creditedWallet = w
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return creditedWallet, entry, nil
}

// Transfer moves funds between two users. Wallet rows are locked in a
// deterministic order so concurrent opposite transfers cannot deadlock.
func (r *GormLedgerRepository) Transfer(ctx context.Context, fromUserID, toUserID uuid.UUID, amountCents int64, correlationID uuid.UUID, description string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fromModel, toModel, err := lockWalletPair(tx, fromUserID, toUserID)
		if err != nil {
			return err
		}

		from := toDomainWallet(fromModel)
		to := toDomainWallet(toModel)

		if err := from.Debit(amountCents); err != nil {
			return err
		}
		if err := to.Credit(amountCents); err != nil {
			return err
		}

		debitEntry, err := wallet.NewTransaction(from.ID(), wallet.DirectionDebit, amountCents, wallet.CorrelationTransfer, correlationID, description)
		if err != nil {
			return err
		}
		creditEntry, err := wallet.NewTransaction(to.ID(), wallet.DirectionCredit, amountCents, wallet.CorrelationTransfer, correlationID, description)
		if err != nil {
			return err
		}

		return writeMovement(tx, from, to, debitEntry, creditEntry)
	})
}

// SettleWalletBooking debits the guest, credits the vendor, records both
// ledger entries and flips the booking to its settled state, all in one
// transaction. The aggregate is only mutated once the money legs succeed,
// so an insufficient-funds failure leaves it untouched.
func (r *GormLedgerRepository) SettleWalletBooking(ctx context.Context, bk *bookingDomain.Booking) error {
	amount := bk.TotalPriceCents()
	description := fmt.Sprintf("booking %s", bk.BookingNumber())

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		guestModel, vendorModel, err := lockWalletPair(tx, bk.GuestID(), bk.VendorID())
		if err != nil {
			return err
		}

		guest := toDomainWallet(guestModel)
		vendor := toDomainWallet(vendorModel)

		if err := guest.Debit(amount); err != nil {
			return err
		}
		if err := vendor.Credit(amount); err != nil {
			return err
		}

		debitEntry, err := wallet.NewTransaction(guest.ID(), wallet.DirectionDebit, amount, wallet.CorrelationBooking, bk.ID(), description)
		if err != nil {
			return err
		}
		creditEntry, err := wallet.NewTransaction(vendor.ID(), wallet.DirectionCredit, amount, wallet.CorrelationBooking, bk.ID(), description)
		if err != nil {
			return err
		}

		if err := writeMovement(tx, guest, vendor, debitEntry, creditEntry); err != nil {
			return err
		}

		if err := bk.MarkSettled(); err != nil {
			return err
		}
		bk.IncrementVersion()
		return updateBookingTx(tx, bk)
	})
}

// SettleExternalBooking credits the vendor for a gateway-captured payment
// and flips the booking to its settled state. The guest paid outside the
// wallet, so only the credit leg is recorded.
func (r *GormLedgerRepository) SettleExternalBooking(ctx context.Context, bk *bookingDomain.Booking) error {
	amount := bk.TotalPriceCents()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		vendorModel, err := lockOrCreateWallet(tx, bk.VendorID())
		if err != nil {
			return err
		}

		vendor := toDomainWallet(vendorModel)
		if err := vendor.Credit(amount); err != nil {
			return err
		}

		entry, err := wallet.NewTransaction(vendor.ID(), wallet.DirectionCredit, amount, wallet.CorrelationBooking, bk.ID(),
			fmt.Sprintf("booking %s (gateway)", bk.BookingNumber()))
		if err != nil {
			return err
		}

		if err := writeBalance(tx, vendor); err != nil {
			return err
		}
		if err := writeEntry(tx, entry); err != nil {
			return err
		}

		if err := bk.MarkSettled(); err != nil {
			return err
		}
		bk.IncrementVersion()
		return updateBookingTx(tx, bk)
	})
}

// RefundAndCancel debits the vendor, credits the guest and persists the
// cancelled booking in one transaction. The vendor debit may overdraw: a
// guest's refund cannot be held hostage by a drained vendor wallet.
func (r *GormLedgerRepository) RefundAndCancel(ctx context.Context, bk *bookingDomain.Booking) error {
	amount := bk.TotalPriceCents()
	description := fmt.Sprintf("refund booking %s", bk.BookingNumber())

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		guestModel, vendorModel, err := lockWalletPair(tx, bk.GuestID(), bk.VendorID())
		if err != nil {
			return err
		}

		guest := toDomainWallet(guestModel)
		vendor := toDomainWallet(vendorModel)

		if err := vendor.DebitOverdraft(amount); err != nil {
			return err
		}
		if err := guest.Credit(amount); err != nil {
			return err
		}

		debitEntry, err := wallet.NewTransaction(vendor.ID(), wallet.DirectionDebit, amount, wallet.CorrelationBooking, bk.ID(), description)
		if err != nil {
			return err
		}
		creditEntry, err := wallet.NewTransaction(guest.ID(), wallet.DirectionCredit, amount, wallet.CorrelationBooking, bk.ID(), description)
		if err != nil {
			return err
		}

		if err := writeMovement(tx, vendor, guest, debitEntry, creditEntry); err != nil {
			return err
		}

		bk.IncrementVersion()
		return updateBookingTx(tx, bk)
	})
}

// TransactionsByWallet lists a wallet's ledger entries, newest first.
func (r *GormLedgerRepository) TransactionsByWallet(ctx context.Context, walletID uuid.UUID, page, limit int) (*domain.PaginatedResult[*wallet.Transaction], error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&TransactionModel{}).Where("wallet_id = ?", walletID).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	var models []TransactionModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	entries := make([]*wallet.Transaction, len(models))
	for i, m := range models {
		entries[i] = toDomainTransaction(&m)
	}
	result := domain.NewPaginatedResult(entries, total, page, limit)
	return &result, nil
}

// TransactionsByCorrelation lists the entries recorded for one business
// event, oldest first so settlement and refund legs read in order.
func (r *GormLedgerRepository) TransactionsByCorrelation(ctx context.Context, kind wallet.CorrelationKind, correlationID uuid.UUID) ([]*wallet.Transaction, error) {
	var models []TransactionModel
	if err := r.db.WithContext(ctx).
		Where("correlation_kind = ? AND correlation_id = ?", string(kind), correlationID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions by correlation: %w", err)
	}

	entries := make([]*wallet.Transaction, len(models))
	for i, m := range models {
		entries[i] = toDomainTransaction(&m)
	}
	return entries, nil
}

// --- Locking helpers ---

// lockOrCreateWallet locks the user's wallet row for update, creating it
// first if the user has never held one.
func lockOrCreateWallet(tx *gorm.DB, userID uuid.UUID) (*WalletModel, error) {
	var model WalletModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&model).Error
	if err == nil {
		return &model, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}

	w, werr := wallet.NewWallet(userID)
	if werr != nil {
		return nil, werr
	}
	model = toWalletModel(w)
	if err := tx.Create(&model).Error; err != nil {
		if isUniqueConstraintError(err) {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&model).Error; err != nil {
				return nil, fmt.Errorf("failed to lock wallet: %w", err)
			}
			return &model, nil
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return &model, nil
}

// lockWalletPair locks both wallets in ascending user ID order so that
// concurrent transfers in opposite directions cannot deadlock.
func lockWalletPair(tx *gorm.DB, firstUserID, secondUserID uuid.UUID) (*WalletModel, *WalletModel, error) {
	if bytes.Compare(firstUserID[:], secondUserID[:]) <= 0 {
		first, err := lockOrCreateWallet(tx, firstUserID)
		if err != nil {
			return nil, nil, err
		}
		second, err := lockOrCreateWallet(tx, secondUserID)
		if err != nil {
			return nil, nil, err
		}
		return first, second, nil
	}

	second, err := lockOrCreateWallet(tx, secondUserID)
	if err != nil {
		return nil, nil, err
	}
	first, err := lockOrCreateWallet(tx, firstUserID)
	if err != nil {
		return nil, nil, err
	}
	return first, second, nil
}

// writeMovement persists both sides of a two-leg movement.
func writeMovement(tx *gorm.DB, debited, credited *wallet.Wallet, debitEntry, creditEntry *wallet.Transaction) error {
	if err := writeBalance(tx, debited); err != nil {
		return err
	}
	if err := writeBalance(tx, credited); err != nil {
		return err
	}
	if err := writeEntry(tx, debitEntry); err != nil {
		return err
	}
	return writeEntry(tx, creditEntry)
}

func writeBalance(tx *gorm.DB, w *wallet.Wallet) error {
	result := tx.Model(&WalletModel{}).
		Where("id = ?", w.ID()).
		Updates(map[string]interface{}{
			"balance_cents": w.BalanceCents(),
			"version":       gorm.Expr("version + 1"),
			"updated_at":    w.UpdatedAt(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update wallet balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("wallet row disappeared during update")
	}
	return nil
}

func writeEntry(tx *gorm.DB, entry *wallet.Transaction) error {
	model := toTransactionModel(entry)
	if err := tx.Create(&model).Error; err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "unique failed")
}

// --- Conversion Helpers ---

func toWalletModel(w *wallet.Wallet) WalletModel {
	return WalletModel{
		ID:           w.ID(),
		UserID:       w.UserID(),
		BalanceCents: w.BalanceCents(),
		Currency:     w.Currency(),
		Version:      w.Version(),
		CreatedAt:    w.CreatedAt(),
		UpdatedAt:    w.UpdatedAt(),
	}
}

func toDomainWallet(m *WalletModel) *wallet.Wallet {
	return wallet.ReconstructWallet(m.ID, m.UserID, m.BalanceCents, m.Currency, m.Version, m.CreatedAt, m.UpdatedAt)
}

func toTransactionModel(t *wallet.Transaction) TransactionModel {
	return TransactionModel{
		ID:              t.ID(),
		WalletID:        t.WalletID(),
		Direction:       string(t.Direction()),
		AmountCents:     t.AmountCents(),
		Currency:        t.Currency(),
		CorrelationKind: string(t.CorrelationKind()),
		CorrelationID:   t.CorrelationID(),
		Description:     t.Description(),
		CreatedAt:       t.CreatedAt(),
	}
}

func toDomainTransaction(m *TransactionModel) *wallet.Transaction {
	return wallet.ReconstructTransaction(
		m.ID,
		m.WalletID,
		wallet.Direction(m.Direction),
		m.AmountCents,
		m.Currency,
		wallet.CorrelationKind(m.CorrelationKind),
		m.CorrelationID,
		m.Description,
		m.CreatedAt,
	)
}
