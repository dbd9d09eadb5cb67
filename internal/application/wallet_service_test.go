package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stayflow/service-reservation/internal/domain/wallet"
	"github.com/stayflow/service-reservation/internal/pkg/domain"
)

func TestAddMoney(t *testing.T) {
	t.Run("credits within the cap", func(t *testing.T) {
		ledger := new(MockLedger)
		svc := NewWalletService(ledger, zap.NewNop())
		userID := uuid.New()

		now := time.Now().UTC()
		w := wallet.ReconstructWallet(uuid.New(), userID, 25000, domain.CurrencyINR, 2, now, now)
		entry, err := wallet.NewTransaction(w.ID(), wallet.DirectionCredit, 25000, wallet.CorrelationTopup, uuid.New(), "wallet top-up")
		require.NoError(t, err)
		ledger.On("Credit", mock.Anything, userID, int64(25000), wallet.CorrelationTopup, mock.Anything, "wallet top-up").
			Return(w, entry, nil)

		result, err := svc.AddMoney(context.Background(), userID, 25000)
		require.NoError(t, err)
		assert.Equal(t, int64(25000), result.BalanceCents)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		svc := NewWalletService(new(MockLedger), zap.NewNop())

		_, err := svc.AddMoney(context.Background(), uuid.New(), 0)
		assert.True(t, domain.HasCode(err, domain.CodeValidation))

		_, err = svc.AddMoney(context.Background(), uuid.New(), -500)
		assert.True(t, domain.HasCode(err, domain.CodeValidation))
	})

	t.Run("rejects amounts over the cap", func(t *testing.T) {
		svc := NewWalletService(new(MockLedger), zap.NewNop())

		_, err := svc.AddMoney(context.Background(), uuid.New(), maxTopupCents+1)
		assert.True(t, domain.HasCode(err, domain.CodeValidation))
	})
}

func TestTransferValidation(t *testing.T) {
	svc := NewWalletService(new(MockLedger), zap.NewNop())
	ctx := context.Background()
	userID := uuid.New()

	err := svc.Transfer(ctx, userID, uuid.New(), 0)
	assert.True(t, domain.HasCode(err, domain.CodeValidation))

	err = svc.Transfer(ctx, userID, uuid.Nil, 1000)
	assert.True(t, domain.HasCode(err, domain.CodeValidation))

	err = svc.Transfer(ctx, userID, userID, 1000)
	assert.True(t, domain.HasCode(err, domain.CodeValidation))
}

func TestTransferDelegatesToLedger(t *testing.T) {
	ledger := new(MockLedger)
	svc := NewWalletService(ledger, zap.NewNop())
	from := uuid.New()
	to := uuid.New()

	ledger.On("Transfer", mock.Anything, from, to, int64(3000), mock.Anything, "wallet transfer").Return(nil)

	require.NoError(t, svc.Transfer(context.Background(), from, to, 3000))
	ledger.AssertExpectations(t)
}

func TestTopupFromGatewayValidation(t *testing.T) {
	svc := NewWalletService(new(MockLedger), zap.NewNop())

	err := svc.TopupFromGateway(context.Background(), uuid.New(), -1, "pg_ref")
	assert.True(t, domain.HasCode(err, domain.CodeValidation))
}
