package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	bookingDomain "github.com/stayflow/service-reservation/internal/domain/booking"
	"github.com/stayflow/service-reservation/internal/pkg/domain"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&BookingModel{}, &WalletModel{}, &TransactionModel{}))
	return db
}

func mustStay(t *testing.T, checkIn, checkOut time.Time) bookingDomain.StayRange {
	t.Helper()
	stay, err := bookingDomain.NewStayRange(checkIn, checkOut)
	require.NoError(t, err)
	return stay
}

func newTestBooking(t *testing.T, guestID, roomID, vendorID uuid.UUID, stay bookingDomain.StayRange, roomsCount int, totalCents int64) *bookingDomain.Booking {
	t.Helper()
	bk, err := bookingDomain.NewBooking(
		guestID, uuid.New(), roomID, vendorID,
		stay, roomsCount, 2, totalCents, domain.CurrencyINR,
		nil, bookingDomain.MethodWallet,
	)
	require.NoError(t, err)
	return bk
}
