//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/stayflow/service-reservation/internal/application"
	"github.com/stayflow/service-reservation/internal/domain/catalog"
	"github.com/stayflow/service-reservation/internal/domain/pricing"
	reservationEvents "github.com/stayflow/service-reservation/internal/events"
	"github.com/stayflow/service-reservation/internal/pkg/domain"
	"github.com/stayflow/service-reservation/internal/pkg/events"
	"github.com/stayflow/service-reservation/internal/pkg/kafka"
	"github.com/stayflow/service-reservation/internal/repository"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// reservationStack holds wired-up reservation service components.
type reservationStack struct {
	Service         *application.BookingService
	Wallets         *application.WalletService
	Ledger          *repository.GormLedgerRepository
	Consumer        *reservationEvents.GatewayEventConsumer
	CleanupProducer func()
}

// stubCatalog serves a fixed room; the catalog service is out of process
// in production and none of these scenarios exercise it.
type stubCatalog struct {
	room *catalog.Room
}

func (s stubCatalog) RoomByID(ctx context.Context, roomID uuid.UUID) (*catalog.Room, error) {
	if s.room != nil && s.room.ID == roomID {
		return s.room, nil
	}
	return nil, domain.NewNotFoundError("Room", roomID.String())
}

func (s stubCatalog) ActiveOffers(ctx context.Context, hotelID uuid.UUID, roomType string, checkIn time.Time) ([]pricing.Offer, error) {
	return nil, nil
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_reservation",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_reservation sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.AutoMigrate(&repository.BookingModel{}, &repository.WalletModel{}, &repository.TransactionModel{}))

	// Start Kafka container using confluent-local (supports KRaft natively).
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, events.TopicReservationEvents, events.TopicGatewayEvents)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupReservationStack wires up the full reservation service stack.
func setupReservationStack(t *testing.T, db *gorm.DB, brokers []string, room *catalog.Room) *reservationStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	bookingRepo := repository.NewGormBookingRepository(db)
	ledgerRepo := repository.NewGormLedgerRepository(db)
	catalogStub := stubCatalog{room: room}
	producer := kafka.NewProducer(brokers, logger)

	availabilitySvc := application.NewAvailabilityService(bookingRepo, catalogStub, catalogStub, logger)
	walletSvc := application.NewWalletService(ledgerRepo, logger)
	bookingSvc := application.NewBookingService(bookingRepo, catalogStub, availabilitySvc, ledgerRepo, ledgerRepo, producer, logger)

	groupID := fmt.Sprintf("test-reservation-%s", uuid.New().String()[:8])
	consumer := reservationEvents.NewGatewayEventConsumer(brokers, groupID, bookingSvc, walletSvc, logger)

	return &reservationStack{
		Service:         bookingSvc,
		Wallets:         walletSvc,
		Ledger:          ledgerRepo,
		Consumer:        consumer,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// seedPendingOnlineBooking inserts a booking awaiting a gateway capture.
func seedPendingOnlineBooking(t *testing.T, db *gorm.DB, bookingID, guestID, roomID, vendorID uuid.UUID, totalCents int64) {
	t.Helper()
	now := time.Now().UTC()

	model := repository.BookingModel{
		ID:              bookingID,
		BookingNumber:   fmt.Sprintf("RSV-INT%s", uuid.New().String()[:3]),
		GuestID:         guestID,
		HotelID:         uuid.New(),
		RoomID:          roomID,
		VendorID:        vendorID,
		CheckIn:         now.AddDate(0, 0, 30).Truncate(24 * time.Hour),
		CheckOut:        now.AddDate(0, 0, 33).Truncate(24 * time.Hour),
		RoomsCount:      1,
		Guests:          2,
		TotalPriceCents: totalCents,
		Currency:        "INR",
		PaymentMethod:   "online",
		Status:          "pending",
		PaymentStatus:   "pending",
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed booking")
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForBookingState polls the bookings table until both halves of the
// state match.
func waitForBookingState(t *testing.T, db *gorm.DB, bookingID uuid.UUID, status, payment string, timeout time.Duration) repository.BookingModel {
	t.Helper()
	var result repository.BookingModel
	require.Eventually(t, func() bool {
		var model repository.BookingModel
		err := db.Where("id = ?", bookingID).First(&model).Error
		if err != nil {
			return false
		}
		if model.Status == status && model.PaymentStatus == payment {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "booking did not reach (%s, %s)", status, payment)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
