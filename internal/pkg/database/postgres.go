package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stayflow/service-reservation/internal/pkg/config"
)

// ErrAtomicityUnsupported is returned when the connected store cannot provide
// the transactional row locking the settlement path depends on. The service
// must refuse to start rather than degrade to non-atomic writes.
var ErrAtomicityUnsupported = errors.New("database: dialect does not support transactional row locking")

// Connect opens a gorm connection to postgres with sane pool settings.
func Connect(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info("connected to postgres",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.DBName),
	)
	return db, nil
}

// EnsureAtomicitySupport verifies the connected dialect can serialize the
// debit/credit settlement unit: postgres via SELECT ... FOR UPDATE, sqlite
// via its single-writer transaction model (tests only).
func EnsureAtomicitySupport(db *gorm.DB) error {
	switch db.Dialector.Name() {
	case "postgres", "sqlite":
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrAtomicityUnsupported, db.Dialector.Name())
	}
}

// RunMigrations applies SQL migrations from the given directory.
func RunMigrations(databaseURL, dir string, log *zap.Logger) error {
	m, err := migrate.New("file://"+dir, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Info("database migrations applied", zap.String("dir", dir))
	return nil
}
