package infrastructure

import (
	"fmt"
	"log"
	"os"
	"time"

	"marketplace-escrow/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

// DefaultDatabaseConfig returns default database configuration for development
func DefaultDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		Database: getEnv("DB_NAME", "postgres"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

// ConnectDatabase establishes a connection to PostgreSQL database using GORM
func ConnectDatabase(config *DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.Host,
		config.Port,
		config.User,
		config.Password,
		config.Database,
		config.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logger.Silent,
				IgnoreRecordNotFoundError: true,
				Colorful:                  true,
			},
		),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// MigrateAllSchemas performs all database migrations in the correct order
func MigrateAllSchemas(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}); err != nil {
		return fmt.Errorf("failed to migrate User table: %w", err)
	}
	if err := db.AutoMigrate(&model.Product{}); err != nil {
		return fmt.Errorf("failed to migrate Product table: %w", err)
	}
	if err := db.AutoMigrate(&model.Order{}); err != nil {
		return fmt.Errorf("failed to migrate Order table: %w", err)
	}
	if err := db.AutoMigrate(&model.Payment{}); err != nil {
		return fmt.Errorf("failed to migrate Payment table: %w", err)
	}
	if err := db.AutoMigrate(&model.Delivery{}); err != nil {
		return fmt.Errorf("failed to migrate Delivery table: %w", err)
	}
	if err := db.AutoMigrate(&model.Validation{}); err != nil {
		return fmt.Errorf("failed to migrate Validation table: %w", err)
	}
	if err := db.AutoMigrate(&model.Notification{}); err != nil {
		return fmt.Errorf("failed to migrate Notification table: %w", err)
	}
	if err := db.AutoMigrate(&model.DisputeResolution{}); err != nil {
		return fmt.Errorf("failed to migrate DisputeResolution table: %w", err)
	}

	if err := createSettlementIndexes(db); err != nil {
		return fmt.Errorf("failed to create settlement indexes: %w", err)
	}

	return nil
}

// createSettlementIndexes creates the composite indexes the engine queries on
func createSettlementIndexes(db *gorm.DB) error {
	// Overdue delivery scan: delivered orders joined on delivery timestamps
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_deliveries_delivered_at
		ON deliveries(delivered_at)
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_orders_status_updated_at
		ON orders(status, updated_at)
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_notifications_order_sent
		ON notifications(order_id, sent_at)
	`).Error; err != nil {
		return err
	}

	return nil
}
