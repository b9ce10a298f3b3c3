package database

import (
	"fmt"
	"time"

	"github.com/mroshb/anon_chat/internal/config"
	"github.com/mroshb/anon_chat/internal/models"
	"github.com/mroshb/anon_chat/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDSN()

	var logLevel gormlogger.LogLevel
	if cfg.AppEnv == "development" {
		logLevel = gormlogger.Info
	} else {
		logLevel = gormlogger.Error
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		// Pairing and reveal updates open their own transactions
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	logger.Info("Database connected successfully")
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.QueueEntry{},
		&models.ChatSession{},
		&models.RecentPartner{},
		&models.Setting{},
		&models.Rating{},
		&models.Complaint{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// SeedSettings inserts default settings rows that do not exist yet.
// Existing values are kept.
func SeedSettings(db *gorm.DB, defaults map[string]string) error {
	for key, value := range defaults {
		setting := models.Setting{Key: key, Value: value}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&setting).Error; err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", key, err)
		}
	}
	return nil
}

// CloseStaleSessions deactivates active sessions started before maxAge ago.
// Sessions younger than that are left for lazy recovery on the next message.
func CloseStaleSessions(db *gorm.DB, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	result := db.Model(&models.ChatSession{}).
		Where("active = ? AND started_at < ?", true, now.Add(-maxAge)).
		Updates(map[string]interface{}{
			"active":   false,
			"ended_at": now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to close stale sessions: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		logger.Info("Closed stale sessions", "count", result.RowsAffected, "max_age", maxAge.String())
	}
	return result.RowsAffected, nil
}
