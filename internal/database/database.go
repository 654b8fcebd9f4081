package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/afzalm/cclms/internal/config"
	"github.com/afzalm/cclms/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxOpenConns / 2)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	DB = db
	slog.Info("database connected", "host", cfg.DBHost, "db", cfg.DBName, "max_open_conns", cfg.DBMaxOpenConns)
	return nil
}

// workQueueIndexes back the admin queues and the auto-close job, which all
// filter on a status plus one ordering column.
var workQueueIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_reports_queue ON reports (status, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_queue ON support_tickets (status, priority, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_resolved ON support_tickets (resolved_at) WHERE status = 'RESOLVED'`,
	`CREATE INDEX IF NOT EXISTS idx_courses_trainer_status ON courses (trainer_id, status)`,
}

// Migrate creates or updates every table, then the queue indexes.
func Migrate() error {
	if err := DB.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Course{},
		&models.Report{},
		&models.ModerationAction{},
		&models.SupportTicket{},
		&models.TicketMessage{},
		&models.SystemLog{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	for _, stmt := range workQueueIndexes {
		if err := DB.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

func Ping() error {
	if DB == nil {
		return fmt.Errorf("database not connected")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
