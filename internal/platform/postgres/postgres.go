package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// openSessionIndex enforces the one-open-session-per-user invariant at the
// data layer. Check-in relies on it instead of a check-then-insert sequence.
const openSessionIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_open_user
ON sessions (user_id)
WHERE checkout_timestamp IS NULL`

func New(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get postgres sql db failed: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping postgres failed: %w", err)
	}

	return db, nil
}

// EnsureOpenSessionIndex creates the partial unique index guarding open
// sessions. Must run after the sessions table is migrated.
func EnsureOpenSessionIndex(db *gorm.DB) error {
	if err := db.Exec(openSessionIndex).Error; err != nil {
		return fmt.Errorf("create open session index failed: %w", err)
	}
	return nil
}
