package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"courtpulse/internal/model"
)

// ErrOpenSessionExists is returned when inserting a session collides with
// the partial unique index on open sessions: the user already has an open
// session somewhere.
var ErrOpenSessionExists = errors.New("user already has an open session")

const pgUniqueViolation = "23505"

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts an open session. The one-open-session-per-user invariant is
// carried entirely by the database index, so concurrent check-ins for the
// same user resolve to exactly one success.
func (r *SessionRepository) Create(ctx context.Context, session *model.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrOpenSessionExists
		}
		return fmt.Errorf("create session failed: %w", err)
	}
	return nil
}

// Close stamps the open session for (userID, courtID) in a single conditional
// UPDATE; the WHERE clause doubles as the precondition check. Returns nil when
// no open session matched.
func (r *SessionRepository) Close(ctx context.Context, userID, courtID string, at time.Time) (*model.Session, error) {
	var session model.Session
	result := r.db.WithContext(ctx).
		Model(&session).
		Clauses(clause.Returning{}).
		Where("user_id = ? AND court_id = ? AND checkout_timestamp IS NULL", userID, courtID).
		Update("checkout_timestamp", at)
	if result.Error != nil {
		return nil, fmt.Errorf("close session failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &session, nil
}

// CloseAllByCourt stamps every open session at a court and returns the closed
// rows, oldest check-in first.
func (r *SessionRepository) CloseAllByCourt(ctx context.Context, courtID string, at time.Time) ([]model.Session, error) {
	var sessions []model.Session
	result := r.db.WithContext(ctx).
		Model(&sessions).
		Clauses(clause.Returning{}).
		Where("court_id = ? AND checkout_timestamp IS NULL", courtID).
		Update("checkout_timestamp", at)
	if result.Error != nil {
		return nil, fmt.Errorf("close sessions by court failed: %w", result.Error)
	}
	return sessions, nil
}

func (r *SessionRepository) CountOpenByCourt(ctx context.Context, courtID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("court_id = ? AND checkout_timestamp IS NULL", courtID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count open sessions failed: %w", err)
	}
	return count, nil
}

func (r *SessionRepository) ListOpenByCourt(ctx context.Context, courtID string) ([]model.Session, error) {
	var sessions []model.Session
	if err := r.db.WithContext(ctx).
		Where("court_id = ? AND checkout_timestamp IS NULL", courtID).
		Order("checkin_timestamp ASC").
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list open sessions failed: %w", err)
	}
	return sessions, nil
}

// ListOpenByUser returns every open session for a user. A healthy ledger
// yields zero or one row; more than one means the open-session index was
// bypassed and the caller should treat the ledger as corrupt.
func (r *SessionRepository) ListOpenByUser(ctx context.Context, userID string) ([]model.Session, error) {
	var sessions []model.Session
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND checkout_timestamp IS NULL", userID).
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list open sessions by user failed: %w", err)
	}
	return sessions, nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.Session, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var sessions []model.Session
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("checkin_timestamp DESC").
		Limit(limit).
		Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions by user failed: %w", err)
	}
	return sessions, nil
}
