package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"courtpulse/internal/model"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *model.AttendanceEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create attendance event failed: %w", err)
	}
	return nil
}

func (r *EventRepository) ListBySession(ctx context.Context, sessionID uint) ([]model.AttendanceEvent, error) {
	var events []model.AttendanceEvent
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("occurred_at ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list attendance events failed: %w", err)
	}
	return events, nil
}
