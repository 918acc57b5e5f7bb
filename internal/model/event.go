package model

import "time"

const (
	EventCheckIn  = "check_in"
	EventCheckOut = "check_out"
)

// AttendanceEvent is one append-only audit record, persisted
// asynchronously by the event worker.
type AttendanceEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SessionID  uint      `gorm:"not null;index" json:"session_id"`
	UserID     string    `gorm:"size:64;not null;index" json:"user_id"`
	CourtID    string    `gorm:"size:64;not null;index" json:"court_id"`
	Kind       string    `gorm:"size:16;not null" json:"kind"`
	OccurredAt time.Time `gorm:"not null" json:"occurred_at"`
}

func (AttendanceEvent) TableName() string {
	return "attendance_events"
}
