package model

import "time"

// Session is one check-in-to-check-out interval for a user at a court.
// A nil CheckoutTimestamp means the session is open and the user is
// counted as present. Rows are never deleted; closed rows are history.
type Session struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            string     `gorm:"size:64;not null;index" json:"user_id"`
	CourtID           string     `gorm:"size:64;not null;index" json:"court_id"`
	CheckinTimestamp  time.Time  `gorm:"not null" json:"checkin_timestamp"`
	CheckoutTimestamp *time.Time `json:"checkout_timestamp"`
}

func (Session) TableName() string {
	return "sessions"
}

// Open reports whether the session has not been checked out yet.
func (s *Session) Open() bool {
	return s.CheckoutTimestamp == nil
}
