package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"courtpulse/internal/model"
	"courtpulse/internal/repository"
)

var (
	ErrInvalidInput     = errors.New("userId and courtId are required")
	ErrAlreadyCheckedIn = errors.New("user is already checked in")
	ErrNoActiveSession  = errors.New("no active check-in for this user at this court")
	ErrStorageTimeout   = errors.New("storage request timed out")
	ErrLedgerCorrupt    = errors.New("multiple open sessions found for one user")
)

// SessionStore is the persistence surface the ledger needs. Implemented by
// repository.SessionRepository.
type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	Close(ctx context.Context, userID, courtID string, at time.Time) (*model.Session, error)
	CloseAllByCourt(ctx context.Context, courtID string, at time.Time) ([]model.Session, error)
	CountOpenByCourt(ctx context.Context, courtID string) (int64, error)
	ListOpenByCourt(ctx context.Context, courtID string) ([]model.Session, error)
	ListOpenByUser(ctx context.Context, userID string) ([]model.Session, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Session, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event model.AttendanceEvent) error
}

type HeadCountCache interface {
	Get(ctx context.Context, courtID string) (int64, bool, error)
	Set(ctx context.Context, courtID string, count int64) error
	Delete(ctx context.Context, courtID string) error
	MarkDirty(ctx context.Context, courtID string) error
	IsDirty(ctx context.Context, courtID string) (bool, error)
}

type LedgerService struct {
	store          SessionStore
	publisher      EventPublisher
	cache          HeadCountCache
	storageTimeout time.Duration
}

func NewLedgerService(
	store SessionStore,
	publisher EventPublisher,
	cache HeadCountCache,
	storageTimeout time.Duration,
) *LedgerService {
	if storageTimeout <= 0 {
		storageTimeout = 3 * time.Second
	}
	return &LedgerService{
		store:          store,
		publisher:      publisher,
		cache:          cache,
		storageTimeout: storageTimeout,
	}
}

// CheckIn opens a session for the user at the court. The single INSERT is the
// whole operation: the partial unique index on open sessions rejects a second
// open session for the same user, at any court, without a read-before-write.
func (s *LedgerService) CheckIn(ctx context.Context, userID, courtID string) (*model.Session, error) {
	userID, courtID, err := normalizeIDs(userID, courtID)
	if err != nil {
		return nil, err
	}

	session := &model.Session{
		UserID:           userID,
		CourtID:          courtID,
		CheckinTimestamp: time.Now().UTC(),
	}

	storeCtx, cancel := s.boundedCtx(ctx)
	defer cancel()
	if err := s.store.Create(storeCtx, session); err != nil {
		if errors.Is(err, repository.ErrOpenSessionExists) {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, s.mapStorageErr(err)
	}

	s.invalidateHeadCount(courtID)
	s.publishEvent(session, model.EventCheckIn, session.CheckinTimestamp)
	return session, nil
}

// CheckOut closes the user's open session at the court. The conditional
// UPDATE re-validates the open-state precondition atomically, so at most one
// concurrent check-out can succeed per open session.
func (s *LedgerService) CheckOut(ctx context.Context, userID, courtID string) (*model.Session, error) {
	userID, courtID, err := normalizeIDs(userID, courtID)
	if err != nil {
		return nil, err
	}

	storeCtx, cancel := s.boundedCtx(ctx)
	defer cancel()
	session, err := s.store.Close(storeCtx, userID, courtID, time.Now().UTC())
	if err != nil {
		return nil, s.mapStorageErr(err)
	}
	if session == nil {
		return nil, ErrNoActiveSession
	}

	s.invalidateHeadCount(courtID)
	s.publishEvent(session, model.EventCheckOut, *session.CheckoutTimestamp)
	return session, nil
}

// HeadCount returns the number of open sessions at the court. Zero is a
// normal answer for an empty court.
func (s *LedgerService) HeadCount(ctx context.Context, courtID string) (int64, error) {
	courtID = strings.TrimSpace(courtID)
	if courtID == "" {
		return 0, ErrInvalidInput
	}

	if s.cache != nil {
		dirty, err := s.cache.IsDirty(ctx, courtID)
		if err == nil && !dirty {
			if count, hit, cacheErr := s.cache.Get(ctx, courtID); cacheErr == nil && hit {
				return count, nil
			}
		}
	}

	storeCtx, cancel := s.boundedCtx(ctx)
	defer cancel()
	count, err := s.store.CountOpenByCourt(storeCtx, courtID)
	if err != nil {
		return 0, s.mapStorageErr(err)
	}

	if s.cache != nil {
		if dirty, dirtyErr := s.cache.IsDirty(ctx, courtID); dirtyErr == nil && !dirty {
			_ = s.cache.Set(ctx, courtID, count)
		}
	}
	return count, nil
}

// OpenSessions lists who is currently on a court, oldest check-in first.
func (s *LedgerService) OpenSessions(ctx context.Context, courtID string) ([]model.Session, error) {
	courtID = strings.TrimSpace(courtID)
	if courtID == "" {
		return nil, ErrInvalidInput
	}

	storeCtx, cancel := s.boundedCtx(ctx)
	defer cancel()
	sessions, err := s.store.ListOpenByCourt(storeCtx, courtID)
	if err != nil {
		return nil, s.mapStorageErr(err)
	}
	return sessions, nil
}

// UserHistory lists a user's sessions, newest first.
func (s *LedgerService) UserHistory(ctx context.Context, userID string, limit int) ([]model.Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}

	storeCtx, cancel := s.boundedCtx(ctx)
	defer cancel()
	sessions, err := s.store.ListByUser(storeCtx, userID, limit)
	if err != nil {
		return nil, s.mapStorageErr(err)
	}
	return sessions, nil
}

// ActiveSession returns the user's open session, or nil when the user is not
// checked in anywhere. Finding more than one open row means the open-session
// index was bypassed; that is reported, never repaired here.
func (s *LedgerService) ActiveSession(ctx context.Context, userID string) (*model.Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidInput
	}

	storeCtx, cancel := s.boundedCtx(ctx)
	defer cancel()
	sessions, err := s.store.ListOpenByUser(storeCtx, userID)
	if err != nil {
		return nil, s.mapStorageErr(err)
	}
	switch len(sessions) {
	case 0:
		return nil, nil
	case 1:
		return &sessions[0], nil
	default:
		log.Printf("ledger corruption: user %s has %d open sessions", userID, len(sessions))
		return nil, ErrLedgerCorrupt
	}
}

// CloseAll closes every open session at the court and returns how many were
// closed. Used by the end-of-day sweep.
func (s *LedgerService) CloseAll(ctx context.Context, courtID string) (int, error) {
	courtID = strings.TrimSpace(courtID)
	if courtID == "" {
		return 0, ErrInvalidInput
	}

	storeCtx, cancel := s.boundedCtx(ctx)
	defer cancel()
	closed, err := s.store.CloseAllByCourt(storeCtx, courtID, time.Now().UTC())
	if err != nil {
		return 0, s.mapStorageErr(err)
	}

	s.invalidateHeadCount(courtID)
	for i := range closed {
		s.publishEvent(&closed[i], model.EventCheckOut, *closed[i].CheckoutTimestamp)
	}
	return len(closed), nil
}

func (s *LedgerService) boundedCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storageTimeout)
}

func (s *LedgerService) mapStorageErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrStorageTimeout
	}
	return err
}

// invalidateHeadCount marks the court dirty and drops the cached count after
// a mutation. Cache failures only cost freshness, so they are logged and
// swallowed.
func (s *LedgerService) invalidateHeadCount(courtID string) {
	if s.cache == nil {
		return
	}
	ctx := context.Background()
	if err := s.cache.MarkDirty(ctx, courtID); err != nil {
		log.Printf("mark head count dirty failed: %v", err)
	}
	if err := s.cache.Delete(ctx, courtID); err != nil {
		log.Printf("drop cached head count failed: %v", err)
	}
}

// publishEvent sends the audit event for an already-committed ledger write.
// The session row is the source of truth; a broker outage must not fail the
// request, so publish errors are logged and swallowed.
func (s *LedgerService) publishEvent(session *model.Session, kind string, at time.Time) {
	if s.publisher == nil {
		return
	}
	event := model.AttendanceEvent{
		SessionID:  session.ID,
		UserID:     session.UserID,
		CourtID:    session.CourtID,
		Kind:       kind,
		OccurredAt: at,
	}
	if err := s.publisher.Publish(context.Background(), event); err != nil {
		log.Printf("publish %s event for session %d failed: %v", kind, session.ID, err)
	}
}

func normalizeIDs(userID, courtID string) (string, string, error) {
	userID = strings.TrimSpace(userID)
	courtID = strings.TrimSpace(courtID)
	if userID == "" || courtID == "" {
		return "", "", ErrInvalidInput
	}
	return userID, courtID, nil
}
