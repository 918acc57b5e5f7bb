package app_test

import (
	"context"
	"time"

	"courtpulse/internal/model"
)

type mockSessionStore struct {
	createFn          func(ctx context.Context, session *model.Session) error
	closeFn           func(ctx context.Context, userID, courtID string, at time.Time) (*model.Session, error)
	closeAllByCourtFn func(ctx context.Context, courtID string, at time.Time) ([]model.Session, error)
	countOpenFn       func(ctx context.Context, courtID string) (int64, error)
	listOpenByCourtFn func(ctx context.Context, courtID string) ([]model.Session, error)
	listOpenByUserFn  func(ctx context.Context, userID string) ([]model.Session, error)
	listByUserFn      func(ctx context.Context, userID string, limit int) ([]model.Session, error)
}

func (m *mockSessionStore) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionStore) Close(ctx context.Context, userID, courtID string, at time.Time) (*model.Session, error) {
	if m.closeFn != nil {
		return m.closeFn(ctx, userID, courtID, at)
	}
	return nil, nil
}

func (m *mockSessionStore) CloseAllByCourt(ctx context.Context, courtID string, at time.Time) ([]model.Session, error) {
	if m.closeAllByCourtFn != nil {
		return m.closeAllByCourtFn(ctx, courtID, at)
	}
	return nil, nil
}

func (m *mockSessionStore) CountOpenByCourt(ctx context.Context, courtID string) (int64, error) {
	if m.countOpenFn != nil {
		return m.countOpenFn(ctx, courtID)
	}
	return 0, nil
}

func (m *mockSessionStore) ListOpenByCourt(ctx context.Context, courtID string) ([]model.Session, error) {
	if m.listOpenByCourtFn != nil {
		return m.listOpenByCourtFn(ctx, courtID)
	}
	return nil, nil
}

func (m *mockSessionStore) ListOpenByUser(ctx context.Context, userID string) ([]model.Session, error) {
	if m.listOpenByUserFn != nil {
		return m.listOpenByUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockSessionStore) ListByUser(ctx context.Context, userID string, limit int) ([]model.Session, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID, limit)
	}
	return nil, nil
}

type mockPublisher struct {
	publishFn func(ctx context.Context, event model.AttendanceEvent) error
	published []model.AttendanceEvent
}

func (m *mockPublisher) Publish(ctx context.Context, event model.AttendanceEvent) error {
	m.published = append(m.published, event)
	if m.publishFn != nil {
		return m.publishFn(ctx, event)
	}
	return nil
}

type mockHeadCountCache struct {
	getFn       func(ctx context.Context, courtID string) (int64, bool, error)
	setFn       func(ctx context.Context, courtID string, count int64) error
	deleteFn    func(ctx context.Context, courtID string) error
	markDirtyFn func(ctx context.Context, courtID string) error
	isDirtyFn   func(ctx context.Context, courtID string) (bool, error)

	deleted []string
	dirtied []string
	stored  map[string]int64
}

func (m *mockHeadCountCache) Get(ctx context.Context, courtID string) (int64, bool, error) {
	if m.getFn != nil {
		return m.getFn(ctx, courtID)
	}
	return 0, false, nil
}

func (m *mockHeadCountCache) Set(ctx context.Context, courtID string, count int64) error {
	if m.stored == nil {
		m.stored = map[string]int64{}
	}
	m.stored[courtID] = count
	if m.setFn != nil {
		return m.setFn(ctx, courtID, count)
	}
	return nil
}

func (m *mockHeadCountCache) Delete(ctx context.Context, courtID string) error {
	m.deleted = append(m.deleted, courtID)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, courtID)
	}
	return nil
}

func (m *mockHeadCountCache) MarkDirty(ctx context.Context, courtID string) error {
	m.dirtied = append(m.dirtied, courtID)
	if m.markDirtyFn != nil {
		return m.markDirtyFn(ctx, courtID)
	}
	return nil
}

func (m *mockHeadCountCache) IsDirty(ctx context.Context, courtID string) (bool, error) {
	if m.isDirtyFn != nil {
		return m.isDirtyFn(ctx, courtID)
	}
	return false, nil
}
