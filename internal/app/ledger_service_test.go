package app_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"courtpulse/internal/app"
	"courtpulse/internal/model"
	"courtpulse/internal/repository"
)

var _ = Describe("LedgerService", func() {
	var (
		svc       *app.LedgerService
		store     *mockSessionStore
		publisher *mockPublisher
		hcCache   *mockHeadCountCache
		ctx       context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = &mockSessionStore{}
		publisher = &mockPublisher{}
		hcCache = &mockHeadCountCache{}
		svc = app.NewLedgerService(store, publisher, hcCache, time.Second)
	})

	Describe("CheckIn", func() {
		It("opens a session and publishes a check-in event", func() {
			var captured *model.Session
			store.createFn = func(_ context.Context, s *model.Session) error {
				s.ID = 7
				captured = s
				return nil
			}

			session, err := svc.CheckIn(ctx, "user1", "courtA")

			Expect(err).NotTo(HaveOccurred())
			Expect(session.UserID).To(Equal("user1"))
			Expect(session.CourtID).To(Equal("courtA"))
			Expect(session.CheckoutTimestamp).To(BeNil())
			Expect(session.CheckinTimestamp).NotTo(BeZero())
			Expect(captured).To(Equal(session))

			Expect(publisher.published).To(HaveLen(1))
			Expect(publisher.published[0].Kind).To(Equal(model.EventCheckIn))
			Expect(publisher.published[0].SessionID).To(Equal(uint(7)))
		})

		It("invalidates the cached head count for the court", func() {
			_, err := svc.CheckIn(ctx, "user1", "courtA")

			Expect(err).NotTo(HaveOccurred())
			Expect(hcCache.dirtied).To(ConsistOf("courtA"))
			Expect(hcCache.deleted).To(ConsistOf("courtA"))
		})

		It("maps a duplicate open session to ErrAlreadyCheckedIn", func() {
			store.createFn = func(_ context.Context, _ *model.Session) error {
				return repository.ErrOpenSessionExists
			}

			session, err := svc.CheckIn(ctx, "user1", "courtB")

			Expect(err).To(MatchError(app.ErrAlreadyCheckedIn))
			Expect(session).To(BeNil())
			Expect(publisher.published).To(BeEmpty())
		})

		It("rejects blank ids before touching the store", func() {
			called := false
			store.createFn = func(_ context.Context, _ *model.Session) error {
				called = true
				return nil
			}

			_, err := svc.CheckIn(ctx, "  ", "courtA")

			Expect(err).To(MatchError(app.ErrInvalidInput))
			Expect(called).To(BeFalse())
		})

		It("maps a storage deadline to ErrStorageTimeout", func() {
			store.createFn = func(_ context.Context, _ *model.Session) error {
				return fmt.Errorf("create session failed: %w", context.DeadlineExceeded)
			}

			_, err := svc.CheckIn(ctx, "user1", "courtA")

			Expect(err).To(MatchError(app.ErrStorageTimeout))
		})

		It("does not fail the check-in when the event publish fails", func() {
			publisher.publishFn = func(_ context.Context, _ model.AttendanceEvent) error {
				return errors.New("broker down")
			}

			session, err := svc.CheckIn(ctx, "user1", "courtA")

			Expect(err).NotTo(HaveOccurred())
			Expect(session).NotTo(BeNil())
		})
	})

	Describe("CheckOut", func() {
		It("closes the open session and publishes a check-out event", func() {
			store.closeFn = func(_ context.Context, userID, courtID string, at time.Time) (*model.Session, error) {
				return &model.Session{
					ID:                3,
					UserID:            userID,
					CourtID:           courtID,
					CheckinTimestamp:  at.Add(-time.Hour),
					CheckoutTimestamp: &at,
				}, nil
			}

			session, err := svc.CheckOut(ctx, "user1", "courtA")

			Expect(err).NotTo(HaveOccurred())
			Expect(session.CheckoutTimestamp).NotTo(BeNil())
			Expect(publisher.published).To(HaveLen(1))
			Expect(publisher.published[0].Kind).To(Equal(model.EventCheckOut))
			Expect(hcCache.deleted).To(ConsistOf("courtA"))
		})

		It("returns ErrNoActiveSession when no open row matches", func() {
			store.closeFn = func(_ context.Context, _, _ string, _ time.Time) (*model.Session, error) {
				return nil, nil
			}

			session, err := svc.CheckOut(ctx, "user1", "courtA")

			Expect(err).To(MatchError(app.ErrNoActiveSession))
			Expect(session).To(BeNil())
			Expect(publisher.published).To(BeEmpty())
		})

		It("fails the second of two sequential check-outs", func() {
			closed := false
			store.closeFn = func(_ context.Context, userID, courtID string, at time.Time) (*model.Session, error) {
				if closed {
					return nil, nil
				}
				closed = true
				return &model.Session{UserID: userID, CourtID: courtID, CheckoutTimestamp: &at}, nil
			}

			_, err := svc.CheckOut(ctx, "user1", "courtA")
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.CheckOut(ctx, "user1", "courtA")
			Expect(err).To(MatchError(app.ErrNoActiveSession))
		})

		It("rejects blank ids", func() {
			_, err := svc.CheckOut(ctx, "user1", "")
			Expect(err).To(MatchError(app.ErrInvalidInput))
		})
	})

	Describe("HeadCount", func() {
		It("returns 0 for a court with no sessions", func() {
			count, err := svc.HeadCount(ctx, "emptyCourt")

			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})

		It("serves from the cache when present and clean", func() {
			hcCache.getFn = func(_ context.Context, _ string) (int64, bool, error) {
				return 4, true, nil
			}
			store.countOpenFn = func(_ context.Context, _ string) (int64, error) {
				return 0, errors.New("should not be called")
			}

			count, err := svc.HeadCount(ctx, "courtA")

			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(4)))
		})

		It("bypasses the cache while the court is dirty", func() {
			hcCache.isDirtyFn = func(_ context.Context, _ string) (bool, error) {
				return true, nil
			}
			hcCache.getFn = func(_ context.Context, _ string) (int64, bool, error) {
				return 99, true, nil
			}
			store.countOpenFn = func(_ context.Context, _ string) (int64, error) {
				return 2, nil
			}

			count, err := svc.HeadCount(ctx, "courtA")

			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(2)))
			Expect(hcCache.stored).To(BeEmpty())
		})

		It("repopulates the cache after a clean database read", func() {
			store.countOpenFn = func(_ context.Context, _ string) (int64, error) {
				return 5, nil
			}

			count, err := svc.HeadCount(ctx, "courtA")

			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(5)))
			Expect(hcCache.stored).To(HaveKeyWithValue("courtA", int64(5)))
		})

		It("rejects a blank court id", func() {
			_, err := svc.HeadCount(ctx, "   ")
			Expect(err).To(MatchError(app.ErrInvalidInput))
		})

		It("maps a storage deadline to ErrStorageTimeout", func() {
			store.countOpenFn = func(_ context.Context, _ string) (int64, error) {
				return 0, fmt.Errorf("count open sessions failed: %w", context.DeadlineExceeded)
			}

			_, err := svc.HeadCount(ctx, "courtA")

			Expect(err).To(MatchError(app.ErrStorageTimeout))
		})
	})

	Describe("ActiveSession", func() {
		It("returns nil when the user is not checked in", func() {
			session, err := svc.ActiveSession(ctx, "user1")

			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(BeNil())
		})

		It("returns the single open session", func() {
			store.listOpenByUserFn = func(_ context.Context, userID string) ([]model.Session, error) {
				return []model.Session{{ID: 11, UserID: userID, CourtID: "courtA"}}, nil
			}

			session, err := svc.ActiveSession(ctx, "user1")

			Expect(err).NotTo(HaveOccurred())
			Expect(session.ID).To(Equal(uint(11)))
		})

		It("reports corruption when two open rows exist", func() {
			store.listOpenByUserFn = func(_ context.Context, userID string) ([]model.Session, error) {
				return []model.Session{
					{ID: 1, UserID: userID, CourtID: "courtA"},
					{ID: 2, UserID: userID, CourtID: "courtB"},
				}, nil
			}

			session, err := svc.ActiveSession(ctx, "user1")

			Expect(err).To(MatchError(app.ErrLedgerCorrupt))
			Expect(session).To(BeNil())
		})
	})

	Describe("CloseAll", func() {
		It("closes every open session at the court and publishes per-session events", func() {
			now := time.Now().UTC()
			store.closeAllByCourtFn = func(_ context.Context, courtID string, at time.Time) ([]model.Session, error) {
				return []model.Session{
					{ID: 1, UserID: "user1", CourtID: courtID, CheckoutTimestamp: &now},
					{ID: 2, UserID: "user2", CourtID: courtID, CheckoutTimestamp: &now},
				}, nil
			}

			closed, err := svc.CloseAll(ctx, "courtA")

			Expect(err).NotTo(HaveOccurred())
			Expect(closed).To(Equal(2))
			Expect(publisher.published).To(HaveLen(2))
			Expect(hcCache.dirtied).To(ConsistOf("courtA"))
		})

		It("closes nothing at an empty court", func() {
			closed, err := svc.CloseAll(ctx, "courtA")

			Expect(err).NotTo(HaveOccurred())
			Expect(closed).To(BeZero())
			Expect(publisher.published).To(BeEmpty())
		})
	})
})
