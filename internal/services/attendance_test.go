package services

import (
	"context"
	"testing"
	"time"

	"cleanuphub/internal/domain"

	"github.com/stretchr/testify/require"
)

// fakeAttendanceRepo is an in-memory AttendanceRepository for tests.
type fakeAttendanceRepo struct {
	byEvent    map[string][]*domain.AttendanceRecord
	replaceErr error
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{byEvent: make(map[string][]*domain.AttendanceRecord)}
}

func (f *fakeAttendanceRepo) ReplaceForEvent(ctx context.Context, eventID string, records []*domain.AttendanceRecord) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.byEvent[eventID] = records
	return nil
}

func (f *fakeAttendanceRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.AttendanceRecord, error) {
	return f.byEvent[eventID], nil
}

func TestAttendanceService_SubmitAttendance(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fakeEventRepo, *fakeAttendanceRepo, domain.AttendanceService, *domain.Event) {
		eventRepo := newFakeEventRepo()
		attRepo := newFakeAttendanceRepo()
		svc := NewAttendanceService(eventRepo, attRepo, time.Second)
		e := validEvent("creator-1")
		require.NoError(t, NewEventService(eventRepo, time.Second).CreateEvent(ctx, e))
		return eventRepo, attRepo, svc, e
	}

	t.Run("success replaces records", func(t *testing.T) {
		_, attRepo, svc, e := setup(t)
		first := []*domain.AttendanceRecord{
			{UserID: "user-1", Attended: true, Rating: 5},
			{UserID: "user-2", Attended: false, Rating: 0},
		}
		require.NoError(t, svc.SubmitAttendance(ctx, e.ID, "creator-1", first))
		require.Len(t, attRepo.byEvent[e.ID], 2)
		require.Equal(t, e.ID, attRepo.byEvent[e.ID][0].EventID)

		// A second submission replaces, never appends.
		second := []*domain.AttendanceRecord{{UserID: "user-1", Attended: true, Rating: 3}}
		require.NoError(t, svc.SubmitAttendance(ctx, e.ID, "creator-1", second))
		require.Len(t, attRepo.byEvent[e.ID], 1)
		require.Equal(t, 3, attRepo.byEvent[e.ID][0].Rating)
	})

	t.Run("only creator can submit", func(t *testing.T) {
		_, _, svc, e := setup(t)
		records := []*domain.AttendanceRecord{{UserID: "user-1", Attended: true, Rating: 4}}
		require.ErrorIs(t, svc.SubmitAttendance(ctx, e.ID, "someone-else", records), domain.ErrForbidden)
	})

	t.Run("rating out of range", func(t *testing.T) {
		_, attRepo, svc, e := setup(t)
		records := []*domain.AttendanceRecord{{UserID: "user-1", Attended: true, Rating: 6}}
		require.ErrorIs(t, svc.SubmitAttendance(ctx, e.ID, "creator-1", records), domain.ErrInvalidInput)
		require.Empty(t, attRepo.byEvent[e.ID])
	})

	t.Run("duplicate user rejected", func(t *testing.T) {
		_, _, svc, e := setup(t)
		records := []*domain.AttendanceRecord{
			{UserID: "user-1", Attended: true, Rating: 4},
			{UserID: "user-1", Attended: false, Rating: 2},
		}
		require.ErrorIs(t, svc.SubmitAttendance(ctx, e.ID, "creator-1", records), domain.ErrInvalidInput)
	})

	t.Run("missing event", func(t *testing.T) {
		svc := NewAttendanceService(newFakeEventRepo(), newFakeAttendanceRepo(), time.Second)
		records := []*domain.AttendanceRecord{{UserID: "user-1", Attended: true, Rating: 4}}
		require.ErrorIs(t, svc.SubmitAttendance(ctx, "ev-missing", "creator-1", records), domain.ErrNotFound)
	})
}

func TestAttendanceService_ListEventAttendance(t *testing.T) {
	ctx := context.Background()
	eventRepo := newFakeEventRepo()
	attRepo := newFakeAttendanceRepo()
	svc := NewAttendanceService(eventRepo, attRepo, time.Second)
	e := validEvent("creator-1")
	require.NoError(t, NewEventService(eventRepo, time.Second).CreateEvent(ctx, e))
	attRepo.byEvent[e.ID] = []*domain.AttendanceRecord{{EventID: e.ID, UserID: "user-1", Attended: true, Rating: 5}}

	_, err := svc.ListEventAttendance(ctx, e.ID, "stranger")
	require.ErrorIs(t, err, domain.ErrForbidden)

	got, err := svc.ListEventAttendance(ctx, e.ID, "creator-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "user-1", got[0].UserID)
}
