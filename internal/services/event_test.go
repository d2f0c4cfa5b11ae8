package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cleanuphub/internal/domain"

	"github.com/stretchr/testify/require"
)

// fakeEventRepo is an in-memory EventRepository for tests. ListAll returns
// events in insertion order, matching the storage order of the real repo.
type fakeEventRepo struct {
	byID         map[string]*domain.Event
	order        []string
	participants map[string][]string
	nextID       int
	listErr      error
	createErr    error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		byID:         make(map[string]*domain.Event),
		participants: make(map[string][]string),
		nextID:       1,
	}
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.createErr != nil {
		return f.createErr
	}
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	f.byID[e.ID] = e
	f.order = append(f.order, e.ID)
	f.participants[e.ID] = []string{e.CreatorID}
	e.ParticipantsCount = 1
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) ListAll(ctx context.Context) ([]*domain.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*domain.Event, 0, len(f.order))
	for _, id := range f.order {
		e := f.byID[id]
		e.ParticipantsCount = len(f.participants[id])
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEventRepo) ListJoinedByUser(ctx context.Context, userID string, past bool) ([]*domain.Event, error) {
	now := time.Now()
	out := make([]*domain.Event, 0)
	for _, id := range f.order {
		e := f.byID[id]
		joined := false
		for _, uid := range f.participants[id] {
			if uid == userID {
				joined = true
				break
			}
		}
		if !joined {
			continue
		}
		if past && e.Date.Before(now) || !past && !e.Date.Before(now) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	delete(f.participants, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeEventRepo) AddParticipant(ctx context.Context, eventID, userID string, maxParticipants int) error {
	members := f.participants[eventID]
	for _, uid := range members {
		if uid == userID {
			return domain.ErrAlreadyJoined
		}
	}
	if len(members) >= maxParticipants {
		return domain.ErrEventFull
	}
	f.participants[eventID] = append(members, userID)
	return nil
}

func (f *fakeEventRepo) RemoveParticipant(ctx context.Context, eventID, userID string) error {
	members := f.participants[eventID]
	for i, uid := range members {
		if uid == userID {
			f.participants[eventID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotParticipant
}

func (f *fakeEventRepo) ListParticipants(ctx context.Context, eventID string) ([]*domain.Participant, error) {
	out := make([]*domain.Participant, 0)
	for i, uid := range f.participants[eventID] {
		out = append(out, &domain.Participant{EventID: eventID, UserID: uid, Position: int64(i + 1)})
	}
	return out, nil
}

func validEvent(creatorID string) *domain.Event {
	return &domain.Event{
		Title:       "Canal cleanup",
		Description: "Bring gloves, we supply bags",
		Date:        time.Now().Add(48 * time.Hour),
		Location:    domain.Location{Address: "Canal side 3", Lat: 52.37, Lng: 4.89},
		Category:    domain.CategoryCleaning,
		CreatorID:   creatorID,
	}
}

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("success with defaults", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := NewEventService(repo, time.Second)

		e := validEvent("user-1")
		e.MaxParticipants = 0
		require.NoError(t, svc.CreateEvent(ctx, e))
		require.NotEmpty(t, e.ID)
		require.Equal(t, domain.DefaultMaxParticipants, e.MaxParticipants)
		require.Equal(t, 1, e.ParticipantsCount)
	})

	t.Run("rejects empty title", func(t *testing.T) {
		svc := NewEventService(newFakeEventRepo(), time.Second)
		e := validEvent("user-1")
		e.Title = "   "
		require.ErrorIs(t, svc.CreateEvent(ctx, e), domain.ErrInvalidInput)
	})

	t.Run("rejects short description", func(t *testing.T) {
		svc := NewEventService(newFakeEventRepo(), time.Second)
		e := validEvent("user-1")
		e.Description = "short"
		require.ErrorIs(t, svc.CreateEvent(ctx, e), domain.ErrInvalidInput)
	})

	t.Run("rejects past date", func(t *testing.T) {
		svc := NewEventService(newFakeEventRepo(), time.Second)
		e := validEvent("user-1")
		e.Date = time.Now().Add(-time.Hour)
		require.ErrorIs(t, svc.CreateEvent(ctx, e), domain.ErrInvalidInput)
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		svc := NewEventService(newFakeEventRepo(), time.Second)
		e := validEvent("user-1")
		e.Category = "knitting"
		require.ErrorIs(t, svc.CreateEvent(ctx, e), domain.ErrInvalidInput)
	})

	t.Run("rejects out-of-range coordinates", func(t *testing.T) {
		svc := NewEventService(newFakeEventRepo(), time.Second)
		e := validEvent("user-1")
		e.Location.Lat = 91
		require.ErrorIs(t, svc.CreateEvent(ctx, e), domain.ErrInvalidInput)
	})
}

func TestEventService_JoinLeave(t *testing.T) {
	ctx := context.Background()

	t.Run("join then leave", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := NewEventService(repo, time.Second)
		e := validEvent("user-1")
		require.NoError(t, svc.CreateEvent(ctx, e))

		require.NoError(t, svc.JoinEvent(ctx, e.ID, "user-2"))
		participants, err := svc.ListParticipants(ctx, e.ID)
		require.NoError(t, err)
		require.Len(t, participants, 2)

		require.NoError(t, svc.LeaveEvent(ctx, e.ID, "user-2"))
		participants, err = svc.ListParticipants(ctx, e.ID)
		require.NoError(t, err)
		require.Len(t, participants, 1)
		require.Equal(t, "user-1", participants[0].UserID)
	})

	t.Run("duplicate join", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := NewEventService(repo, time.Second)
		e := validEvent("user-1")
		require.NoError(t, svc.CreateEvent(ctx, e))

		require.NoError(t, svc.JoinEvent(ctx, e.ID, "user-2"))
		require.ErrorIs(t, svc.JoinEvent(ctx, e.ID, "user-2"), domain.ErrAlreadyJoined)
	})

	t.Run("capacity enforced", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := NewEventService(repo, time.Second)
		e := validEvent("user-1")
		e.MaxParticipants = 2
		require.NoError(t, svc.CreateEvent(ctx, e))

		require.NoError(t, svc.JoinEvent(ctx, e.ID, "user-2"))
		require.ErrorIs(t, svc.JoinEvent(ctx, e.ID, "user-3"), domain.ErrEventFull)
	})

	t.Run("leave without joining", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := NewEventService(repo, time.Second)
		e := validEvent("user-1")
		require.NoError(t, svc.CreateEvent(ctx, e))

		require.ErrorIs(t, svc.LeaveEvent(ctx, e.ID, "user-9"), domain.ErrNotParticipant)
	})

	t.Run("join missing event", func(t *testing.T) {
		svc := NewEventService(newFakeEventRepo(), time.Second)
		require.ErrorIs(t, svc.JoinEvent(ctx, "ev-missing", "user-2"), domain.ErrNotFound)
	})
}

func TestEventService_DeleteEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("only creator can delete", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := NewEventService(repo, time.Second)
		e := validEvent("user-1")
		require.NoError(t, svc.CreateEvent(ctx, e))

		require.ErrorIs(t, svc.DeleteEvent(ctx, e.ID, "user-2"), domain.ErrForbidden)
		require.NoError(t, svc.DeleteEvent(ctx, e.ID, "user-1"))
		require.ErrorIs(t, svc.DeleteEvent(ctx, e.ID, "user-1"), domain.ErrNotFound)
	})
}
