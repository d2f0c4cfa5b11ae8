package services

import (
	"context"
	"testing"
	"time"

	"cleanuphub/internal/domain"

	"github.com/stretchr/testify/require"
)

// seedEvent inserts an event directly into the fake repo, bypassing service
// validation, so tests can control dates and participant counts freely.
func seedEvent(repo *fakeEventRepo, title string, date time.Time, lat, lng float64, participants int) *domain.Event {
	e := &domain.Event{
		Title:       title,
		Description: "seeded for query tests",
		Date:        date,
		Location:    domain.Location{Address: "somewhere", Lat: lat, Lng: lng},
		Category:    domain.CategoryCleaning,
		CreatorID:   "creator",
	}
	_ = repo.Create(context.Background(), e)
	for i := 1; i < participants; i++ {
		_ = repo.AddParticipant(context.Background(), e.ID, "filler-"+e.ID+string(rune('a'+i)), 1000)
	}
	return e
}

func TestEventQueryService_ListClosest(t *testing.T) {
	ctx := context.Background()
	base := time.Now().Add(24 * time.Hour)

	repo := newFakeEventRepo()
	far := seedEvent(repo, "Far", base, 48.85, 2.35, 1)     // Paris
	near := seedEvent(repo, "Near", base, 52.35, 4.90, 1)   // Amsterdam, ~2 km
	mid := seedEvent(repo, "Mid", base, 51.92, 4.48, 1)     // Rotterdam
	svc := NewEventQueryService(repo, time.Second)

	got, err := svc.ListClosest(ctx, 52.37, 4.89, domain.ListParams{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, near.ID, got[0].ID)
	require.Equal(t, mid.ID, got[1].ID)
	require.Equal(t, far.ID, got[2].ID)

	// Distance is set on every result and increases monotonically.
	for i, e := range got {
		require.NotNil(t, e.DistanceKm)
		if i > 0 {
			require.GreaterOrEqual(t, *e.DistanceKm, *got[i-1].DistanceKm)
		}
	}
	require.Less(t, *got[0].DistanceKm, 5.0)
	require.Greater(t, *got[2].DistanceKm, 300.0)
}

func TestEventQueryService_ListClosest_TieKeepsStorageOrder(t *testing.T) {
	ctx := context.Background()
	base := time.Now().Add(24 * time.Hour)

	repo := newFakeEventRepo()
	first := seedEvent(repo, "First", base, 52.0, 4.0, 1)
	second := seedEvent(repo, "Second", base, 52.0, 4.0, 1)
	svc := NewEventQueryService(repo, time.Second)

	got, err := svc.ListClosest(ctx, 52.37, 4.89, domain.ListParams{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, first.ID, got[0].ID)
	require.Equal(t, second.ID, got[1].ID)
}

func TestEventQueryService_Pagination(t *testing.T) {
	ctx := context.Background()
	base := time.Now().Add(24 * time.Hour)

	repo := newFakeEventRepo()
	for i := 0; i < 5; i++ {
		seedEvent(repo, "Event", base.Add(time.Duration(i)*time.Hour), 52.0, 4.0, 1)
	}
	svc := NewEventQueryService(repo, time.Second)

	pageOne, err := svc.ListNewest(ctx, domain.ListParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, pageOne, 2)

	pageTwo, err := svc.ListNewest(ctx, domain.ListParams{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, pageTwo, 2)
	require.NotEqual(t, pageOne[0].ID, pageTwo[0].ID)

	// Offset past the end yields an empty slice, not an error.
	empty, err := svc.ListNewest(ctx, domain.ListParams{Limit: 2, Offset: 10})
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestEventQueryService_ListNewest_AscendingByDate(t *testing.T) {
	ctx := context.Background()
	base := time.Now().Add(24 * time.Hour)

	repo := newFakeEventRepo()
	later := seedEvent(repo, "Later", base.Add(72*time.Hour), 52.0, 4.0, 1)
	sooner := seedEvent(repo, "Sooner", base, 52.0, 4.0, 1)
	svc := NewEventQueryService(repo, time.Second)

	got, err := svc.ListNewest(ctx, domain.ListParams{})
	require.NoError(t, err)
	require.Equal(t, sooner.ID, got[0].ID)
	require.Equal(t, later.ID, got[1].ID)

	// Upcoming applies the same ordering.
	upcoming, err := svc.ListUpcoming(ctx, domain.ListParams{})
	require.NoError(t, err)
	require.Equal(t, sooner.ID, upcoming[0].ID)
}

func TestEventQueryService_ListMostPopular(t *testing.T) {
	ctx := context.Background()
	base := time.Now().Add(24 * time.Hour)

	repo := newFakeEventRepo()
	quiet := seedEvent(repo, "Quiet", base, 52.0, 4.0, 1)
	busy := seedEvent(repo, "Busy", base, 52.0, 4.0, 6)
	medium := seedEvent(repo, "Medium", base, 52.0, 4.0, 3)
	svc := NewEventQueryService(repo, time.Second)

	got, err := svc.ListMostPopular(ctx, domain.ListParams{})
	require.NoError(t, err)
	require.Equal(t, busy.ID, got[0].ID)
	require.Equal(t, medium.ID, got[1].ID)
	require.Equal(t, quiet.ID, got[2].ID)
}

func TestEventQueryService_Search(t *testing.T) {
	ctx := context.Background()
	base := time.Now().Add(24 * time.Hour)

	repo := newFakeEventRepo()
	beach := seedEvent(repo, "Beach Cleanup", base, 52.0, 4.0, 1)
	seedEvent(repo, "Tree planting", base, 52.0, 4.0, 1)
	park := seedEvent(repo, "Park cleanup day", base, 52.0, 4.0, 1)
	svc := NewEventQueryService(repo, time.Second)

	got, err := svc.Search(ctx, "CLEANUP", domain.ListParams{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, beach.ID, got[0].ID)
	require.Equal(t, park.ID, got[1].ID)

	// Surrounding whitespace is stripped before matching.
	padded, err := svc.Search(ctx, "  cleanup  ", domain.ListParams{})
	require.NoError(t, err)
	require.Len(t, padded, 2)

	none, err := svc.Search(ctx, "marathon", domain.ListParams{})
	require.NoError(t, err)
	require.Empty(t, none)

	_, err = svc.Search(ctx, "ab", domain.ListParams{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEventQueryService_EmptyStore(t *testing.T) {
	ctx := context.Background()
	svc := NewEventQueryService(newFakeEventRepo(), time.Second)

	got, err := svc.ListClosest(ctx, 0, 0, domain.ListParams{})
	require.NoError(t, err)
	require.Empty(t, got)
}
