package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"cleanuphub/internal/domain"
)

type eventQueryService struct {
	eventRepo      domain.EventRepository
	contextTimeout time.Duration
}

// NewEventQueryService creates the read-side query service over the event store.
func NewEventQueryService(eventRepo domain.EventRepository, timeout time.Duration) domain.EventQueryService {
	return &eventQueryService{
		eventRepo:      eventRepo,
		contextTimeout: timeout,
	}
}

func (s *eventQueryService) GetEventByID(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

const earthRadiusKm = 6371.0

// haversineKm returns the great-circle distance between two coordinates in
// kilometers.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// page slices the fully ordered result set. Ordering before slicing keeps
// pagination reproducible.
func page(events []*domain.Event, p domain.ListParams) []*domain.Event {
	p = p.Normalize()
	if p.Offset >= len(events) {
		return []*domain.Event{}
	}
	end := p.Offset + p.Limit
	if end > len(events) {
		end = len(events)
	}
	return events[p.Offset:end]
}

func (s *eventQueryService) ListClosest(ctx context.Context, lat, lng float64, p domain.ListParams) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	for _, e := range events {
		d := haversineKm(lat, lng, e.Location.Lat, e.Location.Lng)
		e.DistanceKm = &d
	}
	sort.SliceStable(events, func(i, j int) bool {
		return *events[i].DistanceKm < *events[j].DistanceKm
	})
	return page(events, p), nil
}

func (s *eventQueryService) ListNewest(ctx context.Context, p domain.ListParams) ([]*domain.Event, error) {
	return s.listByDate(ctx, p)
}

func (s *eventQueryService) ListUpcoming(ctx context.Context, p domain.ListParams) ([]*domain.Event, error) {
	return s.listByDate(ctx, p)
}

// listByDate backs both Newest and Upcoming: ascending by scheduled date.
func (s *eventQueryService) listByDate(ctx context.Context, p domain.ListParams) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	return page(events, p), nil
}

func (s *eventQueryService) ListMostPopular(ctx context.Context, p domain.ListParams) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].ParticipantsCount > events[j].ParticipantsCount
	})
	return page(events, p), nil
}

func (s *eventQueryService) Search(ctx context.Context, term string, p domain.ListParams) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	term = strings.TrimSpace(term)
	if len(term) < 3 {
		return nil, fmt.Errorf("search term must be at least 3 characters: %w", domain.ErrInvalidInput)
	}
	events, err := s.eventRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	needle := strings.ToLower(term)
	matched := make([]*domain.Event, 0)
	for _, e := range events {
		if strings.Contains(strings.ToLower(e.Title), needle) {
			matched = append(matched, e)
		}
	}
	return page(matched, p), nil
}
