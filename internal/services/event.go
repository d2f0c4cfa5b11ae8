package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cleanuphub/internal/domain"
)

// Field limits for event creation.
const (
	maxTitleLen       = 100
	minDescriptionLen = 10
	maxDescriptionLen = 2000
	maxCapacity       = 10000
)

type eventService struct {
	eventRepo      domain.EventRepository
	contextTimeout time.Duration
}

// NewEventService creates the participation service with the given repository.
func NewEventService(eventRepo domain.EventRepository, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.CreatorID == "" {
		return fmt.Errorf("event creator is required")
	}

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if event.Date.IsZero() {
		event.Date = now
	}
	if event.MaxParticipants == 0 {
		event.MaxParticipants = domain.DefaultMaxParticipants
	}

	if err := validateEvent(event, now); err != nil {
		return err
	}

	return s.eventRepo.Create(ctx, event)
}

func validateEvent(e *domain.Event, now time.Time) error {
	title := strings.TrimSpace(e.Title)
	if title == "" || len(title) > maxTitleLen {
		return fmt.Errorf("title must be 1-%d characters: %w", maxTitleLen, domain.ErrInvalidInput)
	}
	if l := len(strings.TrimSpace(e.Description)); l < minDescriptionLen || l > maxDescriptionLen {
		return fmt.Errorf("description must be %d-%d characters: %w", minDescriptionLen, maxDescriptionLen, domain.ErrInvalidInput)
	}
	if e.Date.Before(now) {
		return fmt.Errorf("date must not be in the past: %w", domain.ErrInvalidInput)
	}
	if e.MaxParticipants < 1 || e.MaxParticipants > maxCapacity {
		return fmt.Errorf("max_participants must be 1-%d: %w", maxCapacity, domain.ErrInvalidInput)
	}
	if e.Location.Lat < -90 || e.Location.Lat > 90 || e.Location.Lng < -180 || e.Location.Lng > 180 {
		return fmt.Errorf("coordinates out of range: %w", domain.ErrInvalidInput)
	}
	if !domain.ValidCategory(e.Category) {
		return fmt.Errorf("unknown category %q: %w", e.Category, domain.ErrInvalidInput)
	}
	return nil
}

func (s *eventService) JoinEvent(ctx context.Context, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}

	if err := s.eventRepo.AddParticipant(ctx, eventID, userID, event.MaxParticipants); err != nil {
		if errors.Is(err, domain.ErrAlreadyJoined) || errors.Is(err, domain.ErrEventFull) {
			return err
		}
		return fmt.Errorf("add participant: %w", err)
	}
	return nil
}

func (s *eventService) LeaveEvent(ctx context.Context, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}

	if err := s.eventRepo.RemoveParticipant(ctx, eventID, userID); err != nil {
		if errors.Is(err, domain.ErrNotParticipant) {
			return domain.ErrNotParticipant
		}
		return fmt.Errorf("remove participant: %w", err)
	}
	return nil
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.CreatorID != userID {
		return domain.ErrForbidden
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (s *eventService) ListParticipants(ctx context.Context, eventID string) ([]*domain.Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	participants, err := s.eventRepo.ListParticipants(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	if participants == nil {
		participants = []*domain.Participant{}
	}
	return participants, nil
}

func (s *eventService) ListUserEvents(ctx context.Context, userID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	events, err := s.eventRepo.ListJoinedByUser(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("list joined events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *eventService) ListUserEventHistory(ctx context.Context, userID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	events, err := s.eventRepo.ListJoinedByUser(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("list event history: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}
