package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cleanuphub/internal/domain"
)

type attendanceService struct {
	eventRepo      domain.EventRepository
	attendanceRepo domain.AttendanceRepository
	contextTimeout time.Duration
}

// NewAttendanceService creates the attendance submission service.
func NewAttendanceService(eventRepo domain.EventRepository, attendanceRepo domain.AttendanceRepository, timeout time.Duration) domain.AttendanceService {
	return &attendanceService{
		eventRepo:      eventRepo,
		attendanceRepo: attendanceRepo,
		contextTimeout: timeout,
	}
}

func (s *attendanceService) SubmitAttendance(ctx context.Context, eventID, actorID string, records []*domain.AttendanceRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.CreatorID != actorID {
		return domain.ErrForbidden
	}

	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if rec.UserID == "" {
			return fmt.Errorf("record user_id is required: %w", domain.ErrInvalidInput)
		}
		if rec.Rating < domain.MinRating || rec.Rating > domain.MaxRating {
			return fmt.Errorf("rating must be %d-%d: %w", domain.MinRating, domain.MaxRating, domain.ErrInvalidInput)
		}
		if _, dup := seen[rec.UserID]; dup {
			return fmt.Errorf("duplicate record for user %s: %w", rec.UserID, domain.ErrInvalidInput)
		}
		seen[rec.UserID] = struct{}{}
		rec.EventID = eventID
	}

	if err := s.attendanceRepo.ReplaceForEvent(ctx, eventID, records); err != nil {
		return fmt.Errorf("replace attendance: %w", err)
	}
	return nil
}

func (s *attendanceService) ListEventAttendance(ctx context.Context, eventID, actorID string) ([]*domain.AttendanceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.CreatorID != actorID {
		return nil, domain.ErrForbidden
	}

	records, err := s.attendanceRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	if records == nil {
		records = []*domain.AttendanceRecord{}
	}
	return records, nil
}
