package domain

import "context"

// Rating bounds for attendance records.
const (
	MinRating = 0
	MaxRating = 5
)

// AttendanceRecord is a post-event (attended?, rating) tuple for one user
// against one event. At most one record exists per (user, event) pair; the
// whole set for an event is replaced in bulk by the creator.
// swagger:model AttendanceRecord
type AttendanceRecord struct {
	EventID  string `json:"event_id"`
	UserID   string `json:"user_id"`
	Attended bool   `json:"attended"`
	Rating   int    `json:"rating"`
}

// AttendanceRepository defines storage operations for attendance records.
type AttendanceRepository interface {
	// ReplaceForEvent deletes all records for the event and inserts the given
	// set in one transaction. A failure leaves the previous records intact.
	ReplaceForEvent(ctx context.Context, eventID string, records []*AttendanceRecord) error
	ListByEventID(ctx context.Context, eventID string) ([]*AttendanceRecord, error)
}

// AttendanceService defines the creator-only attendance submission logic.
type AttendanceService interface {
	// SubmitAttendance replaces the event's attendance records. Only the event
	// creator may submit; every rating must be within [MinRating, MaxRating].
	SubmitAttendance(ctx context.Context, eventID, actorID string, records []*AttendanceRecord) error
	ListEventAttendance(ctx context.Context, eventID, actorID string) ([]*AttendanceRecord, error)
}
