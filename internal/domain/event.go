package domain

import (
	"context"
	"time"
)

// Category classifies an event. The set is fixed; anything else is rejected at
// validation time.
type Category string

const (
	CategoryCleaning     Category = "cleaning"
	CategoryTreePlanting Category = "tree-planting"
	CategoryVolunteering Category = "volunteering"
	CategoryOther        Category = "other"
)

// ValidCategory reports whether c is one of the fixed event categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryCleaning, CategoryTreePlanting, CategoryVolunteering, CategoryOther:
		return true
	}
	return false
}

// DefaultMaxParticipants is used when an event is created without a capacity.
const DefaultMaxParticipants = 10

// Location is where an event takes place. Coordinates are required; the human
// label is optional.
type Location struct {
	Address string   `json:"address"`
	Label   *string  `json:"label,omitempty"`
	Lat     float64  `json:"lat"`
	Lng     float64  `json:"lng"`
}

// Event represents a scheduled community activity. The creator is always a
// member of the participant set; CreatorID is immutable after creation.
// swagger:model Event
type Event struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Date            time.Time `json:"date"`
	Location        Location  `json:"location"`
	Category        Category  `json:"category"`
	MaxParticipants int       `json:"max_participants"`
	CreatorID       string    `json:"creator_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Derived, read side only.
	ParticipantsCount int      `json:"participants_count"`
	DistanceKm        *float64 `json:"distance_km,omitempty"`
}

// NewEvent returns a new Event with the given fields. ID is set by the
// repository on create.
func NewEvent(title, description string, date time.Time, loc Location, category Category, maxParticipants int, creatorID string, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Title:           title,
		Description:     description,
		Date:            date,
		Location:        loc,
		Category:        category,
		MaxParticipants: maxParticipants,
		CreatorID:       creatorID,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}
}

// Participant is one member of an event's participant set. Position preserves
// join order.
// swagger:model Participant
type Participant struct {
	EventID  string    `json:"event_id"`
	UserID   string    `json:"user_id"`
	Position int64     `json:"position"`
	JoinedAt time.Time `json:"joined_at"`
}

// EventRepository defines the interface for event storage.
//
// AddParticipant and RemoveParticipant are atomic at the storage layer:
// concurrent joins never duplicate a user id or exceed capacity, and the
// read-modify-write race of maintaining the set in application code is avoided
// entirely.
type EventRepository interface {
	// Create persists the event and its creator as the first participant in a
	// single transaction.
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// ListAll returns every event with its participant count, in storage order.
	ListAll(ctx context.Context) ([]*Event, error)
	// ListJoinedByUser returns events the user participates in. When past is
	// true, only events dated before now; otherwise only upcoming ones.
	ListJoinedByUser(ctx context.Context, userID string, past bool) ([]*Event, error)
	// Delete removes the event together with its participants and attendance
	// records in a single transaction.
	Delete(ctx context.Context, id string) error
	// AddParticipant appends userID to the participant set if absent and the
	// set is below maxParticipants. Returns ErrAlreadyJoined or ErrEventFull.
	AddParticipant(ctx context.Context, eventID, userID string, maxParticipants int) error
	// RemoveParticipant removes userID from the participant set. Returns
	// ErrNotParticipant when the user is not a member.
	RemoveParticipant(ctx context.Context, eventID, userID string) error
	// ListParticipants returns the participant user ids in join order.
	ListParticipants(ctx context.Context, eventID string) ([]*Participant, error)
}

// EventService defines the participation business logic: creation, join/leave,
// deletion, and participant listing.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	JoinEvent(ctx context.Context, eventID, userID string) error
	LeaveEvent(ctx context.Context, eventID, userID string) error
	DeleteEvent(ctx context.Context, eventID, userID string) error
	ListParticipants(ctx context.Context, eventID string) ([]*Participant, error)
	// ListUserEvents returns the user's upcoming joined events; ListUserEventHistory the past ones.
	ListUserEvents(ctx context.Context, userID string) ([]*Event, error)
	ListUserEventHistory(ctx context.Context, userID string) ([]*Event, error)
}
