package domain

import "context"

// ListParams holds offset-based pagination for event listings.
type ListParams struct {
	Limit  int
	Offset int
}

// DefaultListLimit is applied when a listing request carries no limit.
const DefaultListLimit = 20

// Normalize clamps the params to sane values and applies the default limit.
func (p ListParams) Normalize() ListParams {
	if p.Limit <= 0 {
		p.Limit = DefaultListLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// EventQueryService is the read side: it projects stored events into
// client-facing views under a sorting policy, then slices the full ordered
// result by offset/limit. All operations are side-effect free; an empty store
// yields an empty slice, never an error.
type EventQueryService interface {
	GetEventByID(ctx context.Context, id string) (*Event, error)
	// ListClosest orders by great-circle distance from (lat, lng), ascending,
	// ties broken by storage order. DistanceKm is set on every result.
	ListClosest(ctx context.Context, lat, lng float64, p ListParams) ([]*Event, error)
	// ListNewest and ListUpcoming both order ascending by scheduled date.
	ListNewest(ctx context.Context, p ListParams) ([]*Event, error)
	ListUpcoming(ctx context.Context, p ListParams) ([]*Event, error)
	// ListMostPopular orders by participant count, descending, stable.
	ListMostPopular(ctx context.Context, p ListParams) ([]*Event, error)
	// Search matches the term case-insensitively against titles, keeping
	// storage order.
	Search(ctx context.Context, term string, p ListParams) ([]*Event, error)
}
