package helpers

import (
	"net/http"
	"strconv"

	"cleanuphub/internal/domain"
)

// MaxListLimit caps the limit query parameter for event listings.
const MaxListLimit = 100

// ParseListParams reads limit and offset from the request query string, clamps
// them to valid ranges, and returns domain.ListParams. Invalid or missing
// values fall back to defaults.
func ParseListParams(r *http.Request) domain.ListParams {
	limit := domain.DefaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 1 {
			limit = v
			if limit > MaxListLimit {
				limit = MaxListLimit
			}
		}
	}
	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}
	return domain.ListParams{Limit: limit, Offset: offset}
}
