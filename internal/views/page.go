package views

import "github.com/tubeworks/backend/internal/apperr"

// MaxPageLimit clamps per-request work for every paginated view.
const MaxPageLimit = 100

// DefaultPageLimit applies when a caller omits the limit.
const DefaultPageLimit = 10

// Page is the standard paginated envelope returned by every list view.
type Page[T any] struct {
	Docs        []T   `json:"docs"`
	TotalDocs   int64 `json:"totalDocs"`
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalPages  int64 `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// NewPage wraps one page of docs with the derived pagination arithmetic.
func NewPage[T any](docs []T, totalDocs int64, page, limit int) Page[T] {
	if docs == nil {
		docs = []T{}
	}

	totalPages := (totalDocs + int64(limit) - 1) / int64(limit)

	return Page[T]{
		Docs:        docs,
		TotalDocs:   totalDocs,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		HasNextPage: int64(page) < totalPages,
		HasPrevPage: page > 1 && totalDocs > 0,
	}
}

// ValidatePageParams checks page/limit bounds and returns the row offset.
// A zero limit falls back to the default; anything above MaxPageLimit or a
// page below 1 is a validation error.
func ValidatePageParams(page, limit int) (offset int, normalizedLimit int, err error) {
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if page < 1 {
		return 0, 0, apperr.Invalid("page must be at least 1")
	}
	if limit < 1 || limit > MaxPageLimit {
		return 0, 0, apperr.Invalid("limit must be between 1 and %d", MaxPageLimit)
	}
	return (page - 1) * limit, limit, nil
}
