// Package page slices ordered result streams into fixed-size pages with
// navigation metadata.
package page

import "github.com/univrs/discovery/internal/rank"

// Page is one page of ordered results. TotalCount reflects the full
// filtered set before pagination, independent of PageSize.
type Page struct {
	Items       []*rank.ScoredResult `json:"items"`
	TotalCount  int                  `json:"total_count"`
	Page        int                  `json:"page"`
	PageSize    int                  `json:"page_size"`
	HasNext     bool                 `json:"has_next"`
	HasPrevious bool                 `json:"has_previous"`
}

// Paginate slices ordered results into the requested page.
//
// A page beyond the last valid page returns an empty page rather than an
// error: under concurrent count changes a caller may legitimately request a
// page that no longer exists, and pagination stays idempotent. This is the
// chosen behavior, not an oversight.
func Paginate(ordered []*rank.ScoredResult, pageNum, pageSize int) *Page {
	total := len(ordered)
	p := &Page{
		Items:       []*rank.ScoredResult{},
		TotalCount:  total,
		Page:        pageNum,
		PageSize:    pageSize,
		HasPrevious: pageNum > 1,
	}

	// Validation upstream only bounds pageNum from below, so an absurdly
	// large value must land in the beyond-last case here before the start
	// offset is computed, where it would overflow.
	lastPage := (total-1)/max(pageSize, 1) + 1
	if pageNum < 1 || pageSize < 1 || pageNum > lastPage {
		return p
	}

	p.HasNext = pageNum*pageSize < total
	start := (pageNum - 1) * pageSize
	end := min(start+pageSize, total)
	p.Items = ordered[start:end]
	return p
}
