// Package universe provides the universe (community) model referenced by
// feeds and search.
package universe

import "time"

// Universe represents a community that content items belong to.
type Universe struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	NSFW        bool      `json:"nsfw"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}
