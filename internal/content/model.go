// Package content defines the content item model shared by the feed and
// search surfaces. Items are owned by the storage collaborator and treated
// as immutable for the duration of a single scoring pass.
package content

import "time"

// EntityType identifies the kind of content an item represents.
type EntityType string

// Supported entity types.
const (
	EntityPost     EntityType = "post"
	EntityUser     EntityType = "user"
	EntityUniverse EntityType = "universe"
	EntityComment  EntityType = "comment"
)

// AllEntityTypes lists every supported entity type, in canonical order.
var AllEntityTypes = []EntityType{EntityPost, EntityUser, EntityUniverse, EntityComment}

// Valid reports whether the entity type is one of the supported values.
func (t EntityType) Valid() bool {
	switch t {
	case EntityPost, EntityUser, EntityUniverse, EntityComment:
		return true
	}
	return false
}

// Point represents a geographic coordinate with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Engagement holds the raw interaction counters for an item.
// All counts are non-negative.
type Engagement struct {
	LikeCount    int `json:"like_count"`
	CommentCount int `json:"comment_count"`
	ShareCount   int `json:"share_count"`
}

// Item is a single piece of rankable content. An item is referenced, never
// copied, by the ranking core during a request.
type Item struct {
	ID         string     `json:"id"`
	EntityType EntityType `json:"entity_type"`
	Title      string     `json:"title"`
	Body       string     `json:"body,omitempty"`
	AuthorID   string     `json:"author_id"`
	UniverseID *string    `json:"universe_id,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Hashtags   []string   `json:"hashtags,omitempty"`
	Language   string     `json:"language,omitempty"`
	HasMedia   bool       `json:"has_media"`
	NSFW       bool       `json:"nsfw"`
	Location   *Point     `json:"location,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	Engagement Engagement `json:"engagement"`
	IsPublic   bool       `json:"is_public"`
	IsDeleted  bool       `json:"is_deleted"`
}

// Visible reports whether the item may be shown to a non-privileged caller.
func (i *Item) Visible() bool {
	return i.IsPublic && !i.IsDeleted
}

// HasTag reports whether the item carries the given tag.
func (i *Item) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Mentions reports whether any of the item's tags or hashtags appear in the
// given mention set.
func (i *Item) Mentions(topics map[string]struct{}) bool {
	if len(topics) == 0 {
		return false
	}
	for _, t := range i.Tags {
		if _, ok := topics[t]; ok {
			return true
		}
	}
	for _, h := range i.Hashtags {
		if _, ok := topics[h]; ok {
			return true
		}
	}
	return false
}
