// Package query translates structured search and feed requests into
// conjunctive predicate sets that a storage backend can evaluate without
// string-assembled query text.
package query

import (
	"errors"
	"fmt"
	"time"

	"github.com/univrs/discovery/internal/content"
)

// ErrInvalidFilter is returned when request parameters are malformed or out
// of range. Callers should surface it as a 4xx-class response.
var ErrInvalidFilter = errors.New("invalid filter")

// Pagination bounds. PageSize outside [MinPageSize, MaxPageSize] is rejected.
const (
	MinPageSize     = 1
	MaxPageSize     = 100
	DefaultPageSize = 20
)

// SortBy selects the primary ranking dimension for a request.
type SortBy string

// Supported sort modes.
const (
	SortRelevance  SortBy = "relevance"
	SortDate       SortBy = "date"
	SortPopularity SortBy = "popularity"
	SortEngagement SortBy = "engagement"
	SortTrending   SortBy = "trending"
)

// Valid reports whether the sort mode is one of the supported values.
func (s SortBy) Valid() bool {
	switch s {
	case SortRelevance, SortDate, SortPopularity, SortEngagement, SortTrending:
		return true
	}
	return false
}

// SortOrder controls the direction of the primary sort key.
type SortOrder string

// Supported sort orders.
const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// DateRange restricts items to a creation-time window. Either bound may be
// nil for an open-ended range.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// GeoFilter restricts items to a radius around a center point. Both fields
// are required; a partial geo filter is ignored by Build.
type GeoFilter struct {
	Center   content.Point `json:"center"`
	RadiusKm float64       `json:"radius_km"`
}

// Filters holds the optional constraints of a request. A nil/absent filter
// never generates a predicate.
type Filters struct {
	DateRange  *DateRange `json:"date_range,omitempty"`
	UniverseID *string    `json:"universe_id,omitempty"`
	AuthorID   *string    `json:"author_id,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
	Hashtags   []string   `json:"hashtags,omitempty"`
	Geo        *GeoFilter `json:"geo,omitempty"`
	NSFW       *bool      `json:"nsfw,omitempty"`
	Language   *string    `json:"language,omitempty"`
	HasMedia   *bool      `json:"has_media,omitempty"`
}

// Request is a structured query against the content corpus. Zero values for
// SortBy, SortOrder, Page and PageSize are filled in by Normalize.
type Request struct {
	Text        string               `json:"text"`
	EntityTypes []content.EntityType `json:"entity_types,omitempty"`
	Filters     Filters              `json:"filters"`
	SortBy      SortBy               `json:"sort_by"`
	SortOrder   SortOrder            `json:"sort_order"`
	Page        int                  `json:"page"`
	PageSize    int                  `json:"page_size"`
	RequesterID string               `json:"requester_id,omitempty"`
}

// Normalize fills defaults for unset fields. It does not validate; call
// Build afterwards.
func (r *Request) Normalize() {
	if r.SortBy == "" {
		r.SortBy = SortRelevance
	}
	if r.SortOrder == "" {
		r.SortOrder = OrderDesc
	}
	if r.Page == 0 {
		r.Page = 1
	}
	if r.PageSize == 0 {
		r.PageSize = DefaultPageSize
	}
}

// Kind discriminates predicate variants.
type Kind string

// Predicate kinds.
const (
	KindEntityType Kind = "entity_type"
	KindVisibility Kind = "visibility"
	KindDateRange  Kind = "date_range"
	KindUniverse   Kind = "universe"
	KindAuthor     Kind = "author"
	KindTags       Kind = "tags"
	KindHashtags   Kind = "hashtags"
	KindGeo        Kind = "geo"
	KindText       Kind = "text"
	KindNSFW       Kind = "nsfw"
	KindLanguage   Kind = "language"
	KindHasMedia   Kind = "has_media"
)

// Predicate is one named constraint in a conjunctive predicate set.
type Predicate interface {
	Kind() Kind
}

// EntityTypePredicate restricts results to the listed entity types.
type EntityTypePredicate struct {
	Types []content.EntityType
}

// VisibilityPredicate requires is_public and not-deleted, and an active
// owning universe where one applies. It is appended to every predicate set
// and is not removable by caller input.
type VisibilityPredicate struct{}

// DateRangePredicate restricts results to a creation-time window.
type DateRangePredicate struct {
	From *time.Time
	To   *time.Time
}

// UniversePredicate restricts results to items belonging to any of the
// listed universes.
type UniversePredicate struct {
	UniverseIDs []string
}

// AuthorPredicate restricts results to a single author.
type AuthorPredicate struct {
	AuthorID string
}

// TagsPredicate requires overlap with the given tag set.
type TagsPredicate struct {
	Tags []string
}

// HashtagsPredicate requires overlap with the given hashtag set.
type HashtagsPredicate struct {
	Hashtags []string
}

// GeoPredicate restricts results to a radius around a center point.
type GeoPredicate struct {
	Center   content.Point
	RadiusKm float64
}

// TextPredicate requires a text match. The storage backend supplies the raw
// rank value used as the relevance dimension.
type TextPredicate struct {
	Query string
}

// NSFWPredicate filters on the NSFW flag.
type NSFWPredicate struct {
	Allow bool
}

// LanguagePredicate restricts results to a single language.
type LanguagePredicate struct {
	Language string
}

// HasMediaPredicate filters on media presence.
type HasMediaPredicate struct {
	Required bool
}

func (EntityTypePredicate) Kind() Kind { return KindEntityType }
func (VisibilityPredicate) Kind() Kind { return KindVisibility }
func (DateRangePredicate) Kind() Kind  { return KindDateRange }
func (UniversePredicate) Kind() Kind   { return KindUniverse }
func (AuthorPredicate) Kind() Kind     { return KindAuthor }
func (TagsPredicate) Kind() Kind       { return KindTags }
func (HashtagsPredicate) Kind() Kind   { return KindHashtags }
func (GeoPredicate) Kind() Kind        { return KindGeo }
func (TextPredicate) Kind() Kind       { return KindText }
func (NSFWPredicate) Kind() Kind       { return KindNSFW }
func (LanguagePredicate) Kind() Kind   { return KindLanguage }
func (HasMediaPredicate) Kind() Kind   { return KindHasMedia }

// Set is a conjunction of predicates. Selective reports whether the set
// narrows the candidate space by equality or range (as opposed to purely
// textual matching), which storage backends may use as an index hint.
type Set struct {
	Predicates []Predicate
	Selective  bool
}

// Append adds a predicate to the set, updating the Selective flag.
func (s *Set) Append(p Predicate) {
	s.Predicates = append(s.Predicates, p)
	if isSelective(p) {
		s.Selective = true
	}
}

// Geo returns the geo predicate if one is present, nil otherwise.
func (s *Set) Geo() *GeoPredicate {
	for _, p := range s.Predicates {
		if g, ok := p.(GeoPredicate); ok {
			return &g
		}
	}
	return nil
}

// Text returns the text predicate if one is present, nil otherwise.
func (s *Set) Text() *TextPredicate {
	for _, p := range s.Predicates {
		if t, ok := p.(TextPredicate); ok {
			return &t
		}
	}
	return nil
}

// Has reports whether the set contains a predicate of the given kind.
func (s *Set) Has(k Kind) bool {
	for _, p := range s.Predicates {
		if p.Kind() == k {
			return true
		}
	}
	return false
}

// isSelective reports whether a predicate narrows by equality or range.
// Visibility applies to every request so it does not count, and text
// matching is the non-selective case the flag exists to distinguish.
func isSelective(p Predicate) bool {
	switch p.Kind() {
	case KindVisibility, KindText:
		return false
	}
	return true
}

// Build validates the request and constructs its predicate set.
//
// The visibility predicate is always appended regardless of the request's
// other filters: it is a security-relevant invariant, not an optional
// constraint. Optional filters only generate predicates when present, so an
// absent filter never excludes unrelated rows.
func Build(r *Request) (*Set, error) {
	if r.Page < 1 {
		return nil, fmt.Errorf("%w: page must be >= 1, got %d", ErrInvalidFilter, r.Page)
	}
	if r.PageSize < MinPageSize || r.PageSize > MaxPageSize {
		return nil, fmt.Errorf("%w: page_size must be in [%d,%d], got %d",
			ErrInvalidFilter, MinPageSize, MaxPageSize, r.PageSize)
	}
	if !r.SortBy.Valid() {
		return nil, fmt.Errorf("%w: unknown sort_by %q", ErrInvalidFilter, r.SortBy)
	}
	if r.SortOrder != OrderAsc && r.SortOrder != OrderDesc {
		return nil, fmt.Errorf("%w: unknown sort_order %q", ErrInvalidFilter, r.SortOrder)
	}
	for _, et := range r.EntityTypes {
		if !et.Valid() {
			return nil, fmt.Errorf("%w: unknown entity type %q", ErrInvalidFilter, et)
		}
	}

	set := &Set{}

	if len(r.EntityTypes) > 0 {
		types := make([]content.EntityType, len(r.EntityTypes))
		copy(types, r.EntityTypes)
		set.Append(EntityTypePredicate{Types: types})
	}

	// Mandatory, always present.
	set.Append(VisibilityPredicate{})

	f := r.Filters
	if f.DateRange != nil && (f.DateRange.From != nil || f.DateRange.To != nil) {
		if f.DateRange.From != nil && f.DateRange.To != nil && f.DateRange.To.Before(*f.DateRange.From) {
			return nil, fmt.Errorf("%w: date range end precedes start", ErrInvalidFilter)
		}
		set.Append(DateRangePredicate{From: f.DateRange.From, To: f.DateRange.To})
	}
	if f.UniverseID != nil && *f.UniverseID != "" {
		set.Append(UniversePredicate{UniverseIDs: []string{*f.UniverseID}})
	}
	if f.AuthorID != nil && *f.AuthorID != "" {
		set.Append(AuthorPredicate{AuthorID: *f.AuthorID})
	}
	if len(f.Tags) > 0 {
		set.Append(TagsPredicate{Tags: f.Tags})
	}
	if len(f.Hashtags) > 0 {
		set.Append(HashtagsPredicate{Hashtags: f.Hashtags})
	}
	if f.Geo != nil {
		if f.Geo.RadiusKm <= 0 {
			return nil, fmt.Errorf("%w: geo radius must be > 0, got %f", ErrInvalidFilter, f.Geo.RadiusKm)
		}
		if f.Geo.Center.Lat < -90 || f.Geo.Center.Lat > 90 {
			return nil, fmt.Errorf("%w: latitude must be between -90 and 90", ErrInvalidFilter)
		}
		if f.Geo.Center.Lng < -180 || f.Geo.Center.Lng > 180 {
			return nil, fmt.Errorf("%w: longitude must be between -180 and 180", ErrInvalidFilter)
		}
		set.Append(GeoPredicate{Center: f.Geo.Center, RadiusKm: f.Geo.RadiusKm})
	}
	if f.NSFW != nil {
		set.Append(NSFWPredicate{Allow: *f.NSFW})
	}
	if f.Language != nil && *f.Language != "" {
		set.Append(LanguagePredicate{Language: *f.Language})
	}
	if f.HasMedia != nil {
		set.Append(HasMediaPredicate{Required: *f.HasMedia})
	}

	// Empty text omits text matching entirely so pure-filter browsing works.
	if r.Text != "" {
		set.Append(TextPredicate{Query: r.Text})
	}

	return set, nil
}
