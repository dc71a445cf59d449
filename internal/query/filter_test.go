package query

import (
	"errors"
	"testing"
	"time"

	"github.com/univrs/discovery/internal/content"
)

func validRequest() *Request {
	r := &Request{}
	r.Normalize()
	return r
}

func TestNormalize(t *testing.T) {
	r := &Request{}
	r.Normalize()

	if r.SortBy != SortRelevance {
		t.Errorf("SortBy = %v, want %v", r.SortBy, SortRelevance)
	}
	if r.SortOrder != OrderDesc {
		t.Errorf("SortOrder = %v, want %v", r.SortOrder, OrderDesc)
	}
	if r.Page != 1 {
		t.Errorf("Page = %v, want 1", r.Page)
	}
	if r.PageSize != DefaultPageSize {
		t.Errorf("PageSize = %v, want %v", r.PageSize, DefaultPageSize)
	}
}

func TestNormalizePreservesExplicitValues(t *testing.T) {
	r := &Request{SortBy: SortDate, SortOrder: OrderAsc, Page: 3, PageSize: 50}
	r.Normalize()

	if r.SortBy != SortDate || r.SortOrder != OrderAsc || r.Page != 3 || r.PageSize != 50 {
		t.Errorf("Normalize() overwrote explicit values: %+v", r)
	}
}

func TestBuildValidation(t *testing.T) {
	past := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	earlier := past.Add(-24 * time.Hour)

	tests := []struct {
		name   string
		modify func(*Request)
	}{
		{
			name:   "page zero",
			modify: func(r *Request) { r.Page = 0 },
		},
		{
			name:   "negative page",
			modify: func(r *Request) { r.Page = -2 },
		},
		{
			name:   "page size too large",
			modify: func(r *Request) { r.PageSize = MaxPageSize + 1 },
		},
		{
			name:   "page size negative",
			modify: func(r *Request) { r.PageSize = -1 },
		},
		{
			name:   "unknown sort",
			modify: func(r *Request) { r.SortBy = "karma" },
		},
		{
			name:   "unknown sort order",
			modify: func(r *Request) { r.SortOrder = "sideways" },
		},
		{
			name:   "unknown entity type",
			modify: func(r *Request) { r.EntityTypes = []content.EntityType{"widget"} },
		},
		{
			name: "date range end precedes start",
			modify: func(r *Request) {
				r.Filters.DateRange = &DateRange{From: &past, To: &earlier}
			},
		},
		{
			name: "geo radius zero",
			modify: func(r *Request) {
				r.Filters.Geo = &GeoFilter{Center: content.Point{Lat: 1, Lng: 1}, RadiusKm: 0}
			},
		},
		{
			name: "geo radius negative",
			modify: func(r *Request) {
				r.Filters.Geo = &GeoFilter{Center: content.Point{Lat: 1, Lng: 1}, RadiusKm: -5}
			},
		},
		{
			name: "latitude out of range",
			modify: func(r *Request) {
				r.Filters.Geo = &GeoFilter{Center: content.Point{Lat: 91, Lng: 0}, RadiusKm: 10}
			},
		},
		{
			name: "longitude out of range",
			modify: func(r *Request) {
				r.Filters.Geo = &GeoFilter{Center: content.Point{Lat: 0, Lng: -181}, RadiusKm: 10}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			tt.modify(r)
			_, err := Build(r)
			if !errors.Is(err, ErrInvalidFilter) {
				t.Errorf("Build() error = %v, want ErrInvalidFilter", err)
			}
		})
	}
}

func TestBuildAlwaysAppendsVisibility(t *testing.T) {
	u := "universe-1"
	author := "author-1"
	nsfw := false

	requests := []*Request{
		validRequest(),
		func() *Request {
			r := validRequest()
			r.Text = "techno"
			return r
		}(),
		func() *Request {
			r := validRequest()
			r.EntityTypes = []content.EntityType{content.EntityPost}
			r.Filters = Filters{UniverseID: &u, AuthorID: &author, NSFW: &nsfw}
			return r
		}(),
	}
	for _, r := range requests {
		set, err := Build(r)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if !set.Has(KindVisibility) {
			t.Errorf("Build() set missing visibility predicate for %+v", r)
		}
	}
}

func TestBuildEmptyTextOmitsTextPredicate(t *testing.T) {
	r := validRequest()
	set, err := Build(r)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if set.Text() != nil {
		t.Error("Build() produced a text predicate for empty text")
	}

	r.Text = "dub"
	set, err = Build(r)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	tp := set.Text()
	if tp == nil {
		t.Fatal("Build() missing text predicate for non-empty text")
	}
	if tp.Query != "dub" {
		t.Errorf("text predicate query = %q, want %q", tp.Query, "dub")
	}
}

func TestBuildOptionalFilters(t *testing.T) {
	u := "universe-1"
	author := "author-1"
	lang := "de"
	hasMedia := true
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	r := validRequest()
	r.EntityTypes = []content.EntityType{content.EntityPost, content.EntityComment}
	r.Filters = Filters{
		DateRange:  &DateRange{From: &from},
		UniverseID: &u,
		AuthorID:   &author,
		Tags:       []string{"techno"},
		Hashtags:   []string{"berlin"},
		Geo:        &GeoFilter{Center: content.Point{Lat: 52.5, Lng: 13.4}, RadiusKm: 10},
		Language:   &lang,
		HasMedia:   &hasMedia,
	}

	set, err := Build(r)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for _, kind := range []Kind{
		KindEntityType, KindVisibility, KindDateRange, KindUniverse,
		KindAuthor, KindTags, KindHashtags, KindGeo, KindLanguage, KindHasMedia,
	} {
		if !set.Has(kind) {
			t.Errorf("Build() set missing %v predicate", kind)
		}
	}
	if set.Has(KindNSFW) {
		t.Error("Build() produced NSFW predicate without a filter")
	}
	if !set.Selective {
		t.Error("Selective = false, want true for equality-filtered set")
	}
}

func TestBuildAbsentFiltersProduceNoPredicates(t *testing.T) {
	set, err := Build(validRequest())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(set.Predicates) != 1 {
		t.Errorf("Build() produced %d predicates, want 1 (visibility only)", len(set.Predicates))
	}
	if set.Selective {
		t.Error("Selective = true for visibility-only set, want false")
	}
}

func TestSetGeo(t *testing.T) {
	set := &Set{}
	if set.Geo() != nil {
		t.Error("Geo() on empty set = non-nil")
	}
	set.Append(GeoPredicate{Center: content.Point{Lat: 1, Lng: 2}, RadiusKm: 5})
	g := set.Geo()
	if g == nil {
		t.Fatal("Geo() = nil after append")
	}
	if g.RadiusKm != 5 {
		t.Errorf("Geo().RadiusKm = %v, want 5", g.RadiusKm)
	}
}
