package search

import (
	"sort"

	"github.com/univrs/discovery/internal/rank"
)

// MaxFacetBuckets caps the number of buckets returned per facet dimension.
const MaxFacetBuckets = 10

// Bucket is one aggregated facet value with its count over the full
// filtered set, not just the returned page.
type Bucket struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Facets holds the aggregations computed over the full matching set.
type Facets struct {
	EntityTypes []Bucket `json:"entity_types"`
	Tags        []Bucket `json:"tags"`
	Languages   []Bucket `json:"languages"`
}

// ComputeFacets aggregates entity-type, tag, and language counts over the
// full filtered result set, independent of pagination. The input is
// treated as read-only.
func ComputeFacets(results []*rank.ScoredResult) Facets {
	entityTypes := make(map[string]int)
	tags := make(map[string]int)
	languages := make(map[string]int)

	for _, r := range results {
		entityTypes[string(r.Item.EntityType)]++
		for _, t := range r.Item.Tags {
			tags[t]++
		}
		if r.Item.Language != "" {
			languages[r.Item.Language]++
		}
	}

	return Facets{
		EntityTypes: buckets(entityTypes),
		Tags:        buckets(tags),
		Languages:   buckets(languages),
	}
}

// buckets converts a count map into sorted buckets: count descending, value
// ascending for determinism, capped at MaxFacetBuckets.
func buckets(counts map[string]int) []Bucket {
	out := make([]Bucket, 0, len(counts))
	for v, c := range counts {
		out = append(out, Bucket{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > MaxFacetBuckets {
		out = out[:MaxFacetBuckets]
	}
	return out
}
