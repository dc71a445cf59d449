// Package rank composes per-dimension scores into a single deterministic
// ordering key per result. The resulting order is total: equal primary and
// secondary keys break ties by item ID so paginated results never duplicate
// or skip an item across adjacent pages for an unchanged request.
package rank

import (
	"sort"
	"time"

	"github.com/univrs/discovery/internal/content"
	"github.com/univrs/discovery/internal/query"
	"github.com/univrs/discovery/internal/score"
)

// Dimension names a scoring dimension in a result's score breakdown.
type Dimension string

// Scoring dimensions.
const (
	DimRelevance  Dimension = "relevance"
	DimRecency    Dimension = "recency"
	DimEngagement Dimension = "engagement"
	DimTrending   Dimension = "trending"
	DimProximity  Dimension = "proximity"
	DimBoost      Dimension = "boost"
)

// Mode is the resolved ordering mode for a request.
type Mode string

// Ordering modes.
const (
	ModeRelevance  Mode = "relevance"
	ModeDate       Mode = "date"
	ModePopularity Mode = "popularity"
	ModeTrending   Mode = "trending"
	ModeGeographic Mode = "geographic"
)

// OrderingMode resolves the ordering mode for a request. Presence of a
// geographic filter overrides the requested sort, unless the sort is
// relevance with non-empty text: explicit textual intent wins over the
// implicit geo default.
func OrderingMode(r *query.Request, set *query.Set) Mode {
	if set.Geo() != nil {
		if r.SortBy == query.SortRelevance && r.Text != "" {
			return ModeRelevance
		}
		return ModeGeographic
	}
	switch r.SortBy {
	case query.SortDate:
		return ModeDate
	case query.SortPopularity, query.SortEngagement:
		return ModePopularity
	case query.SortTrending:
		return ModeTrending
	default:
		return ModeRelevance
	}
}

// Candidate pairs an item with the raw text-rank value the storage backend
// computed for it. TextRank is zero when the request carried no text.
type Candidate struct {
	Item     *content.Item
	TextRank float64
}

// ScoredResult wraps an item with its per-dimension scores and the composite
// ordering key. Created per request and discarded after the response.
type ScoredResult struct {
	Item      *content.Item         `json:"item"`
	Scores    map[Dimension]float64 `json:"scores"`
	Composite float64               `json:"composite_score"`

	// tie is the secondary ordering key; equal (Composite, tie) pairs fall
	// back to Item.ID ascending.
	tie float64
}

// Context carries the per-request inputs for scoring that are not part of
// the query itself. All fields are optional except Now.
type Context struct {
	// Personal enables the personalization boost; nil means boost 1.0.
	Personal *score.PersonalContext
	// Topics is the trending-topic mention set for trending boosts.
	Topics map[string]struct{}
	// Now is the reference time for recency and trending windows. Fixing it
	// per request keeps scoring deterministic across pages.
	Now time.Time
}

// Composer scores candidates and produces the final ordering.
type Composer struct {
	weights *score.Weights
}

// NewComposer creates a Composer with the given calibrated weights.
// A nil weights argument uses the defaults.
func NewComposer(w *score.Weights) *Composer {
	if w == nil {
		w = score.DefaultWeights()
	}
	return &Composer{weights: w}
}

// Weights returns the composer's calibrated weights.
func (c *Composer) Weights() *score.Weights {
	return c.weights
}

// Compose scores every candidate against the request and returns the results
// in final composite order. The composite score is a pure function of the
// item, the request, and the context: never of request ordinal or prior page
// state, so pagination is stable for a fixed request.
func (c *Composer) Compose(candidates []Candidate, r *query.Request, set *query.Set, rctx *Context) []*ScoredResult {
	now := time.Now()
	var pc *score.PersonalContext
	var topics map[string]struct{}
	if rctx != nil {
		if !rctx.Now.IsZero() {
			now = rctx.Now
		}
		pc = rctx.Personal
		topics = rctx.Topics
	}
	// Personalization requires a requester.
	if r.RequesterID == "" {
		pc = nil
	}

	mode := OrderingMode(r, set)
	window := time.Duration(c.weights.TrendingWindowHours) * time.Hour

	var center *content.Point
	if g := set.Geo(); g != nil {
		p := g.Center
		center = &p
	}

	results := make([]*ScoredResult, 0, len(candidates))
	for _, cand := range candidates {
		item := cand.Item
		scores := map[Dimension]float64{
			DimRelevance:  score.Relevance(cand.TextRank),
			DimRecency:    score.Recency(item.CreatedAt, now),
			DimEngagement: score.Engagement(item.Engagement),
			DimBoost:      score.Boost(item, pc, c.weights),
		}
		if mode == ModeTrending {
			scores[DimTrending] = score.Trending(item, topics, window, now, c.weights)
		}
		proximity, hasProximity := score.Distance(item, center)
		if hasProximity {
			scores[DimProximity] = proximity
		}

		res := &ScoredResult{Item: item, Scores: scores}
		switch mode {
		case ModeDate:
			res.Composite = scores[DimRecency]
			res.tie = 0
		case ModePopularity:
			res.Composite = scores[DimEngagement]
			res.tie = scores[DimRecency]
		case ModeTrending:
			res.Composite = scores[DimTrending]
			res.tie = scores[DimEngagement]
		case ModeGeographic:
			// Proximity is higher for nearer items, so descending order is
			// nearest first. Items without coordinates sort last.
			res.Composite = proximity
			res.tie = scores[DimEngagement]
		default:
			res.Composite = scores[DimRelevance] * scores[DimBoost]
			res.tie = scores[DimRecency]
		}
		results = append(results, res)
	}

	Order(results, mode, r.SortOrder)
	return results
}

// Order sorts results into the final total order. The sort order flips the
// primary key only; the secondary key is always descending and the final ID
// tie-break is always ascending, keeping the order total and deterministic.
// Geographic mode is fixed nearest-first regardless of sort order.
func Order(results []*ScoredResult, mode Mode, order query.SortOrder) {
	asc := order == query.OrderAsc && mode != ModeGeographic
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Composite != b.Composite {
			if asc {
				return a.Composite < b.Composite
			}
			return a.Composite > b.Composite
		}
		if a.tie != b.tie {
			return a.tie > b.tie
		}
		return a.Item.ID < b.Item.ID
	})
}
