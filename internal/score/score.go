// Package score provides the pure scoring dimension calculations used for
// feed and search ranking. All functions are free of I/O so they can be
// unit-tested with literal item fixtures.
package score

import (
	"time"

	"github.com/univrs/discovery/internal/content"
	"github.com/univrs/discovery/internal/geo"
)

// Engagement weights. Shares are valued highest as the strongest
// distribution signal, likes lowest as the lowest-effort interaction.
// These match the existing trending formula and are fixed constants.
const (
	LikeWeight    = 3
	CommentWeight = 2
	ShareWeight   = 5
)

// Engagement computes the weighted engagement score for an item.
// Formula: likes*3 + comments*2 + shares*5.
func Engagement(e content.Engagement) float64 {
	return float64(e.LikeCount*LikeWeight + e.CommentCount*CommentWeight + e.ShareCount*ShareWeight)
}

// Recency computes a monotonically decreasing score of item age.
// Formula: 1 / (1 + age_hours). Gives 1.0 for brand-new items, 0.5 at one
// hour, and decays gradually. Items dated in the future clamp to 1.0.
func Recency(createdAt, now time.Time) float64 {
	age := now.Sub(createdAt)
	if age <= 0 {
		return 1.0
	}
	return 1.0 / (1.0 + age.Hours())
}

// Relevance passes through the raw text-rank value supplied by the storage
// backend's text-search primitive, clamped to be non-negative. When a
// request carries no text, relevance is uniformly zero.
func Relevance(rawRank float64) float64 {
	if rawRank < 0 {
		return 0
	}
	return rawRank
}

// Proximity converts a distance in meters to a score in (0, 1].
// Formula: 1 / (1 + distance_km). Gives 1.0 at 0m, 0.5 at 1km, decays
// gradually. Higher means nearer, so descending proximity orders nearest
// first.
func Proximity(distanceMeters float64) float64 {
	if distanceMeters < 0 {
		distanceMeters = 0
	}
	return 1.0 / (1.0 + distanceMeters/1000.0)
}

// Distance computes the proximity score between an item and a query center.
// The second return value distinguishes absence from zero distance: it is
// false when either side lacks coordinates, and distance scoring is disabled
// for that item.
func Distance(item *content.Item, center *content.Point) (float64, bool) {
	if item.Location == nil || center == nil {
		return 0, false
	}
	return Proximity(geo.DistanceMeters(*item.Location, *center)), true
}

// PersonalContext carries the requester's relationship and interest sets
// used by the personalization boost. A nil context disables boosting.
type PersonalContext struct {
	// Friends is the requester's accepted-friend set, keyed by user ID.
	Friends map[string]struct{}
	// Interests is the requester's declared interest tag set.
	Interests map[string]struct{}
}

// Boost computes the personalization multiplier for an item.
//
// The friend boost takes precedence over the interest boost: when both
// would apply, only the friend boost is used. The multipliers are never
// combined. Without a personal context the boost is always 1.0.
func Boost(item *content.Item, pc *PersonalContext, w *Weights) float64 {
	if w == nil {
		w = DefaultWeights()
	}
	if pc == nil {
		return 1.0
	}
	if _, ok := pc.Friends[item.AuthorID]; ok {
		return w.FriendBoost
	}
	for _, tag := range item.Tags {
		if _, ok := pc.Interests[tag]; ok {
			return w.InterestBoost
		}
	}
	return 1.0
}

// Trending computes the trending score for an item: the engagement score
// restricted to a rolling creation window, boosted when the item's tags or
// hashtags intersect the externally maintained trending-topic mention set.
// Items outside the window score zero.
func Trending(item *content.Item, topics map[string]struct{}, window time.Duration, now time.Time, w *Weights) float64 {
	if w == nil {
		w = DefaultWeights()
	}
	if window <= 0 {
		window = time.Duration(w.TrendingWindowHours) * time.Hour
	}
	if now.Sub(item.CreatedAt) > window {
		return 0
	}
	s := Engagement(item.Engagement)
	if item.Mentions(topics) {
		s *= w.TopicBoost
	}
	return s
}
