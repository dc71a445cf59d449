// Package store defines the storage collaborator consumed by the feed and
// search cores, together with an in-memory implementation for tests and
// local development and a Postgres implementation for production.
package store

import (
	"context"
	"errors"

	"github.com/univrs/discovery/internal/query"
	"github.com/univrs/discovery/internal/rank"
	"github.com/univrs/discovery/internal/universe"
)

// Common errors for store operations.
var (
	// ErrUpstreamUnavailable indicates the backing storage failed. The core
	// never retries; retry policy belongs to the serving boundary.
	ErrUpstreamUnavailable = errors.New("upstream storage unavailable")

	// ErrRequesterNotFound indicates the requesting user is unknown.
	ErrRequesterNotFound = errors.New("requester not found")

	// ErrUniverseNotFound indicates no universe matches the given slug.
	ErrUniverseNotFound = errors.New("universe not found")
)

// SortHint advises the storage backend on a useful native ordering. It is
// advisory only: the core re-sorts via the ranking composer whenever the
// composite order depends on dimensions the storage cannot rank natively.
type SortHint string

// Sort hints.
const (
	SortHintNone       SortHint = ""
	SortHintDate       SortHint = "date"
	SortHintEngagement SortHint = "engagement"
	SortHintTextRank   SortHint = "text_rank"
)

// Store is the storage collaborator interface. Implementations own the
// content corpus; the core only reads from it and holds no state across
// requests.
type Store interface {
	// FetchCandidates returns items satisfying the predicate set, each
	// paired with the backend's raw text-rank value (zero when the set has
	// no text predicate). A limit <= 0 fetches the full candidate set.
	//
	// The ranking core always passes limit 0: composite ordering and facet
	// aggregation need every candidate, so pagination happens after
	// ranking. limit and offset exist for callers whose sort key matches a
	// native order (the hint) and who can therefore page in the backend,
	// such as export tooling or a future keyset-paged browse surface.
	FetchCandidates(ctx context.Context, set *query.Set, hint SortHint, limit, offset int) ([]rank.Candidate, error)

	// CountCandidates returns the size of the full candidate set for the
	// predicate set, independent of pagination. It pairs with a limited
	// FetchCandidates; callers fetching the full set take len() instead of
	// paying a second query.
	CountCandidates(ctx context.Context, set *query.Set) (int, error)

	// FetchMembership returns the universe IDs the requester follows or is
	// a member of. Returns ErrRequesterNotFound for unknown requesters; an
	// empty set is not an error.
	FetchMembership(ctx context.Context, requesterID string) ([]string, error)

	// FetchFriendSet returns the requester's accepted-friend user IDs.
	FetchFriendSet(ctx context.Context, requesterID string) (map[string]struct{}, error)

	// FetchInterests returns the requester's declared interest tags.
	FetchInterests(ctx context.Context, requesterID string) (map[string]struct{}, error)

	// ResolveUniverse resolves a universe by slug, including inactive ones;
	// callers decide whether inactive universes are acceptable. Returns
	// ErrUniverseNotFound when the slug matches nothing.
	ResolveUniverse(ctx context.Context, slug string) (*universe.Universe, error)
}
