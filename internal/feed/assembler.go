// Package feed assembles the personal and universe feeds: it resolves the
// requester's membership context, applies the mandatory filter predicates,
// ranks the candidate set, and returns a page of results.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/univrs/discovery/internal/page"
	"github.com/univrs/discovery/internal/query"
	"github.com/univrs/discovery/internal/rank"
	"github.com/univrs/discovery/internal/score"
	"github.com/univrs/discovery/internal/store"
	"github.com/univrs/discovery/internal/tracing"
	"github.com/univrs/discovery/internal/trending"
)

// Options selects the sort and pagination for a feed request. Zero values
// are filled with defaults (relevance is replaced by date for feeds without
// text to rank on).
type Options struct {
	SortBy    query.SortBy
	SortOrder query.SortOrder
	Page      int
	PageSize  int
}

// Assembler orchestrates feed requests. It is stateless across requests;
// all state lives in the storage collaborator.
type Assembler struct {
	store    store.Store
	composer *rank.Composer
	trends   trending.Source
}

// NewAssembler creates a feed Assembler.
func NewAssembler(st store.Store, composer *rank.Composer, trends trending.Source) *Assembler {
	return &Assembler{store: st, composer: composer, trends: trends}
}

// PersonalFeed returns a page of content from the requester's followed and
// member universes. An unknown requester fails with
// store.ErrRequesterNotFound; an empty membership set yields an empty page.
func (a *Assembler) PersonalFeed(ctx context.Context, requesterID string, opts Options) (*page.Page, error) {
	ctx, endSpan := tracing.StartSpan(ctx, "feed.personal")
	var err error
	defer func() { endSpan(err) }()

	req := a.request(requesterID, opts)
	set, err := query.Build(req)
	if err != nil {
		return nil, err
	}

	membership, err := a.store.FetchMembership(ctx, requesterID)
	if err != nil {
		err = fmt.Errorf("personal feed: %w", err)
		return nil, err
	}
	if len(membership) == 0 {
		return page.Paginate(nil, req.Page, req.PageSize), nil
	}
	set.Append(query.UniversePredicate{UniverseIDs: membership})

	return a.assemble(ctx, req, set)
}

// UniverseFeed returns a page of content from the universe resolved by
// slug. A slug that resolves to nothing or to an inactive universe fails
// with store.ErrUniverseNotFound.
func (a *Assembler) UniverseFeed(ctx context.Context, slug, requesterID string, opts Options) (*page.Page, error) {
	ctx, endSpan := tracing.StartSpan(ctx, "feed.universe")
	var err error
	defer func() { endSpan(err) }()

	u, err := a.store.ResolveUniverse(ctx, slug)
	if err != nil {
		err = fmt.Errorf("universe feed: %w", err)
		return nil, err
	}
	if !u.Active {
		err = fmt.Errorf("universe feed: %w", store.ErrUniverseNotFound)
		return nil, err
	}

	req := a.request(requesterID, opts)
	set, err := query.Build(req)
	if err != nil {
		return nil, err
	}
	set.Append(query.UniversePredicate{UniverseIDs: []string{u.ID}})

	return a.assemble(ctx, req, set)
}

// request builds the normalized query request for a feed. Feeds have no
// text to rank on, so an unspecified sort falls back to date rather than
// relevance.
func (a *Assembler) request(requesterID string, opts Options) *query.Request {
	req := &query.Request{
		SortBy:      opts.SortBy,
		SortOrder:   opts.SortOrder,
		Page:        opts.Page,
		PageSize:    opts.PageSize,
		RequesterID: requesterID,
	}
	if req.SortBy == "" {
		req.SortBy = query.SortDate
	}
	req.Normalize()
	return req
}

// assemble fetches, scores, orders, and paginates the candidate set.
func (a *Assembler) assemble(ctx context.Context, req *query.Request, set *query.Set) (*page.Page, error) {
	candidates, err := a.store.FetchCandidates(ctx, set, sortHint(req.SortBy), 0, 0)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	rctx := &rank.Context{
		Personal: a.personalContext(ctx, req.RequesterID),
		Topics:   a.topics(ctx),
		Now:      time.Now(),
	}
	ordered := a.composer.Compose(candidates, req, set, rctx)
	return page.Paginate(ordered, req.Page, req.PageSize), nil
}

// personalContext loads the requester's friend and interest sets. These are
// optional enrichment lookups: a failure degrades the boost to 1.0 instead
// of failing the request.
func (a *Assembler) personalContext(ctx context.Context, requesterID string) *score.PersonalContext {
	if requesterID == "" {
		return nil
	}
	friends, err := a.store.FetchFriendSet(ctx, requesterID)
	if err != nil {
		if !errors.Is(err, store.ErrRequesterNotFound) {
			slog.WarnContext(ctx, "friend set lookup failed, skipping boost", "error", err)
		}
		return nil
	}
	interests, err := a.store.FetchInterests(ctx, requesterID)
	if err != nil {
		if !errors.Is(err, store.ErrRequesterNotFound) {
			slog.WarnContext(ctx, "interest lookup failed, skipping interest boost", "error", err)
		}
		interests = nil
	}
	return &score.PersonalContext{Friends: friends, Interests: interests}
}

// topics loads the trending mention set, degrading to none on failure.
func (a *Assembler) topics(ctx context.Context) map[string]struct{} {
	if a.trends == nil {
		return nil
	}
	topics, err := a.trends.Topics(ctx)
	if err != nil {
		slog.WarnContext(ctx, "trending topics lookup failed, skipping topic boost", "error", err)
		return nil
	}
	return topics
}

// sortHint maps a sort mode to the storage backend's advisory native order.
func sortHint(s query.SortBy) store.SortHint {
	switch s {
	case query.SortDate:
		return store.SortHintDate
	case query.SortPopularity, query.SortEngagement, query.SortTrending:
		return store.SortHintEngagement
	case query.SortRelevance:
		return store.SortHintTextRank
	default:
		return store.SortHintNone
	}
}
