// Package search orchestrates the general search use case: multi-entity
// candidate resolution, ranking, faceting, pagination metadata, and
// did-you-mean suggestions.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/univrs/discovery/internal/content"
	"github.com/univrs/discovery/internal/page"
	"github.com/univrs/discovery/internal/query"
	"github.com/univrs/discovery/internal/rank"
	"github.com/univrs/discovery/internal/score"
	"github.com/univrs/discovery/internal/store"
	"github.com/univrs/discovery/internal/tracing"
	"github.com/univrs/discovery/internal/trending"
)

// SuggestionThreshold is the result count below which did-you-mean
// suggestions are computed for non-empty text queries.
const SuggestionThreshold = 3

// MaxSuggestions caps the number of suggestions returned.
const MaxSuggestions = 5

// Result is the response of one search request.
type Result struct {
	Page        *page.Page `json:"page"`
	Facets      Facets     `json:"facets"`
	Suggestions []string   `json:"suggestions,omitempty"`
	TookMs      int64      `json:"took_ms"`
}

// Orchestrator runs search requests. It is stateless across requests; the
// storage collaborator is the only shared dependency and is read-only
// during a request.
type Orchestrator struct {
	store     store.Store
	composer  *rank.Composer
	trends    trending.Source
	suggester Suggester
	metrics   *Metrics
}

// NewOrchestrator creates a search Orchestrator. The trending source,
// suggester, and metrics may be nil, which disables the corresponding
// feature.
func NewOrchestrator(st store.Store, composer *rank.Composer, trends trending.Source, suggester Suggester, metrics *Metrics) *Orchestrator {
	return &Orchestrator{
		store:     st,
		composer:  composer,
		trends:    trends,
		suggester: suggester,
		metrics:   metrics,
	}
}

// Search validates the request, resolves candidates per entity type,
// ranks, facets, and paginates.
func (o *Orchestrator) Search(ctx context.Context, req *query.Request) (*Result, error) {
	start := time.Now()
	ctx, endSpan := tracing.StartSpan(ctx, "search")
	var err error
	defer func() { endSpan(err) }()

	req.Normalize()
	set, err := query.Build(req)
	if err != nil {
		o.observe("invalid", "", 0, 0)
		return nil, err
	}

	candidates, err := o.fetchCandidates(ctx, req, set)
	if err != nil {
		o.observe("error", "", 0, 0)
		return nil, err
	}

	rctx := &rank.Context{
		Personal: o.personalContext(ctx, req.RequesterID),
		Topics:   o.topics(ctx),
		Now:      time.Now(),
	}
	ordered := o.composer.Compose(candidates, req, set, rctx)

	// Facets aggregate the full filtered set before the page is sliced.
	facets := ComputeFacets(ordered)
	pg := page.Paginate(ordered, req.Page, req.PageSize)

	result := &Result{
		Page:   pg,
		Facets: facets,
		TookMs: time.Since(start).Milliseconds(),
	}

	if req.Text != "" && pg.TotalCount < SuggestionThreshold && o.suggester != nil {
		suggestions, serr := o.suggester.Suggest(ctx, req.Text, MaxSuggestions)
		if serr != nil {
			// Suggestions are best-effort enrichment.
			slog.WarnContext(ctx, "suggestion lookup failed", "error", serr)
		} else {
			result.Suggestions = suggestions
		}
	}

	mode := rank.OrderingMode(req, set)
	tracing.SetAttributes(ctx,
		attribute.String("search.mode", string(mode)),
		attribute.Int("search.total", pg.TotalCount),
	)
	o.observe("ok", string(mode), time.Since(start).Seconds(), pg.TotalCount)

	return result, nil
}

// fetchCandidates resolves the candidate set. When the request spans more
// than one entity type the per-type lookups are independent, so they are
// issued concurrently and merged; concurrency here is a performance
// optimization, not a correctness requirement.
func (o *Orchestrator) fetchCandidates(ctx context.Context, req *query.Request, set *query.Set) ([]rank.Candidate, error) {
	types := req.EntityTypes
	if len(types) == 0 {
		types = content.AllEntityTypes
	}
	if len(types) == 1 {
		candidates, err := o.store.FetchCandidates(ctx, set, store.SortHintNone, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("fetch candidates: %w", err)
		}
		return candidates, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	perType := make([][]rank.Candidate, len(types))
	for i, et := range types {
		g.Go(func() error {
			sub := restrictToType(set, et)
			candidates, err := o.store.FetchCandidates(gctx, sub, store.SortHintNone, 0, 0)
			if err != nil {
				return fmt.Errorf("fetch %s candidates: %w", et, err)
			}
			perType[i] = candidates
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []rank.Candidate
	for _, candidates := range perType {
		merged = append(merged, candidates...)
	}
	return merged, nil
}

// restrictToType clones a predicate set with its entity-type predicate
// replaced by a single-type restriction.
func restrictToType(set *query.Set, et content.EntityType) *query.Set {
	sub := &query.Set{}
	for _, p := range set.Predicates {
		if p.Kind() == query.KindEntityType {
			continue
		}
		sub.Append(p)
	}
	sub.Append(query.EntityTypePredicate{Types: []content.EntityType{et}})
	return sub
}

// personalContext loads the requester's friend and interest sets. Optional
// enrichment: failures degrade the boost to 1.0 instead of failing the
// request.
func (o *Orchestrator) personalContext(ctx context.Context, requesterID string) *score.PersonalContext {
	if requesterID == "" {
		return nil
	}
	friends, err := o.store.FetchFriendSet(ctx, requesterID)
	if err != nil {
		if !errors.Is(err, store.ErrRequesterNotFound) {
			slog.WarnContext(ctx, "friend set lookup failed, skipping boost", "error", err)
		}
		return nil
	}
	interests, err := o.store.FetchInterests(ctx, requesterID)
	if err != nil {
		if !errors.Is(err, store.ErrRequesterNotFound) {
			slog.WarnContext(ctx, "interest lookup failed, skipping interest boost", "error", err)
		}
		interests = nil
	}
	return &score.PersonalContext{Friends: friends, Interests: interests}
}

// topics loads the trending mention set, degrading to none on failure.
func (o *Orchestrator) topics(ctx context.Context) map[string]struct{} {
	if o.trends == nil {
		return nil
	}
	topics, err := o.trends.Topics(ctx)
	if err != nil {
		slog.WarnContext(ctx, "trending topics lookup failed, skipping topic boost", "error", err)
		return nil
	}
	return topics
}

// observe records metrics when a collector is configured.
func (o *Orchestrator) observe(status, mode string, seconds float64, total int) {
	if o.metrics == nil {
		return
	}
	o.metrics.ObserveSearch(status, mode, seconds, total)
}
