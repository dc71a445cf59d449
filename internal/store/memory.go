package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/univrs/discovery/internal/content"
	"github.com/univrs/discovery/internal/geo"
	"github.com/univrs/discovery/internal/query"
	"github.com/univrs/discovery/internal/rank"
	"github.com/univrs/discovery/internal/score"
	"github.com/univrs/discovery/internal/universe"
)

// User seeds the personalization context for a requester in the memory
// store.
type User struct {
	ID        string
	Universes []string // followed/member universe IDs
	Friends   []string // accepted-friend user IDs
	Interests []string // declared interest tags
}

type userRecord struct {
	universes []string
	friends   map[string]struct{}
	interests map[string]struct{}
}

// MemoryStore is an in-memory implementation of Store.
// Thread-safe via RWMutex; all returned items are deep copies.
type MemoryStore struct {
	mu        sync.RWMutex
	items     map[string]*content.Item
	universes map[string]*universe.Universe // ID -> Universe
	slugs     map[string]string             // slug -> ID
	users     map[string]*userRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:     make(map[string]*content.Item),
		universes: make(map[string]*universe.Universe),
		slugs:     make(map[string]string),
		users:     make(map[string]*userRecord),
	}
}

// AddItem inserts an item, assigning an ID and creation time if unset.
func (s *MemoryStore) AddItem(item *content.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	s.items[item.ID] = cloneItem(item)
}

// cloneItem copies an item including its slices and pointer fields, so
// neither side can mutate the other's state afterwards.
func cloneItem(item *content.Item) *content.Item {
	c := *item
	c.Tags = append([]string(nil), item.Tags...)
	c.Hashtags = append([]string(nil), item.Hashtags...)
	if item.UniverseID != nil {
		id := *item.UniverseID
		c.UniverseID = &id
	}
	if item.Location != nil {
		loc := *item.Location
		c.Location = &loc
	}
	return &c
}

// AddUniverse inserts a universe, assigning an ID if unset.
func (s *MemoryStore) AddUniverse(u *universe.Universe) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	uCopy := *u
	s.universes[u.ID] = &uCopy
	if u.Slug != "" {
		s.slugs[u.Slug] = u.ID
	}
}

// AddUser registers a requester with membership, friend, and interest sets.
func (s *MemoryStore) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &userRecord{
		universes: append([]string(nil), u.Universes...),
		friends:   make(map[string]struct{}, len(u.Friends)),
		interests: make(map[string]struct{}, len(u.Interests)),
	}
	for _, f := range u.Friends {
		rec.friends[f] = struct{}{}
	}
	for _, i := range u.Interests {
		rec.interests[i] = struct{}{}
	}
	s.users[u.ID] = rec
}

// FetchCandidates returns items matching the predicate set with their text
// rank, ordered per the sort hint for determinism.
func (s *MemoryStore) FetchCandidates(ctx context.Context, set *query.Set, hint SortHint, limit, offset int) ([]rank.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []rank.Candidate
	for _, item := range s.items {
		ok, textRank := s.match(item, set)
		if !ok {
			continue
		}
		candidates = append(candidates, rank.Candidate{Item: item, TextRank: textRank})
	}

	sortCandidates(candidates, hint)

	if offset > 0 {
		if offset >= len(candidates) {
			candidates = nil
		} else {
			candidates = candidates[offset:]
		}
	}
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	// Return deep copies to prevent external mutation.
	out := make([]rank.Candidate, len(candidates))
	for i, c := range candidates {
		out[i] = rank.Candidate{Item: cloneItem(c.Item), TextRank: c.TextRank}
	}
	return out, nil
}

// CountCandidates returns the size of the full candidate set.
func (s *MemoryStore) CountCandidates(ctx context.Context, set *query.Set) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, item := range s.items {
		if ok, _ := s.match(item, set); ok {
			count++
		}
	}
	return count, nil
}

// FetchMembership returns the requester's universe set.
func (s *MemoryStore) FetchMembership(ctx context.Context, requesterID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[requesterID]
	if !ok {
		return nil, ErrRequesterNotFound
	}
	return append([]string(nil), rec.universes...), nil
}

// FetchFriendSet returns the requester's accepted-friend set.
func (s *MemoryStore) FetchFriendSet(ctx context.Context, requesterID string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[requesterID]
	if !ok {
		return nil, ErrRequesterNotFound
	}
	out := make(map[string]struct{}, len(rec.friends))
	for f := range rec.friends {
		out[f] = struct{}{}
	}
	return out, nil
}

// FetchInterests returns the requester's declared interest tags.
func (s *MemoryStore) FetchInterests(ctx context.Context, requesterID string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[requesterID]
	if !ok {
		return nil, ErrRequesterNotFound
	}
	out := make(map[string]struct{}, len(rec.interests))
	for i := range rec.interests {
		out[i] = struct{}{}
	}
	return out, nil
}

// ResolveUniverse resolves a universe by slug.
func (s *MemoryStore) ResolveUniverse(ctx context.Context, slug string) (*universe.Universe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.slugs[slug]
	if !ok {
		return nil, ErrUniverseNotFound
	}
	u := s.universes[id]
	uCopy := *u
	return &uCopy, nil
}

// match evaluates the predicate set against one item and returns the text
// rank when a text predicate is present. Every predicate must hold; a text
// predicate with rank zero is a non-match.
func (s *MemoryStore) match(item *content.Item, set *query.Set) (bool, float64) {
	textRank := 0.0
	for _, p := range set.Predicates {
		switch pred := p.(type) {
		case query.EntityTypePredicate:
			found := false
			for _, t := range pred.Types {
				if item.EntityType == t {
					found = true
					break
				}
			}
			if !found {
				return false, 0
			}
		case query.VisibilityPredicate:
			if !item.Visible() {
				return false, 0
			}
			if item.UniverseID != nil {
				u, ok := s.universes[*item.UniverseID]
				if !ok || !u.Active {
					return false, 0
				}
			}
		case query.DateRangePredicate:
			if pred.From != nil && item.CreatedAt.Before(*pred.From) {
				return false, 0
			}
			if pred.To != nil && item.CreatedAt.After(*pred.To) {
				return false, 0
			}
		case query.UniversePredicate:
			if item.UniverseID == nil {
				return false, 0
			}
			found := false
			for _, id := range pred.UniverseIDs {
				if *item.UniverseID == id {
					found = true
					break
				}
			}
			if !found {
				return false, 0
			}
		case query.AuthorPredicate:
			if item.AuthorID != pred.AuthorID {
				return false, 0
			}
		case query.TagsPredicate:
			if !overlaps(item.Tags, pred.Tags) {
				return false, 0
			}
		case query.HashtagsPredicate:
			if !overlaps(item.Hashtags, pred.Hashtags) {
				return false, 0
			}
		case query.GeoPredicate:
			if item.Location == nil {
				return false, 0
			}
			if !geo.WithinRadius(pred.Center, *item.Location, pred.RadiusKm) {
				return false, 0
			}
		case query.TextPredicate:
			textRank = textRankFor(item, pred.Query)
			if textRank == 0 {
				return false, 0
			}
		case query.NSFWPredicate:
			if item.NSFW != pred.Allow {
				return false, 0
			}
		case query.LanguagePredicate:
			if item.Language != pred.Language {
				return false, 0
			}
		case query.HasMediaPredicate:
			if item.HasMedia != pred.Required {
				return false, 0
			}
		}
	}
	return true, textRank
}

// textRankFor computes a simple relevance rank for in-memory text matching.
// A title substring match scores 1.0, a body substring match 0.8, otherwise
// the fraction of query words present in the item's text. This stands in
// for the database's ts_rank primitive.
func textRankFor(item *content.Item, q string) float64 {
	queryLower := strings.ToLower(strings.TrimSpace(q))
	if queryLower == "" {
		return 0
	}

	titleLower := strings.ToLower(item.Title)
	bodyLower := strings.ToLower(item.Body)

	if strings.Contains(titleLower, queryLower) {
		return 1.0
	}
	if strings.Contains(bodyLower, queryLower) {
		return 0.8
	}

	words := strings.Fields(queryLower)
	matched := 0
	for _, w := range words {
		if strings.Contains(titleLower, w) || strings.Contains(bodyLower, w) {
			matched++
		}
	}
	if matched == 0 {
		return 0
	}
	return float64(matched) / float64(len(words)) * 0.6
}

// sortCandidates orders candidates per the sort hint, tie-breaking by ID
// ascending so offsets remain stable across calls.
func sortCandidates(candidates []rank.Candidate, hint SortHint) {
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		switch hint {
		case SortHintDate:
			if !a.Item.CreatedAt.Equal(b.Item.CreatedAt) {
				return a.Item.CreatedAt.After(b.Item.CreatedAt)
			}
		case SortHintEngagement:
			ea := score.Engagement(a.Item.Engagement)
			eb := score.Engagement(b.Item.Engagement)
			if ea != eb {
				return ea > eb
			}
		case SortHintTextRank:
			if a.TextRank != b.TextRank {
				return a.TextRank > b.TextRank
			}
		}
		return a.Item.ID < b.Item.ID
	})
}

// overlaps reports whether the two string slices share any element.
func overlaps(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}
