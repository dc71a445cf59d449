package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/univrs/discovery/internal/content"
	"github.com/univrs/discovery/internal/query"
	"github.com/univrs/discovery/internal/rank"
	"github.com/univrs/discovery/internal/tracing"
	"github.com/univrs/discovery/internal/universe"
)

// PostgresStore is a Postgres-backed implementation of Store. Requires the
// PostGIS extension for radius filtering and full-text search for ranking.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgresStore over an existing connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open connects to Postgres using the lib/pq driver and verifies the
// connection.
func Open(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// HealthCheck pings the database for readiness probes.
func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const candidateColumns = `i.id, i.entity_type, i.title, i.body, i.author_id, i.universe_id,
	i.tags, i.hashtags, i.language, i.has_media, i.nsfw, i.lat, i.lng,
	i.like_count, i.comment_count, i.share_count, i.created_at, i.is_public, i.is_deleted`

// sqlQuery is the predicate set translated to parameterized SQL. Caller
// input only ever appears in args, never in the clause text.
type sqlQuery struct {
	where    []string
	args     []interface{}
	rankExpr string // non-empty when a text predicate is present
}

// buildSQL translates a predicate set into WHERE clauses and bind args.
// The visibility clauses come from the always-present visibility predicate;
// Build never emits a set without one, so every query this store runs
// carries them.
func buildSQL(set *query.Set) sqlQuery {
	q := sqlQuery{rankExpr: "0"}

	arg := func(v interface{}) string {
		q.args = append(q.args, v)
		return fmt.Sprintf("$%d", len(q.args))
	}

	for _, p := range set.Predicates {
		switch pred := p.(type) {
		case query.EntityTypePredicate:
			types := make([]string, len(pred.Types))
			for i, t := range pred.Types {
				types[i] = string(t)
			}
			q.where = append(q.where, fmt.Sprintf("i.entity_type = ANY(%s)", arg(pq.Array(types))))
		case query.VisibilityPredicate:
			q.where = append(q.where,
				"i.is_public = TRUE",
				"i.is_deleted = FALSE",
				"(i.universe_id IS NULL OR u.active = TRUE)")
		case query.DateRangePredicate:
			if pred.From != nil {
				q.where = append(q.where, fmt.Sprintf("i.created_at >= %s", arg(*pred.From)))
			}
			if pred.To != nil {
				q.where = append(q.where, fmt.Sprintf("i.created_at <= %s", arg(*pred.To)))
			}
		case query.UniversePredicate:
			q.where = append(q.where, fmt.Sprintf("i.universe_id = ANY(%s)", arg(pq.Array(pred.UniverseIDs))))
		case query.AuthorPredicate:
			q.where = append(q.where, fmt.Sprintf("i.author_id = %s", arg(pred.AuthorID)))
		case query.TagsPredicate:
			q.where = append(q.where, fmt.Sprintf("i.tags && %s", arg(pq.Array(pred.Tags))))
		case query.HashtagsPredicate:
			q.where = append(q.where, fmt.Sprintf("i.hashtags && %s", arg(pq.Array(pred.Hashtags))))
		case query.GeoPredicate:
			lng := arg(pred.Center.Lng)
			lat := arg(pred.Center.Lat)
			radius := arg(pred.RadiusKm * 1000)
			q.where = append(q.where, fmt.Sprintf(
				"(i.lat IS NOT NULL AND ST_DWithin(ST_MakePoint(i.lng, i.lat)::geography, ST_MakePoint(%s, %s)::geography, %s))",
				lng, lat, radius))
		case query.TextPredicate:
			tsq := arg(pred.Query)
			q.where = append(q.where, fmt.Sprintf(
				"to_tsvector('simple', i.title || ' ' || i.body) @@ plainto_tsquery('simple', %s)", tsq))
			q.rankExpr = fmt.Sprintf(
				"ts_rank(to_tsvector('simple', i.title || ' ' || i.body), plainto_tsquery('simple', %s))", tsq)
		case query.NSFWPredicate:
			q.where = append(q.where, fmt.Sprintf("i.nsfw = %s", arg(pred.Allow)))
		case query.LanguagePredicate:
			q.where = append(q.where, fmt.Sprintf("i.language = %s", arg(pred.Language)))
		case query.HasMediaPredicate:
			q.where = append(q.where, fmt.Sprintf("i.has_media = %s", arg(pred.Required)))
		}
	}
	return q
}

// orderClause maps a sort hint to a native ORDER BY with a stable ID
// tie-break.
func orderClause(hint SortHint) string {
	switch hint {
	case SortHintDate:
		return "ORDER BY i.created_at DESC, i.id ASC"
	case SortHintEngagement:
		return "ORDER BY (i.like_count*3 + i.comment_count*2 + i.share_count*5) DESC, i.id ASC"
	case SortHintTextRank:
		return "ORDER BY text_rank DESC, i.id ASC"
	default:
		return "ORDER BY i.id ASC"
	}
}

// FetchCandidates runs the predicate set against Postgres and returns the
// matching items with their ts_rank values.
func (s *PostgresStore) FetchCandidates(ctx context.Context, set *query.Set, hint SortHint, limit, offset int) ([]rank.Candidate, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "content_items", tracing.DBOperationQuery)
	var err error
	defer func() { endSpan(err) }()

	q := buildSQL(set)

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s, %s AS text_rank FROM content_items i", candidateColumns, q.rankExpr)
	sb.WriteString(" LEFT JOIN universes u ON u.id = i.universe_id")
	sb.WriteString(" WHERE " + strings.Join(q.where, " AND "))
	sb.WriteString(" " + orderClause(hint))
	if limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d OFFSET %d", limit, offset)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), q.args...)
	if err != nil {
		err = fmt.Errorf("%w: fetch candidates: %v", ErrUpstreamUnavailable, err)
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var candidates []rank.Candidate
	for rows.Next() {
		item := &content.Item{}
		var (
			universeID sql.NullString
			language   sql.NullString
			lat, lng   sql.NullFloat64
			textRank   float64
		)
		if err = rows.Scan(
			&item.ID, &item.EntityType, &item.Title, &item.Body, &item.AuthorID, &universeID,
			pq.Array(&item.Tags), pq.Array(&item.Hashtags), &language, &item.HasMedia, &item.NSFW,
			&lat, &lng,
			&item.Engagement.LikeCount, &item.Engagement.CommentCount, &item.Engagement.ShareCount,
			&item.CreatedAt, &item.IsPublic, &item.IsDeleted,
			&textRank,
		); err != nil {
			err = fmt.Errorf("%w: scan candidate: %v", ErrUpstreamUnavailable, err)
			return nil, err
		}
		if universeID.Valid {
			item.UniverseID = &universeID.String
		}
		if language.Valid {
			item.Language = language.String
		}
		if lat.Valid && lng.Valid {
			item.Location = &content.Point{Lat: lat.Float64, Lng: lng.Float64}
		}
		candidates = append(candidates, rank.Candidate{Item: item, TextRank: textRank})
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("%w: iterate candidates: %v", ErrUpstreamUnavailable, err)
		return nil, err
	}
	return candidates, nil
}

// CountCandidates counts the full candidate set for the predicate set.
func (s *PostgresStore) CountCandidates(ctx context.Context, set *query.Set) (int, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "content_items", tracing.DBOperationQuery)
	var err error
	defer func() { endSpan(err) }()

	q := buildSQL(set)
	stmt := "SELECT COUNT(*) FROM content_items i LEFT JOIN universes u ON u.id = i.universe_id WHERE " +
		strings.Join(q.where, " AND ")

	var count int
	if err = s.db.QueryRowContext(ctx, stmt, q.args...).Scan(&count); err != nil {
		err = fmt.Errorf("%w: count candidates: %v", ErrUpstreamUnavailable, err)
		return 0, err
	}
	return count, nil
}

// FetchMembership returns the requester's universe set, verifying the
// requester exists first.
func (s *PostgresStore) FetchMembership(ctx context.Context, requesterID string) ([]string, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "memberships", tracing.DBOperationQuery)
	var err error
	defer func() { endSpan(err) }()

	var exists bool
	err = s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", requesterID).Scan(&exists)
	if err != nil {
		err = fmt.Errorf("%w: check requester: %v", ErrUpstreamUnavailable, err)
		return nil, err
	}
	if !exists {
		err = ErrRequesterNotFound
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT universe_id FROM memberships WHERE user_id = $1", requesterID)
	if err != nil {
		err = fmt.Errorf("%w: fetch membership: %v", ErrUpstreamUnavailable, err)
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var universes []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			err = fmt.Errorf("%w: scan membership: %v", ErrUpstreamUnavailable, err)
			return nil, err
		}
		universes = append(universes, id)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("%w: iterate membership: %v", ErrUpstreamUnavailable, err)
		return nil, err
	}
	return universes, nil
}

// FetchFriendSet returns the requester's accepted-friend set.
func (s *PostgresStore) FetchFriendSet(ctx context.Context, requesterID string) (map[string]struct{}, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "friendships", tracing.DBOperationQuery)
	var err error
	defer func() { endSpan(err) }()

	rows, err := s.db.QueryContext(ctx,
		"SELECT friend_id FROM friendships WHERE user_id = $1 AND status = 'accepted'", requesterID)
	if err != nil {
		err = fmt.Errorf("%w: fetch friend set: %v", ErrUpstreamUnavailable, err)
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	friends := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			err = fmt.Errorf("%w: scan friend: %v", ErrUpstreamUnavailable, err)
			return nil, err
		}
		friends[id] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("%w: iterate friends: %v", ErrUpstreamUnavailable, err)
		return nil, err
	}
	return friends, nil
}

// FetchInterests returns the requester's declared interest tags.
func (s *PostgresStore) FetchInterests(ctx context.Context, requesterID string) (map[string]struct{}, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "user_interests", tracing.DBOperationQuery)
	var err error
	defer func() { endSpan(err) }()

	rows, err := s.db.QueryContext(ctx,
		"SELECT interest FROM user_interests WHERE user_id = $1", requesterID)
	if err != nil {
		err = fmt.Errorf("%w: fetch interests: %v", ErrUpstreamUnavailable, err)
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	interests := make(map[string]struct{})
	for rows.Next() {
		var tag string
		if err = rows.Scan(&tag); err != nil {
			err = fmt.Errorf("%w: scan interest: %v", ErrUpstreamUnavailable, err)
			return nil, err
		}
		interests[tag] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("%w: iterate interests: %v", ErrUpstreamUnavailable, err)
		return nil, err
	}
	return interests, nil
}

// ResolveUniverse resolves a universe by slug, including inactive ones.
func (s *PostgresStore) ResolveUniverse(ctx context.Context, slug string) (*universe.Universe, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "universes", tracing.DBOperationQuery)
	var err error
	defer func() { endSpan(err) }()

	u := &universe.Universe{}
	err = s.db.QueryRowContext(ctx,
		"SELECT id, slug, name, description, nsfw, active, created_at FROM universes WHERE slug = $1", slug).
		Scan(&u.ID, &u.Slug, &u.Name, &u.Description, &u.NSFW, &u.Active, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrUniverseNotFound
		return nil, err
	}
	if err != nil {
		err = fmt.Errorf("%w: resolve universe: %v", ErrUpstreamUnavailable, err)
		return nil, err
	}
	return u, nil
}
