package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/univrs/discovery/internal/content"
	"github.com/univrs/discovery/internal/feed"
	"github.com/univrs/discovery/internal/middleware"
	"github.com/univrs/discovery/internal/page"
	"github.com/univrs/discovery/internal/rank"
	"github.com/univrs/discovery/internal/store"
	"github.com/univrs/discovery/internal/trending"
	"github.com/univrs/discovery/internal/universe"
)

func strPtr(s string) *string { return &s }

// seedStore builds a memory store with one active universe, two posts
// in it, and a member user.
func seedStore() *store.MemoryStore {
	st := store.NewMemoryStore()
	now := time.Now()

	st.AddUniverse(&universe.Universe{ID: "u-techno", Slug: "techno", Name: "Techno", Active: true})

	st.AddItem(&content.Item{
		ID:         "t-new",
		EntityType: content.EntityPost,
		Title:      "Warehouse opening night",
		AuthorID:   "carol",
		UniverseID: strPtr("u-techno"),
		CreatedAt:  now.Add(-1 * time.Hour),
		IsPublic:   true,
	})
	st.AddItem(&content.Item{
		ID:         "t-old",
		EntityType: content.EntityPost,
		Title:      "Last month recap",
		AuthorID:   "carol",
		UniverseID: strPtr("u-techno"),
		CreatedAt:  now.Add(-30 * 24 * time.Hour),
		IsPublic:   true,
	})

	st.AddUser(store.User{ID: "alice", Universes: []string{"u-techno"}})
	return st
}

func newFeedMux(st store.Store) *http.ServeMux {
	assembler := feed.NewAssembler(st, rank.NewComposer(nil), trending.NewMemorySource())
	h := NewFeedHandlers(assembler)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /feed/personal", h.PersonalFeed)
	mux.HandleFunc("GET /feed/universe/{slug}", h.UniverseFeed)
	return mux
}

func authedRequest(method, target, userID string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	if userID != "" {
		req = req.WithContext(middleware.SetUserID(req.Context(), userID))
	}
	return req
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body not JSON: %v\n%s", err, rec.Body.String())
	}
	return body
}

func TestPersonalFeedRequiresAuth(t *testing.T) {
	mux := newFeedMux(seedStore())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodGet, "/feed/personal", ""))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if body := decodeErrorBody(t, rec); body.Error.Code != ErrCodeAuthFailed {
		t.Errorf("error code = %q, want %q", body.Error.Code, ErrCodeAuthFailed)
	}
}

func TestPersonalFeedReturnsMemberContent(t *testing.T) {
	mux := newFeedMux(seedStore())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodGet, "/feed/personal", "alice"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", rec.Code, rec.Body.String())
	}
	var pg page.Page
	if err := json.Unmarshal(rec.Body.Bytes(), &pg); err != nil {
		t.Fatalf("body not a page: %v", err)
	}
	if pg.TotalCount != 2 {
		t.Errorf("total_count = %d, want 2", pg.TotalCount)
	}
	if len(pg.Items) != 2 || pg.Items[0].Item.ID != "t-new" {
		t.Errorf("items not date-sorted newest first: %+v", pg.Items)
	}
}

func TestPersonalFeedUnknownRequester(t *testing.T) {
	mux := newFeedMux(seedStore())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodGet, "/feed/personal", "ghost"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if body := decodeErrorBody(t, rec); body.Error.Code != ErrCodeNotFound {
		t.Errorf("error code = %q, want %q", body.Error.Code, ErrCodeNotFound)
	}
}

func TestFeedInvalidQueryParams(t *testing.T) {
	mux := newFeedMux(seedStore())

	tests := []struct {
		name   string
		target string
	}{
		{name: "non-integer page", target: "/feed/personal?page=abc"},
		{name: "non-integer page size", target: "/feed/personal?page_size=huge"},
		{name: "page size over limit", target: "/feed/personal?page_size=500"},
		{name: "unknown sort key", target: "/feed/personal?sort_by=magic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, authedRequest(http.MethodGet, tt.target, "alice"))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if body := decodeErrorBody(t, rec); body.Error.Code != ErrCodeValidation {
				t.Errorf("error code = %q, want %q", body.Error.Code, ErrCodeValidation)
			}
		})
	}
}

func TestUniverseFeedAnonymous(t *testing.T) {
	mux := newFeedMux(seedStore())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodGet, "/feed/universe/techno", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", rec.Code, rec.Body.String())
	}
	var pg page.Page
	if err := json.Unmarshal(rec.Body.Bytes(), &pg); err != nil {
		t.Fatalf("body not a page: %v", err)
	}
	if pg.TotalCount != 2 {
		t.Errorf("total_count = %d, want 2", pg.TotalCount)
	}
}

func TestUniverseFeedNotFound(t *testing.T) {
	mux := newFeedMux(seedStore())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authedRequest(http.MethodGet, "/feed/universe/nonexistent", ""))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if body := decodeErrorBody(t, rec); body.Error.Code != ErrCodeUniverseNotFound {
		t.Errorf("error code = %q, want %q", body.Error.Code, ErrCodeUniverseNotFound)
	}
}
