package api

import (
	"net/http"
	"strconv"

	"github.com/univrs/discovery/internal/feed"
	"github.com/univrs/discovery/internal/middleware"
	"github.com/univrs/discovery/internal/query"
)

// FeedHandlers holds dependencies for feed HTTP handlers.
type FeedHandlers struct {
	assembler *feed.Assembler
}

// NewFeedHandlers creates a new FeedHandlers instance.
func NewFeedHandlers(assembler *feed.Assembler) *FeedHandlers {
	return &FeedHandlers{assembler: assembler}
}

// PersonalFeed handles GET /feed/personal. The requester is taken from the
// authenticated context; the route must sit behind RequireAuth.
func (h *FeedHandlers) PersonalFeed(w http.ResponseWriter, r *http.Request) {
	requesterID := middleware.GetUserID(r.Context())
	if requesterID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "authentication required")
		return
	}

	opts, err := feedOptions(r)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	pg, err := h.assembler.PersonalFeed(r.Context(), requesterID, opts)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, pg)
}

// UniverseFeed handles GET /feed/universe/{slug}. Authentication is
// optional; an authenticated requester gets personalization boosts.
func (h *FeedHandlers) UniverseFeed(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "slug is required")
		return
	}

	opts, err := feedOptions(r)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	requesterID := middleware.GetUserID(r.Context())
	pg, err := h.assembler.UniverseFeed(r.Context(), slug, requesterID, opts)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, pg)
}

// feedOptions parses the shared pagination and sorting query parameters.
// Values are only syntax-checked here; range validation happens in the
// query layer.
func feedOptions(r *http.Request) (feed.Options, error) {
	q := r.URL.Query()
	opts := feed.Options{
		SortBy:    query.SortBy(q.Get("sort_by")),
		SortOrder: query.SortOrder(q.Get("sort_order")),
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, errInvalidParam("page")
		}
		opts.Page = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, errInvalidParam("page_size")
		}
		opts.PageSize = n
	}
	return opts, nil
}

type paramError string

func (e paramError) Error() string { return string(e) }

func errInvalidParam(name string) error {
	return paramError(name + " must be an integer")
}
