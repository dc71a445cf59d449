package api

import (
	"encoding/json"
	"net/http"

	"github.com/univrs/discovery/internal/middleware"
	"github.com/univrs/discovery/internal/query"
	"github.com/univrs/discovery/internal/search"
)

// MaxSearchBodyBytes caps the accepted search request body size.
const MaxSearchBodyBytes = 64 * 1024

// SearchHandlers holds dependencies for search HTTP handlers.
type SearchHandlers struct {
	orchestrator *search.Orchestrator
}

// NewSearchHandlers creates a new SearchHandlers instance.
func NewSearchHandlers(orchestrator *search.Orchestrator) *SearchHandlers {
	return &SearchHandlers{orchestrator: orchestrator}
}

// Search handles POST /search. The request body is a structured query; the
// requester identity always comes from the authenticated context, never
// from the body.
func (h *SearchHandlers) Search(w http.ResponseWriter, r *http.Request) {
	var req query.Request
	r.Body = http.MaxBytesReader(w, r.Body, MaxSearchBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	req.RequesterID = middleware.GetUserID(r.Context())

	result, err := h.orchestrator.Search(r.Context(), &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, result)
}
