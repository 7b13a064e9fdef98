package handlers

import (
	"net/http"
	"strconv"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/api"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/search"
)

// SearchHandler serves GET /search?q=<query>&limit=<n>: an operator-facing
// full-text lookup over artifact metadata, for debugging a stuck job by
// filename or job id. It has nothing to do with the pipeline's own
// correctness and answers 501 Not Implemented if no index was configured.
func SearchHandler(index search.Indexer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if index == nil {
			api.Error(w, http.StatusNotImplemented, api.ErrCodeInternalError, "search index not configured")
			return
		}

		query := r.URL.Query().Get("q")
		if query == "" {
			api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "q is required")
			return
		}

		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}

		hits, err := index.Search(r.Context(), query, limit)
		if err != nil {
			api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError, "search failed")
			return
		}

		api.JSON(w, http.StatusOK, map[string]interface{}{"hits": hits})
	}
}
