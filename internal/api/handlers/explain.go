package handlers

import (
	"net/http"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/ai"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/api"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/artifacts"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
)

// ExplainHandler serves POST /results/explain?job_id=<id>: an optional
// prose narration of a job's SARIF report via the AI narrator. It is a
// pure convenience read on top of the already-finished Output artifact —
// it never changes pipeline state and is 501 if no API key is configured.
func ExplainHandler(coord StatusCoordinator, store *artifacts.Store, querier ai.AIQuerier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if querier == nil || !querier.IsAvailable() {
			api.Error(w, http.StatusNotImplemented, api.ErrCodeInternalError, "AI narrator is not configured")
			return
		}

		jobID := r.URL.Query().Get("job_id")
		if jobID == "" {
			api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "job_id is required")
			return
		}

		status, found := coord.GetStatus(r.Context(), jobID)
		if !found || status != domain.StatusFinished {
			api.JSON(w, http.StatusAccepted, map[string]string{
				"detail": "results are not ready yet ... stay tuned !",
			})
			return
		}

		rows, err := store.ListByJob(r.Context(), domain.KindOutput, jobID)
		if err != nil || len(rows) == 0 {
			api.Error(w, http.StatusNotFound, api.ErrCodeNotFound, "no results for this job")
			return
		}
		sarifReport, ok := store.Load(r.Context(), domain.KindOutput, jobID, rows[0].UniqueID)
		if !ok {
			api.Error(w, http.StatusNotFound, api.ErrCodeNotFound, "no results for this job")
			return
		}

		resp, err := querier.Narrate(r.Context(), sarifReport)
		if err != nil {
			api.Error(w, http.StatusServiceUnavailable, api.ErrCodeServiceUnavail, "AI narrator call failed")
			return
		}

		api.JSON(w, http.StatusOK, map[string]string{"explanation": resp.Content})
	}
}
