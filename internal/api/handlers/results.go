package handlers

import (
	"net/http"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/api"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/artifacts"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
)

// ResultsHandler serves POST /results?job_id=<id>. Before the job reaches
// Finished it answers 202 with a "not ready yet" detail rather than an
// error — the results simply don't exist yet, which is expected, not
// exceptional.
func ResultsHandler(coord StatusCoordinator, store *artifacts.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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
			api.JSON(w, http.StatusAccepted, map[string]string{
				"detail": "results are not ready yet ... stay tuned !",
			})
			return
		}

		data, ok := store.Load(r.Context(), domain.KindOutput, jobID, rows[0].UniqueID)
		if !ok {
			api.JSON(w, http.StatusAccepted, map[string]string{
				"detail": "results are not ready yet ... stay tuned !",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
