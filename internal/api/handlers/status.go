package handlers

import (
	"fmt"
	"net/http"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/api"
)

// StatusHandler serves POST /status?job_id=<id>. A job unknown to the
// coordinator is not an HTTP error — it is the spec's one user-visible
// "fatal error" message, returned as the body of an otherwise-200 response.
func StatusHandler(coord StatusCoordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := r.URL.Query().Get("job_id")
		if jobID == "" {
			api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "job_id is required")
			return
		}

		status, found := coord.GetStatus(r.Context(), jobID)
		if !found {
			api.JSON(w, http.StatusOK, map[string]string{
				"status": fmt.Sprintf("fatal error processing job(id): %s", jobID),
			})
			return
		}

		api.JSON(w, http.StatusOK, map[string]string{"status": string(status)})
	}
}
