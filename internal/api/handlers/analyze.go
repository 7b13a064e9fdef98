package handlers

import (
	"context"
	"net/http"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/api"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
)

// StatusCoordinator is the narrow subset of the status coordinator (C4)
// the ingress handlers need: set a job's initial/queried status and read
// it back.
type StatusCoordinator interface {
	SetStatus(ctx context.Context, jobID string, status domain.JobStatus) error
	GetStatus(ctx context.Context, jobID string) (status domain.JobStatus, found bool)
}

// AnalyzeHandler serves POST /analyze?job_id=<id>. Its only side effect is
// the initial status write that hands the job to the native-parse worker.
func AnalyzeHandler(coord StatusCoordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := r.URL.Query().Get("job_id")
		if jobID == "" {
			api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "job_id is required")
			return
		}

		if err := coord.SetStatus(r.Context(), jobID, domain.StatusWaitingForNativeParsing); err != nil {
			api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError, "failed to start analysis")
			return
		}

		api.JSON(w, http.StatusOK, map[string]string{
			"status":                  "ok",
			"started_analyzing_job_id": jobID,
		})
	}
}
