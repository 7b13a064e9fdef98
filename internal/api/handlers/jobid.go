// Package handlers implements the ingress API's HTTP surface (C7): job-id
// minting, file upload, analyze triggering, status polling, and results
// retrieval, plus the supplementary observability endpoints (WebSocket
// push, operator search, AI narration).
package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/api"
)

// NewJobID returns an opaque 32-hex-character job identifier generated from
// a cryptographically-random source. No structure beyond "32 hex chars" is
// assumed by the rest of the system.
func NewJobID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("handlers: generate job id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// JobIDHandler serves GET /getjobid.
func JobIDHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID, err := NewJobID()
		if err != nil {
			api.Error(w, http.StatusInternalServerError, api.ErrCodeInternalError, "failed to generate job id")
			return
		}
		api.JSON(w, http.StatusOK, map[string]string{"job_id": jobID})
	}
}
