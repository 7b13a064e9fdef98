package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/api"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/streaming"
)

var wsUpgrader = websocket.Upgrader{
	// The orchestrator has no browser-origin notion of its own; the
	// ingress router's CORS middleware already governs who may talk to
	// this API at all.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler serves GET /ws?job_id=<id>: a supplementary push channel for
// clients that would rather watch PipelineEvents than poll /status. It
// never replaces /status as the source of truth.
func WSHandler(bus streaming.EventBus, hub *streaming.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := r.URL.Query().Get("job_id")
		if jobID == "" {
			api.Error(w, http.StatusBadRequest, api.ErrCodeInvalidRequest, "job_id is required")
			return
		}

		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		client := streaming.NewClient(hub, conn, jobID)
		go client.WritePump()
		go client.ReadPump()

		if bus != nil {
			go func() {
				_ = bus.Subscribe(r.Context(), jobID, func(event domain.PipelineEvent) {
					hub.Broadcast(jobID, event)
				})
			}()
		}
	}
}
