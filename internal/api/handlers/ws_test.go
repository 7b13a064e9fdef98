package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
	"github.com/OmarEhab007/dhscanner-orchestrator/internal/streaming"
)

func TestWSHandler_MissingJobID(t *testing.T) {
	hub := streaming.NewHub()
	go hub.Run()

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	w := httptest.NewRecorder()

	WSHandler(nil, hub)(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWSHandler_UpgradesAndBroadcasts(t *testing.T) {
	hub := streaming.NewHub()
	go hub.Run()

	server := httptest.NewServer(WSHandler(nil, hub))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?job_id=job-1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(100 * time.Millisecond)
	hub.Broadcast("job-1", domain.PipelineEvent{JobID: "job-1", ToStatus: domain.StatusFinished})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event domain.PipelineEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, domain.StatusFinished, event.ToStatus)
}
