package streaming

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
)

// ---------------------------------------------------------------------------
// Protocol constants
// ---------------------------------------------------------------------------

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer at this interval. Must be less than pongWait.
	pingPeriod = 30 * time.Second

	// Maximum message size accepted from the peer. The client never sends
	// anything meaningful over this connection, so this only bounds pings.
	maxMessageSize = 512

	// Maximum events buffered per client; once full, the hub drops further
	// events for that client rather than block the whole job's fan-out.
	sendBufferSize = 64
)

// ---------------------------------------------------------------------------
// Hub
// ---------------------------------------------------------------------------

// Hub fans a single job's PipelineEvents out to every WebSocket connection
// watching it. One connection watches exactly one job_id — there is no
// client-driven subscribe protocol, the job_id is fixed at connect time by
// the query string (per GET /api/<slug>/ws?job_id=).
type Hub struct {
	clients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan jobMessage

	mu     sync.RWMutex
	logger *slog.Logger
}

type jobMessage struct {
	jobID string
	event domain.PipelineEvent
}

// NewHub creates a new Hub. Call Run in its own goroutine before use.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan jobMessage, 256),
		logger:     slog.Default().With("component", "ws-hub"),
	}
}

// Run starts the hub event loop. It must be called in a dedicated goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		case jm := <-h.broadcast:
			h.broadcastToJob(jm)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.jobID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.jobID] = set
	}
	set[c] = struct{}{}
	h.logger.Info("client registered", "job_id", c.jobID)
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if set, ok := h.clients[c.jobID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.jobID)
		}
	}
	h.mu.Unlock()

	close(c.send)
	h.logger.Info("client unregistered", "job_id", c.jobID)
}

func (h *Hub) broadcastToJob(jm jobMessage) {
	h.mu.RLock()
	set, ok := h.clients[jm.jobID]
	if !ok || len(set) == 0 {
		h.mu.RUnlock()
		return
	}
	targets := make([]*Client, 0, len(set))
	for c := range set {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	data, err := json.Marshal(jm.event)
	if err != nil {
		h.logger.Error("marshal pipeline event", "error", err, "job_id", jm.jobID)
		return
	}

	for _, c := range targets {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping event, client too slow", "job_id", jm.jobID)
		}
	}
}

// Broadcast enqueues an event for every client watching jobID.
func (h *Hub) Broadcast(jobID string, event domain.PipelineEvent) {
	h.broadcast <- jobMessage{jobID: jobID, event: event}
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// Client represents a single WebSocket connection watching one job.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	jobID string

	send chan []byte

	logger *slog.Logger
}

// NewClient registers a WebSocket connection with the hub for the given job.
// The caller must start ReadPump and WritePump in separate goroutines.
func NewClient(hub *Hub, conn *websocket.Conn, jobID string) *Client {
	c := &Client{
		hub:    hub,
		conn:   conn,
		jobID:  jobID,
		send:   make(chan []byte, sendBufferSize),
		logger: slog.Default().With("component", "ws-client", "job_id", jobID),
	}
	hub.register <- c
	return c
}

// ReadPump drains pong frames and any stray client traffic. It must run in
// its own goroutine; it returns (and unregisters the client) on any read
// error or disconnect.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("unexpected close", "error", err)
			}
			return
		}
	}
}

// WritePump forwards queued pipeline events to the connection and sends
// periodic pings. It must run in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
