package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/buzzmon/internal/common"
	"github.com/ternarybob/buzzmon/internal/interfaces"
	"github.com/ternarybob/buzzmon/internal/models"
	"github.com/ternarybob/buzzmon/internal/queue"
	"github.com/ternarybob/buzzmon/internal/services/filter"
)

// wsMessage is the envelope for both directions of the socket protocol
type wsMessage struct {
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// wsResponse is the server-to-client envelope
type wsResponse struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// wsResultPayload is the data of a result event
type wsResultPayload struct {
	Results []models.ClassificationResult `json:"results"`
}

// WebSocketHandler is the asynchronous classification gateway. A predict
// event fans its items out as queue jobs, waits for each result concurrently
// and answers with one result event in input order.
type WebSocketHandler struct {
	broker       interfaces.JobBroker
	waiter       *queue.Waiter
	waitTimeout  time.Duration
	maxBatchSize int
	upgrader     websocket.Upgrader
	logger       arbor.ILogger

	clients     map[*websocket.Conn]bool
	clientMutex map[*websocket.Conn]*sync.Mutex
	mu          sync.RWMutex
}

// NewWebSocketHandler creates the websocket gateway
func NewWebSocketHandler(cfg *common.Config, broker interfaces.JobBroker, waiter *queue.Waiter, logger arbor.ILogger) *WebSocketHandler {
	maxBatchSize := cfg.WebSocket.MaxBatchSize
	if maxBatchSize <= 0 {
		maxBatchSize = 100
	}
	readBuf := cfg.WebSocket.ReadBufferSize
	if readBuf <= 0 {
		readBuf = 1024
	}
	writeBuf := cfg.WebSocket.WriteBufferSize
	if writeBuf <= 0 {
		writeBuf = 1024
	}

	waitTimeout, err := cfg.Queue.WaitTimeoutDuration()
	if err != nil || waitTimeout <= 0 {
		waitTimeout = 30 * time.Second
	}

	return &WebSocketHandler{
		broker:       broker,
		waiter:       waiter,
		waitTimeout:  waitTimeout,
		maxBatchSize: maxBatchSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBuf,
			WriteBufferSize: writeBuf,
			CheckOrigin: func(r *http.Request) bool {
				return true // Producers connect from other hosts
			},
		},
		logger:      logger,
		clients:     make(map[*websocket.Conn]bool),
		clientMutex: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// HandleWebSocket handles GET /ws connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.registerClient(conn)
	defer h.unregisterClient(conn)

	h.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("WebSocket client connected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.writeResponse(conn, wsResponse{Event: "error", Error: "Invalid message: " + err.Error()})
			continue
		}

		switch msg.Event {
		case "predict":
			h.handlePredict(r.Context(), conn, msg.Data)
		case "ping":
			h.writeResponse(conn, wsResponse{Event: "pong"})
		default:
			h.writeResponse(conn, wsResponse{Event: "error", Error: "Unknown event: " + msg.Event})
		}
	}
}

// handlePredict enqueues each item of the batch, waits for all results
// concurrently and replies with a single result event preserving input
// order. Items with no text are answered inline without touching the queue.
func (h *WebSocketHandler) handlePredict(ctx context.Context, conn *websocket.Conn, data json.RawMessage) {
	var items []models.ContentItem
	if err := json.Unmarshal(data, &items); err != nil {
		// A single object is accepted as a batch of one
		var single models.ContentItem
		if err2 := json.Unmarshal(data, &single); err2 != nil {
			h.writeResponse(conn, wsResponse{Event: "error", Error: "Invalid predict payload: " + err.Error()})
			return
		}
		items = []models.ContentItem{single}
	}

	if len(items) == 0 {
		h.writeResponse(conn, wsResponse{Event: "error", Error: "Empty predict payload"})
		return
	}
	if len(items) > h.maxBatchSize {
		h.writeResponse(conn, wsResponse{Event: "error", Error: "Batch too large"})
		return
	}

	results := make([]models.ClassificationResult, len(items))
	var wg sync.WaitGroup

	for i, item := range items {
		if !item.HasText() {
			result := models.NewBaseResult(item)
			result.Error = filter.ErrorEmptyText
			results[i] = result
			continue
		}

		meta := models.MetaFromItem(item)
		jobID, err := h.broker.Enqueue(ctx, item, meta)
		if err != nil {
			h.logger.Error().Err(err).Str("item_id", item.ID).Msg("Failed to enqueue item")
			result := models.NewBaseResult(item)
			result.Error = "Enqueue failed"
			results[i] = result
			continue
		}

		wg.Add(1)
		go func(i int, jobID string, meta models.JobMeta) {
			defer wg.Done()
			results[i] = h.waiter.Wait(ctx, jobID, meta, h.waitTimeout)
		}(i, jobID, meta)
	}

	wg.Wait()

	h.writeResponse(conn, wsResponse{Event: "result", Data: wsResultPayload{Results: results}})
}

func (h *WebSocketHandler) registerClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
}

func (h *WebSocketHandler) unregisterClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	delete(h.clientMutex, conn)
	conn.Close()
	h.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("WebSocket client disconnected")
}

// writeResponse serializes writes per connection; concurrent predict batches
// on one socket must not interleave frames.
func (h *WebSocketHandler) writeResponse(conn *websocket.Conn, resp wsResponse) {
	h.mu.RLock()
	mutex, ok := h.clientMutex[conn]
	h.mu.RUnlock()
	if !ok {
		return
	}

	mutex.Lock()
	defer mutex.Unlock()

	if err := conn.WriteJSON(resp); err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket write failed")
	}
}

// ClientCount reports currently connected clients
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
