package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/buzzmon/internal/common"
	"github.com/ternarybob/buzzmon/internal/models"
	"github.com/ternarybob/buzzmon/internal/queue"
	"github.com/ternarybob/buzzmon/internal/services/cache"
	"github.com/ternarybob/buzzmon/internal/services/classifier"
	"github.com/ternarybob/buzzmon/internal/services/filter"
	"github.com/ternarybob/buzzmon/internal/services/wordcloud"
)

// newTestGateway spins up the full async path: websocket handler, memory
// broker and a running worker pool.
func newTestGateway(t *testing.T) *websocket.Conn {
	t.Helper()
	logger := common.GetLogger()

	broker := queue.NewMemoryBroker(5 * time.Millisecond)
	t.Cleanup(func() { broker.Close() })

	resultCache, err := cache.NewService(&common.CacheConfig{MaxSize: 100, TTL: "1h"}, logger)
	require.NoError(t, err)

	cls := classifier.NewService(&common.ClassifierConfig{InteractionThreshold: 100}, &stubOracle{}, logger)
	pipeline := filter.NewService(resultCache, &stubSentiment{label: models.SentimentNegative}, cls, wordcloud.NewService(), logger)

	pool, err := queue.NewWorkerPool(&common.QueueConfig{
		Concurrency:    2,
		PollInterval:   "5ms",
		DequeueTimeout: "50ms",
	}, broker, pipeline, nil, logger)
	require.NoError(t, err)
	pool.Start()
	t.Cleanup(pool.Stop)

	cfg := common.NewDefaultConfig()
	cfg.Queue.WaitTimeout = "2s"

	waiter := queue.NewWaiter(broker, 5*time.Millisecond, logger)
	handler := NewWebSocketHandler(cfg, broker, waiter, logger)

	server := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readResponse(t *testing.T, conn *websocket.Conn) wsResponse {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var resp wsResponse
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

func decodeResults(t *testing.T, resp wsResponse) []models.ClassificationResult {
	t.Helper()
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)

	var payload struct {
		Results []models.ClassificationResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	return payload.Results
}

func TestWebSocket_PredictBatchPreservesOrder(t *testing.T) {
	conn := newTestGateway(t)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"event": "predict",
		"data": []map[string]interface{}{
			{"id": "a", "type": "fbPageComment", "content": "quá tệ"},
			{"id": "b", "type": "fbPageComment"},
			{"id": "c", "type": "fbPageComment", "content": "thất vọng"},
		},
	}))

	resp := readResponse(t, conn)
	require.Equal(t, "result", resp.Event)

	results := decodeResults(t, resp)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, models.TierComment, results[0].LogLevel)
	assert.Equal(t, "Empty text", results[1].Error)
	assert.Equal(t, "c", results[2].ID)
}

func TestWebSocket_SingleObjectAcceptedAsBatchOfOne(t *testing.T) {
	conn := newTestGateway(t)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"event": "predict",
		"data":  map[string]interface{}{"id": "solo", "type": "fbPageComment", "content": "tệ"},
	}))

	resp := readResponse(t, conn)
	require.Equal(t, "result", resp.Event)

	results := decodeResults(t, resp)
	require.Len(t, results, 1)
	assert.Equal(t, "solo", results[0].ID)
}

func TestWebSocket_DuplicateTextKeepsOwnIdentity(t *testing.T) {
	conn := newTestGateway(t)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"event": "predict",
		"data": []map[string]interface{}{
			{"id": "dup-a", "topic_id": "t-1", "type": "fbPageComment", "content": "dịch vụ quá tệ"},
		},
	}))
	first := readResponse(t, conn)
	require.Equal(t, "result", first.Event)

	// Same text again under a different id: the cached answer must still
	// carry the second item's identity
	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"event": "predict",
		"data": []map[string]interface{}{
			{"id": "dup-b", "topic_id": "t-2", "type": "fbPageComment", "content": "dịch vụ quá tệ"},
		},
	}))
	second := readResponse(t, conn)
	require.Equal(t, "result", second.Event)

	results := decodeResults(t, second)
	require.Len(t, results, 1)
	assert.Equal(t, "dup-b", results[0].ID)
	assert.Equal(t, "t-2", results[0].TopicID)
}

func TestWebSocket_UnknownEvent(t *testing.T) {
	conn := newTestGateway(t)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"event": "bogus"}))

	resp := readResponse(t, conn)
	assert.Equal(t, "error", resp.Event)
	assert.Contains(t, resp.Error, "Unknown event")
}

func TestWebSocket_Ping(t *testing.T) {
	conn := newTestGateway(t)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"event": "ping"}))

	resp := readResponse(t, conn)
	assert.Equal(t, "pong", resp.Event)
}

func TestWebSocket_EmptyBatchRejected(t *testing.T) {
	conn := newTestGateway(t)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"event": "predict",
		"data":  []map[string]interface{}{},
	}))

	resp := readResponse(t, conn)
	assert.Equal(t, "error", resp.Event)
}
