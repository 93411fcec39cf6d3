package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/buzzmon/internal/common"
	"github.com/ternarybob/buzzmon/internal/interfaces"
	"github.com/ternarybob/buzzmon/internal/models"
	"github.com/ternarybob/buzzmon/internal/services/cache"
	"github.com/ternarybob/buzzmon/internal/services/classifier"
	"github.com/ternarybob/buzzmon/internal/services/filter"
	"github.com/ternarybob/buzzmon/internal/services/wordcloud"
)

type stubSentiment struct{}

func (s *stubSentiment) Predict(ctx context.Context, text string) (models.SentimentPrediction, error) {
	return models.SentimentPrediction{Label: models.SentimentNegative}, nil
}

type stubOracle struct{}

func (o *stubOracle) CheckTopic(ctx context.Context, item models.ContentItem) models.TopicAnalysis {
	return models.TopicAnalysis{CrisisKeywords: []string{}}
}

func (o *stubOracle) Name() string { return "stub" }

type memoryRecords struct {
	mu      sync.Mutex
	records []*models.ClassificationRecord
}

func (m *memoryRecords) SaveRecord(ctx context.Context, record *models.ClassificationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *memoryRecords) RecentRecords(ctx context.Context, limit int) ([]*models.ClassificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records, nil
}

func (m *memoryRecords) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

func newTestPool(t *testing.T, broker *MemoryBroker, records interfaces.RecordStorage) *WorkerPool {
	t.Helper()
	logger := common.GetLogger()

	resultCache, err := cache.NewService(&common.CacheConfig{MaxSize: 100, TTL: "1h"}, logger)
	require.NoError(t, err)

	cls := classifier.NewService(&common.ClassifierConfig{InteractionThreshold: 100}, &stubOracle{}, logger)
	pipeline := filter.NewService(resultCache, &stubSentiment{}, cls, wordcloud.NewService(), logger)

	pool, err := NewWorkerPool(&common.QueueConfig{
		Concurrency:    2,
		PollInterval:   "5ms",
		DequeueTimeout: "50ms",
		StaggerWorkers: true,
	}, broker, pipeline, records, logger)
	require.NoError(t, err)

	return pool
}

func TestWorkerPool_ProcessesJobs(t *testing.T) {
	broker := NewMemoryBroker(5 * time.Millisecond)
	defer broker.Close()
	records := &memoryRecords{}

	pool := newTestPool(t, broker, records)
	pool.Start()
	defer pool.Stop()

	ctx := context.Background()
	waiter := NewWaiter(broker, 5*time.Millisecond, common.GetLogger())

	item := models.ContentItem{ID: "item-1", Type: "fbPageComment", Content: "dịch vụ tệ"}
	jobID, err := broker.Enqueue(ctx, item, models.MetaFromItem(item))
	require.NoError(t, err)

	result := waiter.Wait(ctx, jobID, models.MetaFromItem(item), 2*time.Second)

	assert.Empty(t, result.Error)
	assert.Equal(t, models.TierComment, result.LogLevel)
	assert.Equal(t, models.ReasonNegativeComment, result.Reason)

	count, err := records.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWorkerPool_ConcurrentJobsCorrelateCorrectly(t *testing.T) {
	broker := NewMemoryBroker(5 * time.Millisecond)
	defer broker.Close()

	pool := newTestPool(t, broker, nil)
	pool.Start()
	defer pool.Stop()

	ctx := context.Background()
	waiter := NewWaiter(broker, 5*time.Millisecond, common.GetLogger())

	type submission struct {
		itemID string
		jobID  string
	}

	items := []models.ContentItem{
		{ID: "item-a", Type: "fbPageComment", Content: "quá tệ"},
		{ID: "item-b", Type: "fbPageComment", Content: "thất vọng"},
		{ID: "item-c", Type: "fbPageComment", Content: "chán quá"},
	}

	var subs []submission
	for _, item := range items {
		jobID, err := broker.Enqueue(ctx, item, models.MetaFromItem(item))
		require.NoError(t, err)
		subs = append(subs, submission{itemID: item.ID, jobID: jobID})
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub submission) {
			defer wg.Done()
			result := waiter.Wait(ctx, sub.jobID, models.JobMeta{ID: sub.itemID}, 2*time.Second)
			assert.Equal(t, sub.itemID, result.ID, "result must match the waiter's own job")
		}(sub)
	}
	wg.Wait()
}

func TestWorkerPool_CacheHitKeepsItemIdentity(t *testing.T) {
	broker := NewMemoryBroker(5 * time.Millisecond)
	defer broker.Close()

	pool := newTestPool(t, broker, nil)
	pool.Start()
	defer pool.Stop()

	ctx := context.Background()
	waiter := NewWaiter(broker, 5*time.Millisecond, common.GetLogger())

	first := models.ContentItem{ID: "item-a", TopicID: "topic-1", Type: "fbPageComment", Content: "dịch vụ quá tệ"}
	jobA, err := broker.Enqueue(ctx, first, models.MetaFromItem(first))
	require.NoError(t, err)

	resA := waiter.Wait(ctx, jobA, models.MetaFromItem(first), 2*time.Second)
	require.Empty(t, resA.Error)

	// Same text, different item: served from cache but echoing its own identity
	second := models.ContentItem{ID: "item-b", TopicID: "topic-2", Type: "fbPageComment", Content: "dịch vụ quá tệ"}
	jobB, err := broker.Enqueue(ctx, second, models.MetaFromItem(second))
	require.NoError(t, err)

	resB := waiter.Wait(ctx, jobB, models.MetaFromItem(second), 2*time.Second)
	require.Empty(t, resB.Error)

	assert.Equal(t, "item-b", resB.ID)
	assert.Equal(t, "topic-2", resB.TopicID)
	assert.Equal(t, resA.LogLevel, resB.LogLevel)
}

func TestWorkerPool_EmptyTextResultNotRecorded(t *testing.T) {
	broker := NewMemoryBroker(5 * time.Millisecond)
	defer broker.Close()
	records := &memoryRecords{}

	pool := newTestPool(t, broker, records)
	pool.Start()
	defer pool.Stop()

	ctx := context.Background()
	waiter := NewWaiter(broker, 5*time.Millisecond, common.GetLogger())

	item := models.ContentItem{ID: "empty-1", Type: "fbPageComment"}
	jobID, err := broker.Enqueue(ctx, item, models.MetaFromItem(item))
	require.NoError(t, err)

	result := waiter.Wait(ctx, jobID, models.MetaFromItem(item), 2*time.Second)

	assert.Equal(t, filter.ErrorEmptyText, result.Error)

	count, err := records.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
