package filter

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/buzzmon/internal/common"
	"github.com/ternarybob/buzzmon/internal/models"
	"github.com/ternarybob/buzzmon/internal/services/cache"
	"github.com/ternarybob/buzzmon/internal/services/classifier"
	"github.com/ternarybob/buzzmon/internal/services/wordcloud"
)

type stubSentiment struct {
	label models.SentimentLabel
	err   error
	calls atomic.Int32
}

func (s *stubSentiment) Predict(ctx context.Context, text string) (models.SentimentPrediction, error) {
	s.calls.Add(1)
	if s.err != nil {
		return models.SentimentPrediction{}, s.err
	}
	return models.SentimentPrediction{Label: s.label}, nil
}

type stubOracle struct {
	analysis models.TopicAnalysis
}

func (o *stubOracle) CheckTopic(ctx context.Context, item models.ContentItem) models.TopicAnalysis {
	return o.analysis
}

func (o *stubOracle) Name() string { return "stub" }

func newTestPipeline(t *testing.T, sentiment *stubSentiment, oracle *stubOracle) *Service {
	t.Helper()
	logger := common.GetLogger()

	resultCache, err := cache.NewService(&common.CacheConfig{MaxSize: 100, TTL: "1h"}, logger)
	require.NoError(t, err)

	cls := classifier.NewService(&common.ClassifierConfig{InteractionThreshold: 100}, oracle, logger)

	return NewService(resultCache, sentiment, cls, wordcloud.NewService(), logger)
}

func TestClassify_EmptyTextRejected(t *testing.T) {
	sentiment := &stubSentiment{label: models.SentimentNegative}
	svc := newTestPipeline(t, sentiment, &stubOracle{})

	result, fromCache := svc.Classify(context.Background(), models.ContentItem{ID: "1", Type: "fbPageComment"})

	assert.Equal(t, ErrorEmptyText, result.Error)
	assert.False(t, fromCache)
	assert.Equal(t, int32(0), sentiment.calls.Load())
}

func TestClassify_CacheShortCircuitsPipeline(t *testing.T) {
	sentiment := &stubSentiment{label: models.SentimentNegative}
	svc := newTestPipeline(t, sentiment, &stubOracle{})

	item := models.ContentItem{ID: "1", Type: "fbPageComment", Content: "dịch vụ tệ"}

	first, fromCache := svc.Classify(context.Background(), item)
	assert.False(t, fromCache)
	assert.Equal(t, models.TierComment, first.LogLevel)

	second, fromCache := svc.Classify(context.Background(), item)
	assert.True(t, fromCache)
	assert.Equal(t, first.LogLevel, second.LogLevel)
	assert.Equal(t, int32(1), sentiment.calls.Load(), "sentiment must run once per fingerprint")
}

func TestClassify_CacheHitEchoesRequestingItem(t *testing.T) {
	sentiment := &stubSentiment{label: models.SentimentNegative}
	svc := newTestPipeline(t, sentiment, &stubOracle{})

	first := models.ContentItem{
		ID:      "item-a",
		TopicID: "topic-1",
		SiteID:  "site-1",
		Type:    "fbPageComment",
		Content: "dịch vụ quá tệ",
	}
	second := models.ContentItem{
		ID:                "item-b",
		TopicID:           "topic-2",
		SiteID:            "site-2",
		Type:              "fbPageComment",
		Content:           "dịch vụ quá tệ",
		IsKOL:             true,
		TotalInteractions: 250,
	}

	_, fromCache := svc.Classify(context.Background(), first)
	require.False(t, fromCache)

	result, fromCache := svc.Classify(context.Background(), second)
	require.True(t, fromCache, "identical text must hit the cache")

	assert.Equal(t, "item-b", result.ID)
	assert.Equal(t, "topic-2", result.TopicID)
	assert.Equal(t, "site-2", result.SiteID)
	assert.True(t, result.IsKOL)
	assert.Equal(t, 250, result.TotalInteractions)
}

func TestClassify_IncludesWordCloud(t *testing.T) {
	sentiment := &stubSentiment{label: models.SentimentNegative}
	svc := newTestPipeline(t, sentiment, &stubOracle{})

	result, _ := svc.Classify(context.Background(), models.ContentItem{
		ID:      "1",
		Type:    "fbPageComment",
		Content: "tệ quá tệ",
	})

	assert.NotEmpty(t, result.WordCloud)
}

func TestClassify_SentimentOutageDegradesToNeutral(t *testing.T) {
	sentiment := &stubSentiment{err: assert.AnError}
	svc := newTestPipeline(t, sentiment, &stubOracle{})

	item := models.ContentItem{ID: "1", Type: "fbPageComment", Content: "nội dung"}

	result, _ := svc.Classify(context.Background(), item)
	assert.Equal(t, models.TierBenign, result.LogLevel)
	assert.Equal(t, string(models.SentimentNeutral), result.Sentiment)

	// Degraded results must not poison the cache
	_, fromCache := svc.Classify(context.Background(), item)
	assert.False(t, fromCache)
}

func TestClassifyBatch_PreservesOrder(t *testing.T) {
	sentiment := &stubSentiment{label: models.SentimentNegative}
	svc := newTestPipeline(t, sentiment, &stubOracle{})

	items := []models.ContentItem{
		{ID: "a", Type: "fbPageComment", Content: "tệ"},
		{ID: "b", Type: "fbPageComment"},
		{ID: "c", Type: "fbPageComment", Content: "chán"},
	}

	results := svc.ClassifyBatch(context.Background(), items)

	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, ErrorEmptyText, results[1].Error)
	assert.Equal(t, "c", results[2].ID)
}
