// Package filter runs the end-to-end classification pipeline for one item:
// cache lookup, sentiment inference, tier classification, word cloud, cache
// write. Both the synchronous REST path and the queue workers go through it.
package filter

import (
	"context"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/buzzmon/internal/interfaces"
	"github.com/ternarybob/buzzmon/internal/models"
	"github.com/ternarybob/buzzmon/internal/services/classifier"
	"github.com/ternarybob/buzzmon/internal/services/wordcloud"
)

// ErrorEmptyText marks an item rejected for carrying no classifiable text
const ErrorEmptyText = "Empty text"

// Service orchestrates the per-item classification pipeline
type Service struct {
	cache      interfaces.ResultCache
	sentiment  interfaces.SentimentModel
	classifier *classifier.Service
	wordcloud  *wordcloud.Service
	logger     arbor.ILogger
}

// NewService creates the classification pipeline
func NewService(cache interfaces.ResultCache, sentiment interfaces.SentimentModel, cls *classifier.Service, wc *wordcloud.Service, logger arbor.ILogger) *Service {
	return &Service{
		cache:      cache,
		sentiment:  sentiment,
		classifier: cls,
		wordcloud:  wc,
		logger:     logger,
	}
}

// Classify runs the pipeline for one item. The boolean reports a cache hit.
// A sentiment-service outage degrades the item to a neutral tier-0 result
// rather than failing the request; degraded results are not cached.
func (s *Service) Classify(ctx context.Context, item models.ContentItem) (models.ClassificationResult, bool) {
	if !item.HasText() {
		result := models.NewBaseResult(item)
		result.Error = ErrorEmptyText
		return result, false
	}

	if cached, ok := s.cache.Get(item); ok {
		s.logger.Debug().Str("item_id", item.ID).Msg("Cache hit")
		result := *cached
		result.RestampIdentity(item)
		return result, true
	}

	prediction, err := s.sentiment.Predict(ctx, item.CombinedText())
	if err != nil {
		s.logger.Error().Err(err).Str("item_id", item.ID).Msg("Sentiment inference unavailable, returning neutral result")
		result := s.classifier.Classify(ctx, item, models.SentimentPrediction{Label: models.SentimentNeutral})
		return result, false
	}

	result := s.classifier.Classify(ctx, item, prediction)
	result.WordCloud = s.wordcloud.Generate(item)

	s.cache.Set(item, result)
	return result, false
}

// ClassifyBatch evaluates items concurrently and returns results in input
// order. Each item fails or succeeds independently.
func (s *Service) ClassifyBatch(ctx context.Context, items []models.ContentItem) []models.ClassificationResult {
	results := make([]models.ClassificationResult, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item models.ContentItem) {
			defer wg.Done()
			results[i], _ = s.Classify(ctx, item)
		}(i, item)
	}
	wg.Wait()

	return results
}
