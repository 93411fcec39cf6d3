// Package classifier applies the severity tier rules to a sentiment-scored
// content item, consulting the topic oracle only for negative posts.
package classifier

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/buzzmon/internal/common"
	"github.com/ternarybob/buzzmon/internal/interfaces"
	"github.com/ternarybob/buzzmon/internal/models"
)

// Service maps (item, sentiment) to a severity tier.
//
// Tier rules:
//
//	not negative            -> 0, terminal
//	negative comment        -> 1, terminal
//	negative post           -> oracle; 3 when the topic is targeted with
//	                           crisis keywords AND the item is high-impact
//	                           (news, KOL author, or interactions at/over
//	                           the threshold), otherwise 2
//	negative unknown type   -> 2, oracle never consulted
type Service struct {
	taxonomy  *models.TypeTaxonomy
	oracle    interfaces.TopicOracle
	threshold int
	logger    arbor.ILogger
}

// NewService creates a classifier from configuration
func NewService(cfg *common.ClassifierConfig, oracle interfaces.TopicOracle, logger arbor.ILogger) *Service {
	threshold := cfg.InteractionThreshold
	if threshold <= 0 {
		threshold = 100
	}

	return &Service{
		taxonomy:  models.NewTypeTaxonomy(cfg.CommentTypes, cfg.PostTypes),
		oracle:    oracle,
		threshold: threshold,
		logger:    logger,
	}
}

// Classify produces the full result for an item given its sentiment
// prediction. The oracle is consulted exactly once, and only on the
// negative-post path.
func (s *Service) Classify(ctx context.Context, item models.ContentItem, prediction models.SentimentPrediction) models.ClassificationResult {
	result := models.NewBaseResult(item)
	result.Sentiment = string(prediction.Label)
	result.SentimentScores = prediction.Scores

	if prediction.Label != models.SentimentNegative {
		return result
	}

	switch {
	case s.taxonomy.IsComment(item.Type):
		result.LogLevel = models.TierComment
		result.Reason = models.ReasonNegativeComment

	case s.taxonomy.IsPost(item.Type):
		s.classifyPost(ctx, item, &result)

	default:
		// Negative content of an unrecognized type: flag it without the
		// cost of a topic-analysis call
		result.LogLevel = models.TierPost
		result.Reason = ""
	}

	s.logger.Debug().
		Str("item_id", item.ID).
		Str("type", item.Type).
		Int("log_level", result.LogLevel).
		Msg("Item classified")

	return result
}

func (s *Service) classifyPost(ctx context.Context, item models.ContentItem, result *models.ClassificationResult) {
	analysis := s.oracle.CheckTopic(ctx, item)

	result.ContainsTopic = analysis.ContainsTopic
	result.TargetingTopic = analysis.TargetingTopic
	result.Reason = analysis.Reason
	if analysis.CrisisKeywords != nil {
		result.CrisisKeywords = analysis.CrisisKeywords
	}

	if analysis.TargetingTopic && len(analysis.CrisisKeywords) > 0 && s.isHighImpact(item) {
		result.LogLevel = models.TierCrisis
	} else {
		result.LogLevel = models.TierPost
	}
}

// isHighImpact reports whether the item carries enough reach to escalate a
// confirmed crisis signal to tier 3.
func (s *Service) isHighImpact(item models.ContentItem) bool {
	return s.taxonomy.IsNews(item.Type) ||
		item.IsKOL ||
		item.TotalInteractions >= s.threshold
}
