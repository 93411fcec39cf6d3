package interfaces

import (
	"context"

	"github.com/ternarybob/buzzmon/internal/models"
)

// TopicOracle is the external topic-targeting judgment service (LLM-backed).
// CheckTopic never fails: any transport or decoding problem is absorbed into
// the default negative analysis with the failure detail in Reason, which
// downgrades the caller to tier 2 by construction.
type TopicOracle interface {
	CheckTopic(ctx context.Context, item models.ContentItem) models.TopicAnalysis

	// Name identifies the backing provider ("gemini", "claude", ...)
	Name() string
}
