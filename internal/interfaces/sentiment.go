package interfaces

import (
	"context"

	"github.com/ternarybob/buzzmon/internal/models"
)

// SentimentModel is the opaque polarity scoring function. Given text it
// returns a label and a confidence distribution.
type SentimentModel interface {
	Predict(ctx context.Context, text string) (models.SentimentPrediction, error)
}
