// Package sentiment wraps the external sentiment inference service behind
// the SentimentModel interface.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/buzzmon/internal/common"
	"github.com/ternarybob/buzzmon/internal/interfaces"
	"github.com/ternarybob/buzzmon/internal/models"
)

// Client calls the sentiment inference endpoint over HTTP with bounded
// retries. The inference service is a separate deployment; its contract is
// POST {text} -> {predicted_label, scores}.
type Client struct {
	url          string
	httpClient   *http.Client
	maxRetries   int
	retryBackoff time.Duration
	logger       arbor.ILogger
}

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	PredictedLabel string `json:"predicted_label"`
	Scores         []struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	} `json:"scores"`
}

// NewClient creates a sentiment service client from configuration
func NewClient(cfg *common.SentimentConfig, logger arbor.ILogger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("sentiment service URL is required")
	}

	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 5 * time.Second
	}
	backoff, err := time.ParseDuration(cfg.RetryBackoff)
	if err != nil || backoff <= 0 {
		backoff = 2 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &Client{
		url:          cfg.URL,
		httpClient:   &http.Client{Timeout: timeout},
		maxRetries:   maxRetries,
		retryBackoff: backoff,
		logger:       logger,
	}, nil
}

// Predict scores the given text, retrying transport failures. Exhausted
// retries return an error; the caller decides the degraded behavior.
func (c *Client) Predict(ctx context.Context, text string) (models.SentimentPrediction, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		prediction, err := c.predictOnce(ctx, text)
		if err == nil {
			return prediction, nil
		}
		lastErr = err

		c.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_retries", c.maxRetries).
			Msg("Sentiment prediction failed")

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return models.SentimentPrediction{}, ctx.Err()
			case <-time.After(c.retryBackoff):
			}
		}
	}

	return models.SentimentPrediction{}, fmt.Errorf("sentiment prediction failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) predictOnce(ctx context.Context, text string) (models.SentimentPrediction, error) {
	body, err := json.Marshal(predictRequest{Text: text})
	if err != nil {
		return models.SentimentPrediction{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return models.SentimentPrediction{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.SentimentPrediction{}, fmt.Errorf("sentiment request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.SentimentPrediction{}, fmt.Errorf("sentiment service returned %d: %s", resp.StatusCode, string(data))
	}

	var parsed predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return models.SentimentPrediction{}, fmt.Errorf("failed to decode sentiment response: %w", err)
	}

	prediction := models.SentimentPrediction{
		Label: normalizeLabel(parsed.PredictedLabel),
	}
	for _, s := range parsed.Scores {
		prediction.Scores = append(prediction.Scores, models.SentimentScore{
			Label:      s.Label,
			Confidence: s.Confidence,
		})
	}

	return prediction, nil
}

// normalizeLabel maps the service's label vocabulary onto the three
// canonical polarities. Unknown labels count as neutral.
func normalizeLabel(label string) models.SentimentLabel {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "negative", "neg":
		return models.SentimentNegative
	case "positive", "pos":
		return models.SentimentPositive
	default:
		return models.SentimentNeutral
	}
}

var _ interfaces.SentimentModel = (*Client)(nil)
