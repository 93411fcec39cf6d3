package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/buzzmon/internal/common"
	"github.com/ternarybob/buzzmon/internal/interfaces"
	"github.com/ternarybob/buzzmon/internal/models"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiOracle answers topic-targeting questions with the Gemini API.
// Calls are paced by a rate limiter so a burst of negative posts does not
// trip the provider's per-minute quota.
type GeminiOracle struct {
	client       *genai.Client
	model        string
	temperature  float32
	timeout      time.Duration
	limiter      *rate.Limiter
	maxRetries   int
	retryBackoff time.Duration
	logger       arbor.ILogger
}

// NewGeminiOracle creates a Gemini-backed topic oracle
func NewGeminiOracle(ctx context.Context, cfg *common.OracleConfig, logger arbor.ILogger) (*GeminiOracle, error) {
	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	timeout, err := time.ParseDuration(cfg.Gemini.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}
	spacing, err := time.ParseDuration(cfg.Gemini.RateLimit)
	if err != nil || spacing <= 0 {
		spacing = 4 * time.Second
	}
	backoff, err := time.ParseDuration(cfg.RetryBackoff)
	if err != nil || backoff <= 0 {
		backoff = 2 * time.Second
	}

	model := cfg.Gemini.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	return &GeminiOracle{
		client:       client,
		model:        model,
		temperature:  cfg.Gemini.Temperature,
		timeout:      timeout,
		limiter:      rate.NewLimiter(rate.Every(spacing), 1),
		maxRetries:   cfg.MaxRetries,
		retryBackoff: backoff,
		logger:       logger,
	}, nil
}

// CheckTopic asks Gemini whether the item's negative content targets its
// topic. Any failure degrades to the all-false analysis with the failure
// detail in Reason.
func (o *GeminiOracle) CheckTopic(ctx context.Context, item models.ContentItem) models.TopicAnalysis {
	text, err := completeWithRetry(ctx, o.logger, o.Name(), o.maxRetries, o.retryBackoff, func(ctx context.Context) (string, error) {
		return o.complete(ctx, buildPrompt(item))
	})
	if err != nil {
		return degradedAnalysis(err)
	}

	analysis, err := parseAnalysis(text)
	if err != nil {
		o.logger.Warn().Err(err).Str("provider", o.Name()).Msg("Unparseable oracle completion")
		return degradedAnalysis(err)
	}

	return analysis
}

func (o *GeminiOracle) complete(ctx context.Context, prompt string) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(o.temperature),
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := o.client.Models.GenerateContent(ctx, o.model, contents, config)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty text in Gemini response")
	}
	return text, nil
}

func (o *GeminiOracle) Name() string {
	return "gemini"
}

// degradedAnalysis is the safe default when the oracle cannot answer:
// no targeting, no keywords, so the caller stays at the lower tier.
func degradedAnalysis(err error) models.TopicAnalysis {
	return models.TopicAnalysis{
		ContainsTopic:  false,
		TargetingTopic: false,
		Reason:         fmt.Sprintf("Không thể phân tích chủ đề: %v", err),
		CrisisKeywords: []string{},
	}
}

var _ interfaces.TopicOracle = (*GeminiOracle)(nil)
