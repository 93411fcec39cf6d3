package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/buzzmon/internal/common"
	"github.com/ternarybob/buzzmon/internal/interfaces"
	"github.com/ternarybob/buzzmon/internal/models"
	"golang.org/x/time/rate"
)

// ClaudeOracle answers topic-targeting questions with the Anthropic API
type ClaudeOracle struct {
	client       anthropic.Client
	model        string
	maxTokens    int64
	temperature  float32
	timeout      time.Duration
	limiter      *rate.Limiter
	maxRetries   int
	retryBackoff time.Duration
	logger       arbor.ILogger
}

// NewClaudeOracle creates a Claude-backed topic oracle
func NewClaudeOracle(cfg *common.OracleConfig, logger arbor.ILogger) (*ClaudeOracle, error) {
	if cfg.Claude.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	timeout, err := time.ParseDuration(cfg.Claude.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}
	spacing, err := time.ParseDuration(cfg.Claude.RateLimit)
	if err != nil || spacing <= 0 {
		spacing = time.Second
	}
	backoff, err := time.ParseDuration(cfg.RetryBackoff)
	if err != nil || backoff <= 0 {
		backoff = 2 * time.Second
	}

	maxTokens := int64(cfg.Claude.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	model := cfg.Claude.Model
	if model == "" {
		model = "claude-haiku-3-5-20241022"
	}

	return &ClaudeOracle{
		client:       anthropic.NewClient(option.WithAPIKey(cfg.Claude.APIKey)),
		model:        model,
		maxTokens:    maxTokens,
		temperature:  cfg.Claude.Temperature,
		timeout:      timeout,
		limiter:      rate.NewLimiter(rate.Every(spacing), 1),
		maxRetries:   cfg.MaxRetries,
		retryBackoff: backoff,
		logger:       logger,
	}, nil
}

// CheckTopic asks Claude whether the item's negative content targets its
// topic. Any failure degrades to the all-false analysis.
func (o *ClaudeOracle) CheckTopic(ctx context.Context, item models.ContentItem) models.TopicAnalysis {
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

func (o *ClaudeOracle) complete(ctx context.Context, prompt string) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(o.model),
		MaxTokens: o.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if o.temperature > 0 {
		params.Temperature = anthropic.Float(float64(o.temperature))
	}

	resp, err := o.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from Claude API")
	}

	return text.String(), nil
}

func (o *ClaudeOracle) Name() string {
	return "claude"
}

var _ interfaces.TopicOracle = (*ClaudeOracle)(nil)
