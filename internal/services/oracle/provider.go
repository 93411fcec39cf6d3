// Package oracle implements the LLM-backed topic-targeting judgment behind
// the TopicOracle interface, with Gemini and Claude providers.
package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/buzzmon/internal/common"
	"github.com/ternarybob/buzzmon/internal/interfaces"
)

// NewOracle creates the topic oracle selected by configuration
func NewOracle(ctx context.Context, cfg *common.OracleConfig, logger arbor.ILogger) (interfaces.TopicOracle, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "gemini":
		return NewGeminiOracle(ctx, cfg, logger)
	case "claude":
		return NewClaudeOracle(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown oracle provider: %s", cfg.Provider)
	}
}
