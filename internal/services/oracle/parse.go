package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/buzzmon/internal/models"
)

// maxKeywordWords bounds each crisis keyword to a short phrase
const maxKeywordWords = 3

// parseAnalysis extracts the JSON object from a model completion and
// normalizes it into a TopicAnalysis. Models wrap JSON in prose or code
// fences often enough that the parser takes the span from the first '{' to
// the last '}' and coerces loosely typed values rather than trusting the
// completion to be clean.
func parseAnalysis(raw string) (models.TopicAnalysis, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return models.TopicAnalysis{}, fmt.Errorf("no JSON object in completion: %q", truncate(raw, 120))
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &fields); err != nil {
		return models.TopicAnalysis{}, fmt.Errorf("failed to decode completion JSON: %w", err)
	}

	analysis := models.TopicAnalysis{
		ContainsTopic:  coerceBool(fields["contains_topic"]),
		TargetingTopic: coerceBool(fields["targeting_topic"]),
		Reason:         coerceString(fields["reason"]),
		CrisisKeywords: coerceKeywords(fields["crisis_keywords"]),
	}

	// Targeting a topic implies the topic is present
	if analysis.TargetingTopic {
		analysis.ContainsTopic = true
	}

	return analysis, nil
}

func coerceBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return strings.EqualFold(strings.TrimSpace(x), "true")
	default:
		return false
	}
}

func coerceString(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// coerceKeywords normalizes the keyword list: strings only, trimmed,
// phrases longer than maxKeywordWords dropped, empties dropped.
func coerceKeywords(v any) []string {
	keywords := []string{}

	list, ok := v.([]any)
	if !ok {
		return keywords
	}

	for _, raw := range list {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" || len(strings.Fields(s)) > maxKeywordWords {
			continue
		}
		keywords = append(keywords, s)
	}

	return keywords
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
