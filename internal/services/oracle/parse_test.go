package oracle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/buzzmon/internal/models"
)

func TestParseAnalysis_CleanJSON(t *testing.T) {
	analysis, err := parseAnalysis(`{"contains_topic": true, "targeting_topic": true, "reason": "Nội dung cáo buộc lừa đảo.", "crisis_keywords": ["lừa đảo", "không hoàn tiền"]}`)
	require.NoError(t, err)

	assert.True(t, analysis.ContainsTopic)
	assert.True(t, analysis.TargetingTopic)
	assert.Equal(t, "Nội dung cáo buộc lừa đảo.", analysis.Reason)
	assert.Equal(t, []string{"lừa đảo", "không hoàn tiền"}, analysis.CrisisKeywords)
}

func TestParseAnalysis_FencedJSON(t *testing.T) {
	raw := "Đây là kết quả:\n```json\n{\"contains_topic\": true, \"targeting_topic\": false, \"reason\": \"ok\", \"crisis_keywords\": []}\n```\nHết."

	analysis, err := parseAnalysis(raw)
	require.NoError(t, err)

	assert.True(t, analysis.ContainsTopic)
	assert.False(t, analysis.TargetingTopic)
	assert.Empty(t, analysis.CrisisKeywords)
}

func TestParseAnalysis_StringBooleans(t *testing.T) {
	analysis, err := parseAnalysis(`{"contains_topic": "true", "targeting_topic": "False", "reason": "x"}`)
	require.NoError(t, err)

	assert.True(t, analysis.ContainsTopic)
	assert.False(t, analysis.TargetingTopic)
}

func TestParseAnalysis_MissingFieldsDefault(t *testing.T) {
	analysis, err := parseAnalysis(`{"reason": "chỉ có lý do"}`)
	require.NoError(t, err)

	assert.False(t, analysis.ContainsTopic)
	assert.False(t, analysis.TargetingTopic)
	assert.NotNil(t, analysis.CrisisKeywords)
	assert.Empty(t, analysis.CrisisKeywords)
}

func TestParseAnalysis_TargetingImpliesContains(t *testing.T) {
	analysis, err := parseAnalysis(`{"contains_topic": false, "targeting_topic": true}`)
	require.NoError(t, err)

	assert.True(t, analysis.ContainsTopic)
}

func TestParseAnalysis_KeywordNormalization(t *testing.T) {
	analysis, err := parseAnalysis(`{"crisis_keywords": ["  lừa đảo ", "", "cụm từ khóa quá dài rồi", 42, "tẩy chay"]}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"lừa đảo", "tẩy chay"}, analysis.CrisisKeywords)
}

func TestParseAnalysis_NoJSON(t *testing.T) {
	_, err := parseAnalysis("xin lỗi, tôi không thể trả lời")
	assert.Error(t, err)
}

func TestParseAnalysis_MalformedJSON(t *testing.T) {
	_, err := parseAnalysis(`{"contains_topic": tru`)
	assert.Error(t, err)
}

func TestDegradedAnalysis(t *testing.T) {
	analysis := degradedAnalysis(assert.AnError)

	assert.False(t, analysis.ContainsTopic)
	assert.False(t, analysis.TargetingTopic)
	assert.NotNil(t, analysis.CrisisKeywords)
	assert.True(t, strings.HasPrefix(analysis.Reason, "Không thể phân tích chủ đề"))
}

func TestBuildPrompt_IncludesTopicAndText(t *testing.T) {
	prompt := buildPrompt(models.ContentItem{
		TopicName: "Brand X",
		Title:     "Cảnh báo",
		Content:   "dịch vụ lừa đảo",
		SiteName:  "VnExpress",
	})

	assert.Contains(t, prompt, `"Brand X"`)
	assert.Contains(t, prompt, "dịch vụ lừa đảo")
	assert.Contains(t, prompt, "VnExpress")
	assert.Contains(t, prompt, "crisis_keywords")
}
