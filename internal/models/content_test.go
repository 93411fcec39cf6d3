package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentItem_UnmarshalSnakeCase(t *testing.T) {
	data := []byte(`{
		"id": "p-1",
		"topic_id": "t-1",
		"topic_name": "Brand X",
		"type": "newsTopic",
		"title": "Tiêu đề",
		"content": "Nội dung",
		"site_id": "s-1",
		"site_name": "VnExpress",
		"is_kol": true,
		"total_interactions": 150
	}`)

	var item ContentItem
	require.NoError(t, json.Unmarshal(data, &item))

	assert.Equal(t, "p-1", item.ID)
	assert.Equal(t, "Brand X", item.TopicName)
	assert.Equal(t, "s-1", item.SiteID)
	assert.Equal(t, "VnExpress", item.SiteName)
	assert.True(t, item.IsKOL)
	assert.Equal(t, 150, item.TotalInteractions)
}

func TestContentItem_UnmarshalCamelCaseAliases(t *testing.T) {
	data := []byte(`{"id": "p-2", "siteId": "s-7", "siteName": "Fanpage"}`)

	var item ContentItem
	require.NoError(t, json.Unmarshal(data, &item))

	assert.Equal(t, "s-7", item.SiteID)
	assert.Equal(t, "Fanpage", item.SiteName)
}

func TestContentItem_SnakeCaseWinsOverAlias(t *testing.T) {
	data := []byte(`{"site_id": "canonical", "siteId": "legacy"}`)

	var item ContentItem
	require.NoError(t, json.Unmarshal(data, &item))

	assert.Equal(t, "canonical", item.SiteID)
}

func TestContentItem_MissingInteractionsDefaultsToZero(t *testing.T) {
	var item ContentItem
	require.NoError(t, json.Unmarshal([]byte(`{"id": "x"}`), &item))

	assert.Equal(t, 0, item.TotalInteractions)
}

func TestContentItem_HasText(t *testing.T) {
	assert.False(t, (&ContentItem{ID: "x", Type: "newsTopic"}).HasText())
	assert.True(t, (&ContentItem{Title: "t"}).HasText())
	assert.True(t, (&ContentItem{Content: "c"}).HasText())
	assert.True(t, (&ContentItem{Description: "d"}).HasText())
}

func TestContentItem_CombinedText(t *testing.T) {
	item := ContentItem{Title: "a", Description: "c"}
	assert.Equal(t, "a c", item.CombinedText())
}

func TestTypeTaxonomy_Defaults(t *testing.T) {
	taxonomy := NewTypeTaxonomy(nil, nil)

	assert.True(t, taxonomy.IsComment("fbPageComment"))
	assert.True(t, taxonomy.IsComment("threadsComment"))
	assert.True(t, taxonomy.IsPost("newsTopic"))
	assert.True(t, taxonomy.IsPost("threadsTopic"))
	assert.False(t, taxonomy.IsComment("newsTopic"))
	assert.False(t, taxonomy.IsPost("somethingElse"))
}

func TestTypeTaxonomy_Overrides(t *testing.T) {
	taxonomy := NewTypeTaxonomy([]string{"customComment"}, []string{"customPost"})

	assert.True(t, taxonomy.IsComment("customComment"))
	assert.False(t, taxonomy.IsComment("fbPageComment"))
	assert.True(t, taxonomy.IsPost("customPost"))
}

func TestTypeTaxonomy_IsNews(t *testing.T) {
	taxonomy := NewTypeTaxonomy(nil, nil)

	assert.True(t, taxonomy.IsNews("newsTopic"))
	assert.True(t, taxonomy.IsNews("NewsComment"))
	assert.False(t, taxonomy.IsNews("fbPageTopic"))
}

func TestNewBaseResult(t *testing.T) {
	item := ContentItem{
		ID:                "p-1",
		TopicName:         "Brand X",
		Type:              "newsTopic",
		IsKOL:             true,
		TotalInteractions: 42,
	}

	result := NewBaseResult(item)

	assert.Equal(t, TierBenign, result.LogLevel)
	assert.Equal(t, ReasonNotNegative, result.Reason)
	assert.Equal(t, "p-1", result.ID)
	assert.Equal(t, "newsTopic", result.InputType)
	assert.NotNil(t, result.CrisisKeywords)

	// The wire form must carry [] rather than null
	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"crisis_keywords":[]`)
}
