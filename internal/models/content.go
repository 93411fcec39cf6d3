package models

import (
	"encoding/json"
	"strings"
)

// ContentItem is a single social-media content item submitted for
// classification. Immutable once submitted; the canonical wire form uses
// snake_case field names, with camelCase aliases (siteId/siteName) accepted
// on input for older producers.
type ContentItem struct {
	ID                string `json:"id,omitempty"`
	TopicID           string `json:"topic_id,omitempty"`
	TopicName         string `json:"topic_name,omitempty"`
	Type              string `json:"type,omitempty"`
	Title             string `json:"title,omitempty"`
	Content           string `json:"content,omitempty"`
	Description       string `json:"description,omitempty"`
	SiteID            string `json:"site_id,omitempty"`
	SiteName          string `json:"site_name,omitempty"`
	IsKOL             bool   `json:"is_kol,omitempty"`
	TotalInteractions int    `json:"total_interactions,omitempty"`
}

// contentItemWire mirrors ContentItem with the legacy camelCase aliases
type contentItemWire struct {
	ID                string `json:"id"`
	TopicID           string `json:"topic_id"`
	TopicName         string `json:"topic_name"`
	Type              string `json:"type"`
	Title             string `json:"title"`
	Content           string `json:"content"`
	Description       string `json:"description"`
	SiteID            string `json:"site_id"`
	SiteIDCamel       string `json:"siteId"`
	SiteName          string `json:"site_name"`
	SiteNameCamel     string `json:"siteName"`
	IsKOL             bool   `json:"is_kol"`
	TotalInteractions *int   `json:"total_interactions"`
}

// UnmarshalJSON accepts both site_id/site_name and siteId/siteName on input.
// snake_case wins when both are present. Missing total_interactions defaults
// to 0.
func (c *ContentItem) UnmarshalJSON(data []byte) error {
	var w contentItemWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	c.ID = w.ID
	c.TopicID = w.TopicID
	c.TopicName = w.TopicName
	c.Type = w.Type
	c.Title = w.Title
	c.Content = w.Content
	c.Description = w.Description
	c.SiteID = w.SiteID
	if c.SiteID == "" {
		c.SiteID = w.SiteIDCamel
	}
	c.SiteName = w.SiteName
	if c.SiteName == "" {
		c.SiteName = w.SiteNameCamel
	}
	c.IsKOL = w.IsKOL
	if w.TotalInteractions != nil {
		c.TotalInteractions = *w.TotalInteractions
	}

	return nil
}

// HasText reports whether the item carries any classifiable text.
// Items without title, content, and description are rejected at intake.
func (c *ContentItem) HasText() bool {
	return c.Title != "" || c.Content != "" || c.Description != ""
}

// CombinedText joins the text-bearing fields for sentiment inference and
// word-cloud generation.
func (c *ContentItem) CombinedText() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{c.Title, c.Content, c.Description} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Default content-type taxonomy. Comment subtypes never reach topic analysis;
// post subtypes are subject to the full pipeline.
var (
	DefaultCommentTypes = []string{
		"fbPageComment", "fbGroupComment", "fbUserComment", "forumComment",
		"newsComment", "youtubeComment", "tiktokComment", "snsComment",
		"linkedinComment", "ecommerceComment", "threadsComment",
	}

	DefaultPostTypes = []string{
		"fbPageTopic", "fbGroupTopic", "fbUserTopic", "forumTopic",
		"newsTopic", "youtubeTopic", "tiktokTopic", "snsTopic",
		"linkedinTopic", "ecommerceTopic", "threadsTopic",
	}
)

// TypeTaxonomy resolves a content-type tag to its subtype family.
// The lists are config-overridable to match historical rule variants.
type TypeTaxonomy struct {
	commentTypes map[string]bool
	postTypes    map[string]bool
}

// NewTypeTaxonomy builds a taxonomy from explicit type lists. Empty lists
// fall back to the built-in defaults.
func NewTypeTaxonomy(commentTypes, postTypes []string) *TypeTaxonomy {
	if len(commentTypes) == 0 {
		commentTypes = DefaultCommentTypes
	}
	if len(postTypes) == 0 {
		postTypes = DefaultPostTypes
	}

	t := &TypeTaxonomy{
		commentTypes: make(map[string]bool, len(commentTypes)),
		postTypes:    make(map[string]bool, len(postTypes)),
	}
	for _, ct := range commentTypes {
		t.commentTypes[ct] = true
	}
	for _, pt := range postTypes {
		t.postTypes[pt] = true
	}
	return t
}

// IsComment reports whether the type tag is a comment subtype
func (t *TypeTaxonomy) IsComment(contentType string) bool {
	return t.commentTypes[contentType]
}

// IsPost reports whether the type tag is a post subtype
func (t *TypeTaxonomy) IsPost(contentType string) bool {
	return t.postTypes[contentType]
}

// IsNews reports whether the type tag denotes news content.
// Used as a tier-3 escalation signal.
func (t *TypeTaxonomy) IsNews(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "news")
}
