package models

// SentimentLabel is the normalized polarity label from the sentiment model
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// Severity tiers. The numeric values are part of the wire contract and must
// not be renumbered.
const (
	TierBenign  = 0 // Not negative, no further analysis
	TierComment = 1 // Negative comment; terminal, topic oracle never consulted
	TierPost    = 2 // Negative post without a confirmed crisis signal
	TierCrisis  = 3 // Targeting topic with crisis keywords and high impact
)

// Reason strings for the terminal tiers that never reach the oracle
const (
	ReasonNotNegative     = "Không phải nội dung tiêu cực."
	ReasonNegativeComment = "Bình luận tiêu cực trên mạng xã hội."
)

// SentimentScore is one entry of the model's confidence distribution
type SentimentScore struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// SentimentPrediction is the normalized output of the sentiment model
type SentimentPrediction struct {
	Label  SentimentLabel   `json:"label"`
	Scores []SentimentScore `json:"scores,omitempty"`
}

// TopicAnalysis is the normalized answer from the topic-targeting oracle.
// Invariant: TargetingTopic implies ContainsTopic; a failed oracle call
// yields the all-false default with the failure detail in Reason.
type TopicAnalysis struct {
	ContainsTopic  bool     `json:"contains_topic"`
	TargetingTopic bool     `json:"targeting_topic"`
	Reason         string   `json:"reason"`
	CrisisKeywords []string `json:"crisis_keywords"`
}

// WordCloudEntry is a token with its frequency in the item text
type WordCloudEntry struct {
	Word      string `json:"word"`
	Frequency int    `json:"frequency"`
}

// ClassificationResult is the per-item output of the pipeline. Display fields
// from the input are echoed so callers need not re-query anything.
type ClassificationResult struct {
	ID                string           `json:"id"`
	TopicID           string           `json:"topic_id"`
	TopicName         string           `json:"topic_name"`
	Title             string           `json:"title"`
	Content           string           `json:"content"`
	Description       string           `json:"description"`
	SiteID            string           `json:"site_id"`
	SiteName          string           `json:"site_name"`
	InputType         string           `json:"input_type"`
	Sentiment         string           `json:"sentiment,omitempty"`
	SentimentScores   []SentimentScore `json:"sentiment_scores,omitempty"`
	LogLevel          int              `json:"log_level"`
	Reason            string           `json:"reason"`
	ContainsTopic     bool             `json:"contains_topic"`
	TargetingTopic    bool             `json:"targeting_topic"`
	CrisisKeywords    []string         `json:"crisis_keywords"`
	IsKOL             bool             `json:"is_kol"`
	TotalInteractions int              `json:"total_interactions"`
	WordCloud         []WordCloudEntry `json:"word_cloud,omitempty"`

	// Error carries the timeout or per-item failure marker; empty on success
	Error string `json:"error,omitempty"`
}

// NewBaseResult builds a tier-0 result with the input fields echoed.
// CrisisKeywords is always non-nil so the wire form is [] rather than null.
func NewBaseResult(item ContentItem) ClassificationResult {
	return ClassificationResult{
		ID:                item.ID,
		TopicID:           item.TopicID,
		TopicName:         item.TopicName,
		Title:             item.Title,
		Content:           item.Content,
		Description:       item.Description,
		SiteID:            item.SiteID,
		SiteName:          item.SiteName,
		InputType:         item.Type,
		LogLevel:          TierBenign,
		Reason:            ReasonNotNegative,
		CrisisKeywords:    []string{},
		IsKOL:             item.IsKOL,
		TotalInteractions: item.TotalInteractions,
	}
}

// RestampIdentity re-echoes the input fields from item. Cache entries are
// shared between items carrying the same text, so a hit arrives with the
// fields of whichever item populated it first and must be re-associated
// with the item that asked.
func (r *ClassificationResult) RestampIdentity(item ContentItem) {
	r.ID = item.ID
	r.TopicID = item.TopicID
	r.TopicName = item.TopicName
	r.Title = item.Title
	r.Content = item.Content
	r.Description = item.Description
	r.SiteID = item.SiteID
	r.SiteName = item.SiteName
	r.InputType = item.Type
	r.IsKOL = item.IsKOL
	r.TotalInteractions = item.TotalInteractions
}

// IsTimeout reports whether the result is the correlation-wait sentinel
func (r *ClassificationResult) IsTimeout() bool {
	return r.Error == "Timeout"
}
