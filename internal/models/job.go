package models

import (
	"errors"
	"time"
)

// ErrNoJob is returned when the queue has no job within the dequeue window
var ErrNoJob = errors.New("no jobs in queue")

// JobMeta is a projection of display fields carried through the broker
// unchanged so the gateway need not re-query anything after the wait.
type JobMeta struct {
	ID          string `json:"id"`
	TopicName   string `json:"topic_name"`
	TopicID     string `json:"topic_id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Description string `json:"description"`
	SiteName    string `json:"site_name"`
	SiteID      string `json:"site_id"`
	Type        string `json:"type"`
}

// MetaFromItem projects the display fields of an item
func MetaFromItem(item ContentItem) JobMeta {
	return JobMeta{
		ID:          item.ID,
		TopicName:   item.TopicName,
		TopicID:     item.TopicID,
		Title:       item.Title,
		Content:     item.Content,
		Description: item.Description,
		SiteName:    item.SiteName,
		SiteID:      item.SiteID,
		Type:        item.Type,
	}
}

// Job is the unit of work carried on the request channel. Created by the
// gateway at enqueue time, consumed exactly once by a worker, never mutated.
type Job struct {
	JobID string      `json:"job_id"`
	Item  ContentItem `json:"data_input"`
	Meta  JobMeta     `json:"meta"`
}

// JobResult pairs a job ID with its classification outcome on the result
// channel. Claimed exactly once by the correlation waiter, then deleted.
type JobResult struct {
	JobID  string               `json:"job_id"`
	Result ClassificationResult `json:"result"`
}

// ClassificationRecord is the audit-log row persisted after each completed
// classification. Queried by the recent-results API.
type ClassificationRecord struct {
	JobID          string    `badgerhold:"key" json:"job_id"`
	ItemID         string    `badgerhold:"index" json:"item_id"`
	TopicName      string    `json:"topic_name"`
	InputType      string    `json:"input_type"`
	Sentiment      string    `json:"sentiment"`
	LogLevel       int       `badgerhold:"index" json:"log_level"`
	CrisisKeywords []string  `json:"crisis_keywords"`
	FromCache      bool      `json:"from_cache"`
	CreatedAt      time.Time `json:"created_at"`
}
