// Package cache provides the bounded LRU+TTL result cache keyed by a
// content fingerprint.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/buzzmon/internal/common"
	"github.com/ternarybob/buzzmon/internal/interfaces"
	"github.com/ternarybob/buzzmon/internal/models"
)

type entry struct {
	result     models.ClassificationResult
	lastAccess time.Time
}

// Service is an in-memory result cache with LRU-by-access eviction and TTL
// expiry measured from last access. Safe for concurrent use.
type Service struct {
	mu      sync.Mutex
	entries map[string]*entry
	maxSize int
	ttl     time.Duration
	logger  arbor.ILogger
}

// NewService creates a result cache from configuration
func NewService(cfg *common.CacheConfig, logger arbor.ILogger) (*Service, error) {
	ttl, err := cfg.TTLDuration()
	if err != nil {
		return nil, err
	}
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = 1000
	}

	return &Service{
		entries: make(map[string]*entry),
		maxSize: maxSize,
		ttl:     ttl,
		logger:  logger,
	}, nil
}

// Fingerprint computes the cache key for an item: the MD5 hex digest of the
// canonical JSON encoding (sorted keys) of the classification-relevant
// fields, each trimmed of surrounding whitespace. Identity fields like id
// and site_id are deliberately excluded so identical text from different
// crawls hits the same entry.
func Fingerprint(item models.ContentItem) string {
	// encoding/json sorts map keys, which gives the canonical form
	canonical := map[string]string{
		"content":     strings.TrimSpace(item.Content),
		"description": strings.TrimSpace(item.Description),
		"site_name":   strings.TrimSpace(item.SiteName),
		"title":       strings.TrimSpace(item.Title),
		"topic_name":  strings.TrimSpace(item.TopicName),
		"type":        strings.TrimSpace(item.Type),
	}

	data, _ := json.Marshal(canonical)
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached result for the item's fingerprint, refreshing its
// last-access time. An expired entry is removed and reported absent.
func (s *Service) Get(item models.ContentItem) (*models.ClassificationResult, bool) {
	key := Fingerprint(item)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if now.Sub(e.lastAccess) > s.ttl {
		delete(s.entries, key)
		return nil, false
	}

	e.lastAccess = now
	result := e.result
	return &result, true
}

// Set stores a result snapshot under the item's fingerprint. Expired entries
// are dropped first; if still at capacity the least-recently-accessed entry
// is evicted. Writing an existing fingerprint replaces it.
func (s *Service) Set(item models.ContentItem, result models.ClassificationResult) {
	key := Fingerprint(item)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpired(now)

	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxSize {
		s.evictOldest()
	}

	s.entries[key] = &entry{
		result:     result,
		lastAccess: now,
	}
}

// evictExpired drops all entries past the TTL. Caller holds the lock.
func (s *Service) evictExpired(now time.Time) {
	for key, e := range s.entries {
		if now.Sub(e.lastAccess) > s.ttl {
			delete(s.entries, key)
		}
	}
}

// evictOldest drops the single least-recently-accessed entry. Caller holds
// the lock.
func (s *Service) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, e := range s.entries {
		if oldestKey == "" || e.lastAccess.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.lastAccess
		}
	}
	if oldestKey != "" {
		delete(s.entries, oldestKey)
		s.logger.Debug().Str("key", oldestKey).Msg("Evicted least recently used cache entry")
	}
}

// Clear removes all entries
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*entry)
	s.logger.Info().Msg("Result cache cleared")
}

// Stats reports cache occupancy, counting only live (unexpired) entries
func (s *Service) Stats() interfaces.CacheStats {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	live := 0
	for _, e := range s.entries {
		if now.Sub(e.lastAccess) <= s.ttl {
			live++
		}
	}

	return interfaces.CacheStats{
		CacheSize:    live,
		MaxSize:      s.maxSize,
		TTL:          int(s.ttl.Seconds()),
		UsagePercent: float64(live) / float64(s.maxSize) * 100,
	}
}

var _ interfaces.ResultCache = (*Service)(nil)
