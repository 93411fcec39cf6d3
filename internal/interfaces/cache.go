package interfaces

import (
	"github.com/ternarybob/buzzmon/internal/models"
)

// CacheStats mirrors the /cache/stats wire contract
type CacheStats struct {
	CacheSize    int     `json:"cache_size"`
	MaxSize      int     `json:"max_size"`
	TTL          int     `json:"ttl"` // Seconds
	UsagePercent float64 `json:"usage_percent"`
}

// ResultCache maps a content fingerprint to a previously computed
// classification result. Bounded size with LRU-by-access eviction and
// TTL expiry; safe for concurrent use by workers.
type ResultCache interface {
	// Get returns the cached result for the item's fingerprint, refreshing
	// its last-access time. Expired entries are removed and reported absent.
	Get(item models.ContentItem) (*models.ClassificationResult, bool)

	// Set stores a result snapshot under the item's fingerprint, evicting
	// expired entries first and the least-recently-used entry if still at
	// capacity. Last writer wins for duplicate fingerprints.
	Set(item models.ContentItem, result models.ClassificationResult)

	Clear()
	Stats() CacheStats
}
