package interfaces

import (
	"context"

	"github.com/ternarybob/buzzmon/internal/models"
)

// RecordStorage persists the classification audit log
type RecordStorage interface {
	SaveRecord(ctx context.Context, record *models.ClassificationRecord) error

	// RecentRecords returns up to limit records, newest first
	RecentRecords(ctx context.Context, limit int) ([]*models.ClassificationRecord, error)

	Count(ctx context.Context) (int, error)
}
