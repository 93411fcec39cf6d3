package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/buzzmon/internal/interfaces"
	"github.com/ternarybob/buzzmon/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// RecordStorage implements the RecordStorage interface for Badger.
// It keeps the classification audit log queried by the recent-results API.
type RecordStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRecordStorage creates a new RecordStorage instance
func NewRecordStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RecordStorage {
	return &RecordStorage{
		db:     db,
		logger: logger,
	}
}

func (s *RecordStorage) SaveRecord(ctx context.Context, record *models.ClassificationRecord) error {
	if record.JobID == "" {
		return fmt.Errorf("record job ID is required")
	}

	// Dereference so the badgerhold type prefix is consistent with Find
	if err := s.db.Store().Upsert(record.JobID, *record); err != nil {
		s.logger.Error().Err(err).Str("job_id", record.JobID).Msg("Failed to save classification record")
		return fmt.Errorf("failed to save classification record: %w", err)
	}

	return nil
}

func (s *RecordStorage) RecentRecords(ctx context.Context, limit int) ([]*models.ClassificationRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var records []models.ClassificationRecord
	query := badgerhold.Where("JobID").Ne("").SortBy("CreatedAt").Reverse().Limit(limit)
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to query classification records: %w", err)
	}

	result := make([]*models.ClassificationRecord, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}

func (s *RecordStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.ClassificationRecord{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count classification records: %w", err)
	}
	return int(count), nil
}
