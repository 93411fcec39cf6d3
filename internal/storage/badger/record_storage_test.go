package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/buzzmon/internal/common"
	"github.com/ternarybob/buzzmon/internal/models"
)

func newTestStorage(t *testing.T) *RecordStorage {
	t.Helper()

	db, err := NewBadgerDB(common.GetLogger(), &common.BadgerConfig{
		Path: t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRecordStorage(db, common.GetLogger()).(*RecordStorage)
}

func TestRecordStorage_SaveAndCount(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := storage.SaveRecord(ctx, &models.ClassificationRecord{
			JobID:     fmt.Sprintf("job_%d", i),
			ItemID:    fmt.Sprintf("item-%d", i),
			LogLevel:  models.TierComment,
			CreatedAt: time.Now(),
		})
		require.NoError(t, err)
	}

	count, err := storage.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRecordStorage_RecentRecordsNewestFirst(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		err := storage.SaveRecord(ctx, &models.ClassificationRecord{
			JobID:     fmt.Sprintf("job_%d", i),
			ItemID:    fmt.Sprintf("item-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	records, err := storage.RecentRecords(ctx, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "job_4", records[0].JobID)
	assert.Equal(t, "job_3", records[1].JobID)
	assert.Equal(t, "job_2", records[2].JobID)
}

func TestRecordStorage_UpsertReplacesByJobID(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	record := &models.ClassificationRecord{
		JobID:     "job_x",
		LogLevel:  models.TierPost,
		CreatedAt: time.Now(),
	}
	require.NoError(t, storage.SaveRecord(ctx, record))

	record.LogLevel = models.TierCrisis
	require.NoError(t, storage.SaveRecord(ctx, record))

	count, err := storage.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	records, err := storage.RecentRecords(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.TierCrisis, records[0].LogLevel)
}
