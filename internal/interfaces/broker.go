package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/buzzmon/internal/models"
)

// QueueStats reports broker channel depths
type QueueStats struct {
	PendingJobs      int `json:"pending_jobs"`
	UnclaimedResults int `json:"unclaimed_results"`
}

// JobBroker carries classification jobs from intake to workers and results
// back. FIFO per channel, at-least-once delivery: a crashed worker's claimed
// job is lost and its waiter times out.
type JobBroker interface {
	// Enqueue generates a job ID, pushes the job onto the request channel
	// and returns the ID for correlation.
	Enqueue(ctx context.Context, item models.ContentItem, meta models.JobMeta) (string, error)

	// Dequeue blocks up to timeout for the next job. Returns ErrNoJob when
	// the wait lapses with nothing available.
	Dequeue(ctx context.Context, timeout time.Duration) (*models.Job, error)

	// PublishResult appends a result to the result channel.
	PublishResult(ctx context.Context, result models.JobResult) error

	// ClaimResult atomically removes and returns the result for jobID.
	// The boolean reports whether a match was found. A result is delivered
	// to at most one claimer.
	ClaimResult(ctx context.Context, jobID string) (*models.ClassificationResult, bool, error)

	// SweepResults deletes unclaimed results older than the given age and
	// returns the number removed. Keeps the result channel bounded when
	// waiters time out.
	SweepResults(olderThan time.Duration) (int, error)

	// Stats reports current channel depths.
	Stats(ctx context.Context) (QueueStats, error)

	Close() error
}
