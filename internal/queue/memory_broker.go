package queue

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/buzzmon/internal/common"
	"github.com/ternarybob/buzzmon/internal/interfaces"
	"github.com/ternarybob/buzzmon/internal/models"
)

// MemoryBroker is an in-process JobBroker used by tests and by deployments
// that do not need durability across restarts. Semantics match BadgerBroker:
// FIFO request channel, claim-once result channel.
type MemoryBroker struct {
	mu           sync.Mutex
	jobs         []models.Job
	results      map[string]resultEnvelope
	pollInterval time.Duration
	closed       bool
}

// NewMemoryBroker creates an in-memory job broker
func NewMemoryBroker(pollInterval time.Duration) *MemoryBroker {
	if pollInterval <= 0 {
		pollInterval = 10 * time.Millisecond
	}
	return &MemoryBroker{
		results:      make(map[string]resultEnvelope),
		pollInterval: pollInterval,
	}
}

func (b *MemoryBroker) Enqueue(ctx context.Context, item models.ContentItem, meta models.JobMeta) (string, error) {
	jobID := common.NewJobID()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.jobs = append(b.jobs, models.Job{
		JobID: jobID,
		Item:  item,
		Meta:  meta,
	})

	return jobID, nil
}

func (b *MemoryBroker) Dequeue(ctx context.Context, timeout time.Duration) (*models.Job, error) {
	deadline := time.Now().Add(timeout)

	for {
		b.mu.Lock()
		if len(b.jobs) > 0 {
			job := b.jobs[0]
			b.jobs = b.jobs[1:]
			b.mu.Unlock()
			return &job, nil
		}
		b.mu.Unlock()

		if time.Now().After(deadline) {
			return nil, models.ErrNoJob
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(b.pollInterval):
		}
	}
}

func (b *MemoryBroker) PublishResult(ctx context.Context, result models.JobResult) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.results[result.JobID] = resultEnvelope{
		Result:      result.Result,
		PublishedAt: time.Now(),
	}
	return nil
}

func (b *MemoryBroker) ClaimResult(ctx context.Context, jobID string) (*models.ClassificationResult, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	env, ok := b.results[jobID]
	if !ok {
		return nil, false, nil
	}
	delete(b.results, jobID)

	result := env.Result
	return &result, true, nil
}

func (b *MemoryBroker) SweepResults(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	b.mu.Lock()
	defer b.mu.Unlock()

	swept := 0
	for jobID, env := range b.results {
		if env.PublishedAt.Before(cutoff) {
			delete(b.results, jobID)
			swept++
		}
	}
	return swept, nil
}

func (b *MemoryBroker) Stats(ctx context.Context) (interfaces.QueueStats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return interfaces.QueueStats{
		PendingJobs:      len(b.jobs),
		UnclaimedResults: len(b.results),
	}, nil
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

var _ interfaces.JobBroker = (*MemoryBroker)(nil)
