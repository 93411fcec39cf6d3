package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/buzzmon/internal/common"
	"github.com/ternarybob/buzzmon/internal/interfaces"
	"github.com/ternarybob/buzzmon/internal/models"
	"github.com/ternarybob/buzzmon/internal/services/filter"
)

// WorkerPool drains the request channel through the classification pipeline
// and publishes results. Each worker is a dequeue loop; a job that fails to
// process is logged and skipped so one bad item cannot stall the queue.
type WorkerPool struct {
	broker         interfaces.JobBroker
	pipeline       *filter.Service
	records        interfaces.RecordStorage
	logger         arbor.ILogger
	concurrency    int
	dequeueTimeout time.Duration
	pollInterval   time.Duration
	stagger        bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorkerPool creates a worker pool from configuration. records may be nil
// when audit logging is disabled.
func NewWorkerPool(cfg *common.QueueConfig, broker interfaces.JobBroker, pipeline *filter.Service, records interfaces.RecordStorage, logger arbor.ILogger) (*WorkerPool, error) {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	dequeueTimeout, err := cfg.DequeueTimeoutDuration()
	if err != nil {
		return nil, err
	}
	pollInterval, err := cfg.PollIntervalDuration()
	if err != nil {
		return nil, err
	}

	return &WorkerPool{
		broker:         broker,
		pipeline:       pipeline,
		records:        records,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
		pollInterval:   pollInterval,
		stagger:        cfg.StaggerWorkers,
	}, nil
}

// Start launches the workers. Staggering spreads their first dequeue across
// the poll interval so they do not hammer the store in lockstep.
func (p *WorkerPool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)

		var delay time.Duration
		if p.stagger && p.concurrency > 1 {
			delay = time.Duration(i) * p.pollInterval / time.Duration(p.concurrency)
		}

		go p.worker(ctx, i, delay)
	}

	p.logger.Info().
		Int("concurrency", p.concurrency).
		Dur("dequeue_timeout", p.dequeueTimeout).
		Msg("Worker pool started")
}

// Stop signals all workers and waits for them to finish their current job
func (p *WorkerPool) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.wg.Wait()
	p.logger.Info().Msg("Worker pool stopped")
}

func (p *WorkerPool) worker(ctx context.Context, id int, startDelay time.Duration) {
	defer p.wg.Done()

	if startDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(startDelay):
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.broker.Dequeue(ctx, p.dequeueTimeout)
		if err != nil {
			if errors.Is(err, models.ErrNoJob) || errors.Is(err, context.Canceled) {
				continue
			}
			p.logger.Error().Err(err).Int("worker", id).Msg("Dequeue failed")
			continue
		}

		p.process(ctx, id, job)
	}
}

// process runs one job through the pipeline and publishes its result.
// Publish failures are logged; the waiter for that job will time out.
func (p *WorkerPool) process(ctx context.Context, workerID int, job *models.Job) {
	start := time.Now()

	result, fromCache := p.pipeline.Classify(ctx, job.Item)

	if err := p.broker.PublishResult(ctx, models.JobResult{
		JobID:  job.JobID,
		Result: result,
	}); err != nil {
		p.logger.Error().
			Err(err).
			Int("worker", workerID).
			Str("job_id", job.JobID).
			Msg("Failed to publish result")
		return
	}

	p.logger.Info().
		Int("worker", workerID).
		Str("job_id", job.JobID).
		Str("item_id", job.Item.ID).
		Int("log_level", result.LogLevel).
		Bool("from_cache", fromCache).
		Dur("elapsed", time.Since(start)).
		Msg("Job processed")

	p.saveRecord(ctx, job, result, fromCache)
}

func (p *WorkerPool) saveRecord(ctx context.Context, job *models.Job, result models.ClassificationResult, fromCache bool) {
	if p.records == nil || result.Error != "" {
		return
	}

	record := &models.ClassificationRecord{
		JobID:          job.JobID,
		ItemID:         job.Item.ID,
		TopicName:      job.Item.TopicName,
		InputType:      job.Item.Type,
		Sentiment:      result.Sentiment,
		LogLevel:       result.LogLevel,
		CrisisKeywords: result.CrisisKeywords,
		FromCache:      fromCache,
		CreatedAt:      time.Now(),
	}

	if err := p.records.SaveRecord(ctx, record); err != nil {
		p.logger.Warn().Err(err).Str("job_id", job.JobID).Msg("Failed to save classification record")
	}
}
