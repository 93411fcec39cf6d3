package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/buzzmon/internal/common"
	"github.com/ternarybob/buzzmon/internal/interfaces"
	"github.com/ternarybob/buzzmon/internal/models"
)

// resultEnvelope wraps a published result with its publication time so the
// sweep can age out entries that no waiter ever claimed.
type resultEnvelope struct {
	Result      models.ClassificationResult `json:"result"`
	PublishedAt time.Time                   `json:"published_at"`
}

// BadgerBroker implements a durable job broker on BadgerDB.
//
// Key layout:
//
//	q:<name>:req:<seq>:<job_id> -> Job          (request channel, FIFO by seq)
//	q:<name>:res:<job_id>       -> envelope     (result channel, claimed by id)
//
// The monotonic sequence in the request key gives FIFO iteration order;
// results are a multiset keyed by job ID from which one entry is atomically
// claimed and removed on match.
type BadgerBroker struct {
	db           *badgerdb.DB
	seq          *badgerdb.Sequence
	name         string
	pollInterval time.Duration
	logger       arbor.ILogger
}

// NewBadgerBroker creates a Badger-backed job broker
func NewBadgerBroker(db *badgerdb.DB, queueName string, pollInterval time.Duration, logger arbor.ILogger) (*BadgerBroker, error) {
	if db == nil {
		return nil, errors.New("badger db is required")
	}
	if queueName == "" {
		return nil, errors.New("queue name is required")
	}
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}

	seq, err := db.GetSequence([]byte(fmt.Sprintf("q:%s:seq", queueName)), 100)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue sequence: %w", err)
	}

	return &BadgerBroker{
		db:           db,
		seq:          seq,
		name:         queueName,
		pollInterval: pollInterval,
		logger:       logger,
	}, nil
}

func (b *BadgerBroker) reqPrefix() []byte {
	return []byte(fmt.Sprintf("q:%s:req:", b.name))
}

func (b *BadgerBroker) reqKey(seq uint64, jobID string) []byte {
	return []byte(fmt.Sprintf("q:%s:req:%020d:%s", b.name, seq, jobID))
}

func (b *BadgerBroker) resPrefix() []byte {
	return []byte(fmt.Sprintf("q:%s:res:", b.name))
}

func (b *BadgerBroker) resKey(jobID string) []byte {
	return []byte(fmt.Sprintf("q:%s:res:%s", b.name, jobID))
}

// Enqueue generates a job ID and pushes the job onto the request channel
func (b *BadgerBroker) Enqueue(ctx context.Context, item models.ContentItem, meta models.JobMeta) (string, error) {
	jobID := common.NewJobID()

	job := models.Job{
		JobID: jobID,
		Item:  item,
		Meta:  meta,
	}

	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %w", err)
	}

	seq, err := b.seq.Next()
	if err != nil {
		return "", fmt.Errorf("failed to advance queue sequence: %w", err)
	}

	err = b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(b.reqKey(seq, jobID), data)
	})
	if err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}

	b.logger.Debug().
		Str("job_id", jobID).
		Str("item_id", item.ID).
		Msg("Job enqueued")

	return jobID, nil
}

// Dequeue blocks up to timeout for the next job in FIFO order.
// Returns ErrNoJob when the wait lapses with nothing available, which
// drives the idle-poll loop in each worker.
func (b *BadgerBroker) Dequeue(ctx context.Context, timeout time.Duration) (*models.Job, error) {
	deadline := time.Now().Add(timeout)

	for {
		job, err := b.tryDequeue()
		if err == nil && job != nil {
			return job, nil
		}
		if err != nil && !errors.Is(err, models.ErrNoJob) {
			return nil, err
		}

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

// tryDequeue claims the oldest request-channel entry in a single transaction.
// Concurrent workers racing for the same key surface as a transaction
// conflict, which is treated as "no job this tick".
func (b *BadgerBroker) tryDequeue() (*models.Job, error) {
	var job models.Job
	found := false

	err := b.db.Update(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = true
		prefix := b.reqPrefix()

		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(prefix)
		if !it.ValidForPrefix(prefix) {
			return nil
		}

		item := it.Item()
		key := item.KeyCopy(nil)

		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &job)
		}); err != nil {
			// Malformed entry: drop it so it cannot wedge the queue
			b.logger.Warn().Err(err).Str("key", string(key)).Msg("Dropping malformed job entry")
			return txn.Delete(key)
		}

		found = true
		return txn.Delete(key)
	})

	if err != nil {
		if errors.Is(err, badgerdb.ErrConflict) {
			return nil, models.ErrNoJob
		}
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}
	if !found {
		return nil, models.ErrNoJob
	}

	return &job, nil
}

// PublishResult appends a result to the result channel
func (b *BadgerBroker) PublishResult(ctx context.Context, result models.JobResult) error {
	if result.JobID == "" {
		return errors.New("job ID is required")
	}

	env := resultEnvelope{
		Result:      result.Result,
		PublishedAt: time.Now(),
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	err = b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(b.resKey(result.JobID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to publish result: %w", err)
	}

	b.logger.Debug().
		Str("job_id", result.JobID).
		Int("log_level", result.Result.LogLevel).
		Msg("Result published")

	return nil
}

// ClaimResult atomically removes and returns the result for jobID
func (b *BadgerBroker) ClaimResult(ctx context.Context, jobID string) (*models.ClassificationResult, bool, error) {
	var env resultEnvelope
	found := false

	err := b.db.Update(func(txn *badgerdb.Txn) error {
		key := b.resKey(jobID)

		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badgerdb.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &env)
		}); err != nil {
			return err
		}

		found = true
		return txn.Delete(key)
	})

	if err != nil {
		if errors.Is(err, badgerdb.ErrConflict) {
			// Another waiter claimed it first
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to claim result: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	return &env.Result, true, nil
}

// SweepResults deletes unclaimed results older than the given age
func (b *BadgerBroker) SweepResults(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	var expired [][]byte

	err := b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		prefix := b.resPrefix()

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var env resultEnvelope
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &env)
			}); err != nil {
				expired = append(expired, item.KeyCopy(nil))
				continue
			}
			if env.PublishedAt.Before(cutoff) {
				expired = append(expired, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan results for sweep: %w", err)
	}

	swept := 0
	for _, key := range expired {
		err := b.db.Update(func(txn *badgerdb.Txn) error {
			return txn.Delete(key)
		})
		if err != nil {
			b.logger.Warn().Err(err).Str("key", string(key)).Msg("Failed to sweep result entry")
			continue
		}
		swept++
	}

	if swept > 0 {
		b.logger.Info().
			Int("swept", swept).
			Dur("older_than", olderThan).
			Msg("Swept unclaimed results")
	}

	return swept, nil
}

// Stats reports current channel depths
func (b *BadgerBroker) Stats(ctx context.Context) (interfaces.QueueStats, error) {
	var stats interfaces.QueueStats

	err := b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		reqPrefix := b.reqPrefix()
		for it.Seek(reqPrefix); it.ValidForPrefix(reqPrefix); it.Next() {
			stats.PendingJobs++
		}

		resPrefix := b.resPrefix()
		for it.Seek(resPrefix); it.ValidForPrefix(resPrefix); it.Next() {
			stats.UnclaimedResults++
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to collect queue stats: %w", err)
	}

	return stats, nil
}

// Close releases the queue sequence. The database itself is owned by the
// storage layer and closed there.
func (b *BadgerBroker) Close() error {
	if b.seq != nil {
		return b.seq.Release()
	}
	return nil
}

// Ensure BadgerBroker implements JobBroker
var _ interfaces.JobBroker = (*BadgerBroker)(nil)
