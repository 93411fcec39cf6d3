package queue

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/buzzmon/internal/interfaces"
	"github.com/ternarybob/buzzmon/internal/models"
)

// ErrorTimeout is the error value carried by a result whose job did not
// complete within the wait window. Callers treat it as a terminal answer
// for the request; the job itself may still finish and be swept later.
const ErrorTimeout = "Timeout"

// Waiter polls the result channel for a specific job ID and converts a
// lapsed wait into a timeout result carrying the request's correlation
// fields, so the caller always gets an addressable answer.
type Waiter struct {
	broker       interfaces.JobBroker
	pollInterval time.Duration
	logger       arbor.ILogger
}

// NewWaiter creates a result waiter over the given broker
func NewWaiter(broker interfaces.JobBroker, pollInterval time.Duration, logger arbor.ILogger) *Waiter {
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}
	return &Waiter{
		broker:       broker,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Wait blocks until the result for jobID is claimed or timeout elapses.
// On timeout (or context cancellation) it returns a result with
// Error=Timeout echoing the job's correlation metadata.
func (w *Waiter) Wait(ctx context.Context, jobID string, meta models.JobMeta, timeout time.Duration) models.ClassificationResult {
	deadline := time.Now().Add(timeout)

	for {
		result, ok, err := w.broker.ClaimResult(ctx, jobID)
		if err != nil {
			w.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to poll for result")
		}
		if ok {
			return *result
		}

		if time.Now().After(deadline) {
			w.logger.Warn().
				Str("job_id", jobID).
				Str("item_id", meta.ID).
				Dur("timeout", timeout).
				Msg("Timed out waiting for result")
			return w.timeoutResult(meta)
		}

		select {
		case <-ctx.Done():
			return w.timeoutResult(meta)
		case <-time.After(w.pollInterval):
		}
	}
}

func (w *Waiter) timeoutResult(meta models.JobMeta) models.ClassificationResult {
	return models.ClassificationResult{
		ID:        meta.ID,
		TopicID:   meta.TopicID,
		TopicName: meta.TopicName,
		InputType: meta.Type,
		Error:     ErrorTimeout,
	}
}
