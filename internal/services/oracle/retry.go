package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
)

// completeWithRetry runs a completion call with bounded retries and a fixed
// backoff. Only transport-level failures are retried; a completion that
// arrives but parses badly is handled by the caller, since re-asking the
// model the same question rarely fixes its formatting.
func completeWithRetry(ctx context.Context, logger arbor.ILogger, provider string, maxRetries int, backoff time.Duration, call func(context.Context) (string, error)) (string, error) {
	if maxRetries <= 0 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		text, err := call(ctx)
		if err == nil {
			return text, nil
		}
		lastErr = err

		logger.Warn().
			Err(err).
			Str("provider", provider).
			Int("attempt", attempt).
			Int("max_retries", maxRetries).
			Msg("Topic oracle call failed")

		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return "", fmt.Errorf("%s completion failed after %d attempts: %w", provider, maxRetries, lastErr)
}
