package campaign

import (
	"time"
)

// retryBackoffStep is the per-attempt backoff unit: an item that has failed
// n attempts is rescheduled n*30s into the future.
const retryBackoffStep = 30 * time.Second

// NextAttempt returns when a failed item should be retried, given how many
// attempts it has already consumed. Pure function; the queue state machine
// around it is tested separately.
func NextAttempt(attempts int, now time.Time) time.Time {
	if attempts < 1 {
		attempts = 1
	}
	return now.Add(time.Duration(attempts) * retryBackoffStep)
}
