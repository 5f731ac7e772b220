package core

import (
	"fmt"
	"time"
)

// RateLimitError reports an exhausted reputation-oracle quota. Unlike other
// oracle failures it is surfaced to callers of the synchronous check path as
// a retryable condition instead of being absorbed into a fallback score.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("reputation quota exhausted, try again in %d seconds", int(e.RetryAfter.Seconds()+0.5))
}
