package translator

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/oukeidos/pgnct/internal/apperrors"
)

// retryBaseDelay scales every backoff. Tests shrink it.
var retryBaseDelay = time.Second

// retryDecision reports whether a failed attempt should be repeated and how
// long to wait first. Only network failures and rate limiting are retried.
// The delay doubles per attempt, doubles again for rate limits, is capped at
// 20x the base and gets up to one base unit of jitter.
func retryDecision(ctx context.Context, err error, attempt, maxAttempts int) (bool, time.Duration) {
	if err == nil || attempt >= maxAttempts {
		return false, 0
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false, 0
	}
	if !apperrors.IsRetryable(err) {
		return false, 0
	}

	maxBackoff := 20 * retryBaseDelay
	backoff := retryBaseDelay << (attempt - 1)
	if apperrors.IsRateLimit(err) {
		backoff *= 2
	}
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	var jitter time.Duration
	if retryBaseDelay > 0 {
		jitter = time.Duration(rand.Int63n(int64(retryBaseDelay)))
	}
	return true, backoff + jitter
}
