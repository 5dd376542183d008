package redilimit

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// transactionOps is the number of commands in the window-slide
// transaction: prune, record, count, expire.
const transactionOps = 4

// CheckKey runs the sliding-window check for an already-resolved identity
// key. The prune → record → count → expire sequence executes as a single
// indivisible transaction on the store, so concurrent checks for the same
// key serialize there and never observe a torn count.
func (l *Limiter) CheckKey(ctx context.Context, key string) (*Result, error) {
	now := l.rl.cfg.now()
	ts := float64(now.UnixNano()) / float64(time.Second)

	windowStart := ts - float64(l.opts.TotalSeconds())
	if windowStart < 0 {
		windowStart = 0
	}

	pipe := l.rl.store.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", formatScore(windowStart))
	// The stringified timestamp is the member, so distinct requests stay
	// distinct. Two requests on the identical float second collapse into
	// one member; the resulting undercount is a documented approximation.
	pipe.ZAdd(ctx, key, ts, formatScore(ts))
	pipe.ZCard(ctx, key)
	// TTL margin is tied to the base seconds component, not the total
	// window, so high window-hours configurations still self-expire.
	pipe.Expire(ctx, key, time.Duration(l.opts.WindowSeconds+1)*time.Second)

	replies, err := pipe.Exec(ctx)
	if err != nil {
		l.rl.cfg.logger.Error().Err(err).Str("key", key).
			Msg("rate limit transaction failed")
		return nil, &BackendError{Key: key, Err: err}
	}
	if len(replies) < transactionOps {
		err := fmt.Errorf("transaction returned %d results, want %d", len(replies), transactionOps)
		l.rl.cfg.logger.Error().Err(err).Str("key", key).
			Msg("malformed rate limit transaction result")
		return nil, &BackendError{Key: key, Err: err}
	}

	// Count includes the entry recorded for this request.
	count := replies[2]
	total := int64(l.opts.TotalSeconds())

	// Quota is inclusive: exactly at the limit is still allowed.
	allowed := count <= int64(l.opts.MaxRequests)
	resetTime := now.Unix() + total

	result := &Result{
		Allowed:         allowed,
		CurrentRequests: count,
		Limit:           int64(l.opts.MaxRequests),
		WindowSeconds:   total,
		ResetTime:       resetTime,
	}
	if !allowed {
		retryAfter := resetTime - now.Unix()
		result.RetryAfter = &retryAfter
	}
	return result, nil
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
