package cache

import (
	"context"
	"time"

	"github.com/fwojciec/mtgrules"
)

// RetryDelays returns n exponential backoff delays starting at one second:
// 1s, 2s, 4s and so on.
func RetryDelays(n int) []time.Duration {
	delays := make([]time.Duration, 0, max(n, 0))
	d := time.Second
	for range n {
		delays = append(delays, d)
		d *= 2
	}
	return delays
}

// fetchWithRetry calls fetch until it succeeds, waiting delays[i] before
// attempt i+2. Only transport errors are retried; a response with any
// status is returned as is.
func (m *Manager) fetchWithRetry(ctx context.Context, req *mtgrules.Request) (*mtgrules.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= len(m.retryDelays); attempt++ {
		if attempt > 0 {
			m.logger.Debug("retrying fetch", "url", req.URL, "attempt", attempt+1, "err", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(m.retryDelays[attempt-1]):
			}
		}

		resp, err := m.fetcher.Fetch(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}
