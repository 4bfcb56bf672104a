// TheSet - Concert Setlist Voting and Show Data Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/theset

package sync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/theset/internal/logging"
	"github.com/tomtom215/theset/internal/metrics"
)

// maxErrorBodySize caps how much of an upstream error body is read.
const maxErrorBodySize = 64 * 1024

// maxBodySize caps successful upstream bodies.
const maxBodySize = 8 * 1024 * 1024

// retryPolicy controls retryableFetch.
type retryPolicy struct {
	service   string
	attempts  int
	baseDelay time.Duration
	maxDelay  time.Duration
}

func newRetryPolicy(service string, retries int) retryPolicy {
	if retries < 1 {
		retries = 1
	}
	return retryPolicy{
		service:   service,
		attempts:  retries,
		baseDelay: 500 * time.Millisecond,
		maxDelay:  30 * time.Second,
	}
}

// backoff returns the wait before retry number attempt (1-based).
func (p retryPolicy) backoff(attempt int) time.Duration {
	d := p.baseDelay << uint(attempt-1)
	if d <= 0 || d > p.maxDelay {
		return p.maxDelay
	}
	return d
}

// retryableFetch runs do until it returns a response that is not a 429 or a
// 5xx, or the attempts are used up. Transport errors are retried too. The
// last response is returned whatever its status, so callers decide how to
// report it; an error is returned only when no response was received.
func retryableFetch(ctx context.Context, p retryPolicy, do func(ctx context.Context) (*http.Response, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= p.attempts; attempt++ {
		start := time.Now()
		resp, err := do(ctx)
		if err != nil {
			metrics.RecordUpstreamRequest(p.service, 0, time.Since(start))
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if attempt == p.attempts {
				break
			}
			if werr := p.wait(ctx, attempt, p.backoff(attempt), err.Error()); werr != nil {
				return nil, werr
			}
			continue
		}

		metrics.RecordUpstreamRequest(p.service, resp.StatusCode, time.Since(start))

		if !isRetryableStatus(resp.StatusCode) || attempt == p.attempts {
			return resp, nil
		}

		delay := p.backoff(attempt)
		if resp.StatusCode == http.StatusTooManyRequests {
			if ra := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()); ra > 0 {
				delay = ra
				if delay > p.maxDelay {
					delay = p.maxDelay
				}
			}
		}
		drainAndClose(resp.Body)

		if werr := p.wait(ctx, attempt, delay, "HTTP "+strconv.Itoa(resp.StatusCode)); werr != nil {
			return nil, werr
		}
	}

	return nil, fmt.Errorf("%s request failed after %d attempts: %w", p.service, p.attempts, lastErr)
}

// wait sleeps for delay unless ctx ends first.
func (p retryPolicy) wait(ctx context.Context, attempt int, delay time.Duration, reason string) error {
	metrics.RecordUpstreamRetry(p.service)
	logging.Ctx(ctx).Debug().
		Str("service", p.service).
		Int("attempt", attempt).
		Dur("delay", delay).
		Str("reason", reason).
		Msg("Retrying upstream request")

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// parseRetryAfter reads a Retry-After header in seconds or HTTP-date form.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// readBodyForError reads at most maxErrorBodySize bytes of an error response.
func readBodyForError(body io.Reader) []byte {
	b, err := io.ReadAll(io.LimitReader(body, maxErrorBodySize))
	if err != nil {
		return nil
	}
	return b
}

// readBody reads a successful response body up to maxBodySize.
func readBody(body io.Reader) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return b, nil
}

func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxErrorBodySize))
	closeQuietly(body)
}

func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		logging.Debug().Err(err).Msg("Failed to close response body")
	}
}
