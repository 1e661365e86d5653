// Package ratelimit provides a token-bucket limiter consulted by the
// HTTP transport before each outbound call.
package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a global request rate with optional per-endpoint
// buckets created on demand at the same rate.
type Limiter struct {
	global   *rate.Limiter
	buckets  sync.Map
	requests int
	period   time.Duration

	total   atomic.Int64
	allowed atomic.Int64
	denied  atomic.Int64
}

// New creates a Limiter allowing the given number of requests per period.
func New(requests int, period time.Duration) *Limiter {
	rps := float64(requests) / period.Seconds()
	return &Limiter{
		global:   rate.NewLimiter(rate.Limit(rps), requests),
		requests: requests,
		period:   period,
	}
}

// Wait blocks until the global limiter admits a request or the context
// is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	l.total.Add(1)
	if err := l.global.Wait(ctx); err != nil {
		l.denied.Add(1)
		return err
	}
	l.allowed.Add(1)
	return nil
}

// WaitEndpoint blocks on both the global limiter and the named
// endpoint's bucket.
func (l *Limiter) WaitEndpoint(ctx context.Context, endpoint string) error {
	if err := l.Wait(ctx); err != nil {
		return err
	}
	return l.bucket(endpoint).Wait(ctx)
}

// Allow reports whether the global limiter admits a request right now.
func (l *Limiter) Allow() bool {
	l.total.Add(1)
	if l.global.Allow() {
		l.allowed.Add(1)
		return true
	}
	l.denied.Add(1)
	return false
}

func (l *Limiter) bucket(endpoint string) *rate.Limiter {
	if v, ok := l.buckets.Load(endpoint); ok {
		return v.(*rate.Limiter)
	}
	rps := float64(l.requests) / l.period.Seconds()
	limiter := rate.NewLimiter(rate.Limit(rps), l.requests)
	actual, _ := l.buckets.LoadOrStore(endpoint, limiter)
	return actual.(*rate.Limiter)
}

// Snapshot is a point-in-time capture of limiter statistics.
type Snapshot struct {
	// Total is the number of admission checks performed.
	Total int64
	// Allowed is the number of requests admitted.
	Allowed int64
	// Denied is the number of requests rejected or cancelled while waiting.
	Denied int64
}

// Stats returns a snapshot of the limiter counters.
func (l *Limiter) Stats() Snapshot {
	return Snapshot{
		Total:   l.total.Load(),
		Allowed: l.allowed.Load(),
		Denied:  l.denied.Load(),
	}
}
