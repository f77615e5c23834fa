package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// minBurst keeps small limits from degrading into many tiny reads
const minBurst = 64 * 1024

// Limiter is a token bucket shared by every copy of one merge.
// A nil *Limiter means unlimited.
type Limiter struct {
	bytesPerSecond int64
	bucket         *rate.Limiter
}

// NewLimiter returns a limiter for bytesPerSecond, or nil when it is not positive
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	burst := bytesPerSecond
	if burst < minBurst {
		burst = minBurst
	}
	return &Limiter{
		bytesPerSecond: bytesPerSecond,
		bucket:         rate.NewLimiter(rate.Limit(bytesPerSecond), int(burst)),
	}
}

// Rate returns the limit in bytes per second, 0 when unlimited
func (l *Limiter) Rate() int64 {
	if l == nil {
		return 0
	}
	return l.bytesPerSecond
}

// Burst is the largest single charge the limiter accepts
func (l *Limiter) Burst() int {
	if l == nil {
		return 0
	}
	return l.bucket.Burst()
}

func (l *Limiter) String() string {
	return FormatBandwidth(l.Rate())
}

// WaitN blocks until n bytes may pass. Charges above one burst are capped.
// It fails early when ctx would expire before the bucket refills.
func (l *Limiter) WaitN(ctx context.Context, n int) error {
	if l == nil || n <= 0 {
		return ctx.Err()
	}
	if burst := l.bucket.Burst(); n > burst {
		n = burst
	}
	return l.bucket.WaitN(ctx, n)
}
