package ratelimit

import (
	"context"
	"io"
)

// Reader charges every chunk it reads to a shared Limiter
type Reader struct {
	ctx     context.Context
	src     io.Reader
	limiter *Limiter
}

// NewReader wraps src; with a nil limiter src is returned unchanged
func NewReader(ctx context.Context, src io.Reader, limiter *Limiter) io.Reader {
	if limiter == nil {
		return src
	}
	return &Reader{ctx: ctx, src: src, limiter: limiter}
}

// Read reads at most one burst and then waits until the bytes read are paid for
func (r *Reader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	if burst := r.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}

	n, err := r.src.Read(p)
	if n > 0 {
		if werr := r.limiter.WaitN(r.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
