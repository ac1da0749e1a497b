package eastmoney

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// MinPageDelay is the floor for the pause between history pages.
const MinPageDelay = 100 * time.Millisecond

// PagePolicy paces and retries paginated history requests.
type PagePolicy struct {
	PageSize       int
	Delay          time.Duration
	MaxRetries     uint64
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// MaxPages stops a runaway loop if the upstream never reports an end
	MaxPages int
}

// DefaultPagePolicy returns the pacing used against the public endpoint.
func DefaultPagePolicy() PagePolicy {
	return PagePolicy{
		PageSize:       50,
		Delay:          200 * time.Millisecond,
		MaxRetries:     2,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		MaxPages:       500,
	}
}

// normalize fills zero values from the defaults and enforces MinPageDelay.
func (p PagePolicy) normalize() PagePolicy {
	def := DefaultPagePolicy()
	if p.PageSize <= 0 {
		p.PageSize = def.PageSize
	}
	if p.Delay < MinPageDelay {
		p.Delay = MinPageDelay
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = def.InitialBackoff
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	if p.MaxPages <= 0 {
		p.MaxPages = def.MaxPages
	}
	return p
}

// Wait sleeps for the inter-page delay or until ctx is done.
func (p PagePolicy) Wait(ctx context.Context) error {
	timer := time.NewTimer(p.normalize().Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry runs op until it succeeds, returns a permanent error, MaxRetries
// retries are spent, or ctx is done. The last error is returned.
func (p PagePolicy) Retry(ctx context.Context, op func() error) error {
	p = p.normalize()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialBackoff
	b.MaxInterval = p.MaxBackoff
	b.MaxElapsedTime = 0

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, p.MaxRetries), ctx))
}

// permanent marks err as not worth retrying.
func permanent(err error) error {
	return backoff.Permanent(err)
}
