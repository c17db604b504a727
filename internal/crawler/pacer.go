package crawler

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out drain iterations by a fixed global delay. It does not
// distinguish between hosts.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer; a non-positive delay never blocks
func NewPacer(delay time.Duration) *Pacer {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Pacer{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next iteration may start or ctx is done
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
