package inspection

import (
	"context"
	"time"
)

// Sweeper is the part of Service the background loop needs.
type Sweeper interface {
	SweepStale(ctx context.Context) (int64, error)
}

// RunSweeper sweeps once immediately and then every interval until ctx is
// done. A non-positive interval sweeps once and returns.
func RunSweeper(ctx context.Context, s Sweeper, interval time.Duration) {
	_, _ = s.SweepStale(ctx)
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.SweepStale(ctx)
		}
	}
}
