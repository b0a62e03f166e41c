package tasks

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RunPeriodic calls fn every interval until ctx is done. Errors are logged
// and do not stop the loop.
func RunPeriodic(ctx context.Context, name string, interval time.Duration, logger zerolog.Logger, fn func(ctx context.Context) error) {
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
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				logger.Warn().Err(err).Str("task", name).Msg("periodic task failed")
			}
		}
	}
}
