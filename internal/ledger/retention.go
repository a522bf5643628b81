package ledger

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StartRetentionLoop purges entries older than the retention window on a
// fixed interval until ctx is cancelled. Purge failures are logged and the
// loop keeps going; retention is cleanup, not a correctness invariant.
func (l *Ledger) StartRetentionLoop(ctx context.Context, interval, window time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().UTC().Add(-window)
				purged, err := l.repo.PurgeOlderThan(ctx, cutoff)
				if err != nil {
					log.Warn().Err(err).Msg("ledger: retention purge failed")
					continue
				}
				if purged > 0 {
					log.Info().Int64("purged", purged).Time("cutoff", cutoff).Msg("ledger: purged expired audit entries")
				}
			}
		}
	}()
}
