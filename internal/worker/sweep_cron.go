package worker

// sweep_cron.go
// Background goroutine that periodically marks pending installments past
// their due date as overdue, so due-date state never depends on a request
// happening to read the row.

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// SweepFunc marks due installments and reports how many changed state.
type SweepFunc func(ctx context.Context) (int64, error)

// StartOverdueSweep launches a goroutine that runs the sweep on the given
// interval. It respects the context for graceful shutdown.
func StartOverdueSweep(ctx context.Context, sweep SweepFunc, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("overdue_sweep: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("overdue_sweep: shutting down")
				return
			case <-ticker.C:
				marked, err := sweep(ctx)
				if err != nil {
					log.Error().Err(err).Msg("overdue_sweep: sweep failed")
					continue
				}
				if marked > 0 {
					log.Info().Int64("marked", marked).Msg("overdue_sweep: installments marked overdue")
				}
			}
		}
	}()
}
