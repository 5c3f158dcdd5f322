package sessionauth

import (
	"context"
	"time"

	"github.com/MrEthical07/sessionauth/internal/logging"
)

func (e *Engine) startSweeper(interval time.Duration) {
	e.sweepStop = make(chan struct{})
	e.sweepDone = make(chan struct{})

	go func() {
		defer close(e.sweepDone)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-e.sweepStop:
				return
			case <-ticker.C:
				e.sweepOnce()
			}
		}
	}()
}

func (e *Engine) sweepOnce() {
	// Bounded so a wedged lock holder cannot stall Close for long.
	ctx, cancel := context.WithTimeout(context.Background(), e.config.Storage.LockTimeout)
	defer cancel()

	n, err := e.SweepExpired(ctx)
	if err != nil {
		logging.LogError(e.logger, "session sweep failed", err)
		return
	}
	if n > 0 {
		e.logger.Info("expired sessions swept", "count", n)
	}
}
