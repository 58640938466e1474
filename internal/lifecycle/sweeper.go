package lifecycle

import (
	"context"
	"sync"
	"time"

	"auction-platform/utils"
)

// Sweeper runs the expiry sweep on a fixed interval. It is a plain
// background worker: construct it with the lifecycle service, Start it once
// and Stop it on shutdown. Overlapping or redundant sweeps are harmless
// because ending an ended auction is a no-op and settlement is idempotent.
type Sweeper struct {
	service  *Service
	interval time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewSweeper creates a sweeper ticking at the given interval
func NewSweeper(service *Service, interval time.Duration) *Sweeper {
	return &Sweeper{
		service:  service,
		interval: interval,
	}
}

// Start launches the sweep loop. Calling Start twice without an intervening
// Stop is not supported.
func (s *Sweeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	utils.Info("starting auction sweeper", map[string]any{"interval": s.interval.String()})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				utils.Info("auction sweeper stopped", nil)
				return
			case <-ticker.C:
				swept, err := s.service.SweepExpired(time.Now().UTC())
				if err != nil {
					utils.Error("sweep pass finished with errors", map[string]any{"error": err.Error()})
				}
				if swept > 0 {
					utils.Info("sweep pass ended auctions", map[string]any{"count": swept})
				}
			}
		}
	}()
}

// Stop terminates the sweep loop and waits for the in-flight pass to finish
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
}
