package workers

import (
	"context"
	"log/slog"
	"pajal/contract"
	"time"
)

// ClockWorker advances the simulated clock by step every interval. Each
// tick runs one status recomputation pass in the core.
type ClockWorker struct {
	log      *slog.Logger
	ticker   contract.Ticker
	interval time.Duration
	step     time.Duration
}

func NewClockWorker(log *slog.Logger, ticker contract.Ticker, interval, step time.Duration) *ClockWorker {
	return &ClockWorker{log: log, ticker: ticker, interval: interval, step: step}
}

func (w *ClockWorker) Run(ctx context.Context) error {
	w.log.Info("Starting clock worker", "interval", w.interval, "step", w.step)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			now := w.ticker.Tick(ctx, w.step)
			w.log.Debug("Clock ticked", "now", now)
		}
	}
}
