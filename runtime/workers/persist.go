package workers

import (
	"context"
	"log/slog"
	"pajal/contract"
	"time"
)

// PersistWorker saves the state whenever it is marked dirty. Saves are
// spaced by at least debounce so bursts of changes write once.
type PersistWorker struct {
	log         *slog.Logger
	snapshotter contract.Snapshotter
	debounce    time.Duration
}

func NewPersistWorker(log *slog.Logger, snapshotter contract.Snapshotter, debounce time.Duration) *PersistWorker {
	return &PersistWorker{log: log, snapshotter: snapshotter, debounce: debounce}
}

func (w *PersistWorker) Run(ctx context.Context) error {
	w.log.Info("Starting persist worker")
	dirty := w.snapshotter.Dirty()
	pending := false

	for {
		select {
		case <-ctx.Done():
			// Last save with a fresh context, ours is already cancelled.
			w.save(context.WithoutCancel(ctx))
			return ctx.Err()
		case <-dirty:
			pending = true
		}

		if w.debounce > 0 {
			select {
			case <-ctx.Done():
				continue
			case <-time.After(w.debounce):
			}
		}
		if pending {
			w.save(ctx)
			pending = false
		}
	}
}

func (w *PersistWorker) save(ctx context.Context) {
	if err := w.snapshotter.Persist(ctx); err != nil {
		w.log.Error("Failed to persist state", "error", err)
		return
	}
	w.log.Debug("State persisted")
}
