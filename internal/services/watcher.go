package services

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DatasetWatcher polls the dashboard's input file and reloads the dashboard
// when its fingerprint no longer matches the published snapshot.
type DatasetWatcher struct {
	dashboard *DashboardService
	interval  time.Duration
	logger    *slog.Logger

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewDatasetWatcher creates a watcher checking every interval
func NewDatasetWatcher(dashboard *DashboardService, interval time.Duration, logger *slog.Logger) *DatasetWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetWatcher{
		dashboard: dashboard,
		interval:  interval,
		logger:    logger.With(slog.String("component", "dataset_watcher")),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs the polling loop until ctx is cancelled or Stop is called
func (w *DatasetWatcher) Start(ctx context.Context) {
	if !w.started.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer close(w.done)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.logger.InfoContext(ctx, "dataset watcher started",
			slog.String("input_file", w.dashboard.InputPath()),
			slog.Duration("interval", w.interval))

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case <-ticker.C:
				if _, err := w.Check(ctx); err != nil {
					w.logger.WarnContext(ctx, "dataset check failed", slog.String("error", err.Error()))
				}
			}
		}
	}()
}

// Stop ends the polling loop and waits for it to exit
func (w *DatasetWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	if w.started.Load() {
		<-w.done
	}
}

// Check reloads the dashboard if the input file changed since the last
// published snapshot. It reports whether a reload happened.
func (w *DatasetWatcher) Check(ctx context.Context) (bool, error) {
	fingerprint, err := Fingerprint(w.dashboard.InputPath())
	if err != nil {
		return false, err
	}

	if snap := w.dashboard.current.Load(); snap != nil && snap.Fingerprint == fingerprint {
		return false, nil
	}

	w.logger.InfoContext(ctx, "input file changed, reloading",
		slog.String("fingerprint", fingerprint))

	if _, err := w.dashboard.Reload(ctx); err != nil {
		return false, err
	}
	return true, nil
}
