// Package services implements the business logic layer of HousePulse.
// It sits between the HTTP handlers and the data pipeline.
//
// # Available Services
//
//   - DashboardService: Runs the pipeline and publishes view snapshots
//   - HealthService: Provides liveness, readiness and version information
//   - DatasetWatcher: Reloads the dashboard when the input file changes
//
// # Snapshots
//
// DashboardService keeps the current *Snapshot in an atomic pointer. Readers
// call Snapshot or View and never block. Reload collapses concurrent callers
// into one pipeline run and swaps the pointer only when the run succeeds:
//
//	svc := services.NewDashboardService(pipeline, cfg.Pipeline.InputFile, metrics, logger)
//	if _, err := svc.Reload(ctx); err != nil {
//	    // previous snapshot, if any, is still served
//	}
//	snap, err := svc.Snapshot(ctx)
//
// Each snapshot carries the XXH3 fingerprint of the input file, which the
// HTTP layer uses as its ETag. Subscribers registered with OnPublish run
// after every successful reload.
//
// # Error Handling
//
//   - errors.ErrDatasetUnavailable before the first successful run
//   - load errors from the pipeline, unchanged
//   - ErrUnknownView for a view name other than bar, scatter or map
package services
