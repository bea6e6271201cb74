// Package app provides application initialization and lifecycle management
// for HousePulse. It wires configuration, logging, telemetry, the data
// pipeline, services and HTTP handlers together.
//
// # Initialization Flow
//
//  1. Resolve and create the data, reports and logs directories
//  2. Initialize OpenTelemetry and the metric instruments
//  3. Load the coordinate table (built-in or YAML override)
//  4. Build the pipeline, the dashboard, health and export services
//     and the websocket hub that pushes new snapshots
//  5. Set up middleware, routes and the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// For one-shot runs without a server, Export runs the pipeline and writes
// the configured export formats under the reports directory.
//
// # Graceful Shutdown
//
// Run handles SIGINT and SIGTERM: in-flight requests complete within the
// shutdown timeout, then telemetry providers are flushed.
//
// # Error Handling
//
// Initialization errors are returned to the caller. The package never calls
// os.Exit, leaving exit codes to cmd/housepulse.
package app
