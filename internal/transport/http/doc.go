// Package http implements the HTTP handlers of the HousePulse dashboard API.
// Handlers stay thin: they parse the request, call a service and render JSON
// with go-chi/render. Every error goes through errors.ErrorHandler and is
// returned as RFC 7807 problem details.
//
// # Endpoints
//
//	GET  /api/views                 all three views plus pipeline stats
//	GET  /api/views/{view}?limit=N  bar, scatter or map
//	POST /api/views/reload          re-run the pipeline on the input file
//	GET  /api/health                liveness
//	GET  /api/health/ready          503 until the first snapshot is published
//	GET  /api/version               build information
//	GET  /metrics                   Prometheus exposition
//	GET  /ws                        websocket feed of published snapshots
//
// # Caching
//
// View responses carry an ETag derived from the XXH3 fingerprint of the
// input file. A request whose If-None-Match matches gets 304 Not Modified
// without a body.
//
// # Testing
//
// Handlers depend on the ViewsService interface, so tests use a testify mock:
//
//	svc := new(MockViewsService)
//	svc.On("Snapshot", mock.Anything).Return(snap, nil)
//	NewViewsHandler(svc, logger, errorHandler).GetViews(rec, req)
package http
