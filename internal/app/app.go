package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"housepulse/internal/config"
	"housepulse/internal/dataprocessing"
	apierrors "housepulse/internal/errors"
	"housepulse/internal/exporter"
	"housepulse/internal/geo"
	"housepulse/internal/infrastructure"
	customMiddleware "housepulse/internal/middleware"
	"housepulse/internal/services"
	handlers "housepulse/internal/transport/http"
	"housepulse/internal/websocket"
	"housepulse/pkg/contracts"
	"housepulse/pkg/contracts/domain"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.Metrics
	Pipeline      *dataprocessing.Pipeline
	Dashboard     *services.DashboardService
	Watcher       *services.DatasetWatcher
	Hub           *websocket.Hub
	HealthService *services.HealthService
	Exporter      *exporter.ViewExporter
	ErrorHandler  *apierrors.ErrorHandler
}

// NewApplication wires every component from cfg. The logger is expected to
// have been initialized by the caller.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version))

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(
		infrastructure.NewOTelConfig(cfg.Telemetry, contracts.Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the pipeline and the services around it
func (a *Application) initializeServices() error {
	table := geo.SwissLocalities()
	if file := a.Config.Pipeline.CoordinatesFile; file != "" {
		loaded, err := geo.LoadCoordinateTable(a.Paths.Resolve(file))
		if err != nil {
			return apierrors.NewConfigError("cannot load coordinate table", err).
				WithContext("path", file)
		}
		table = loaded
		a.Logger.Info("Coordinate table loaded",
			slog.String("path", file),
			slog.Int("localities", table.Len()))
	}

	a.Pipeline = dataprocessing.NewPipeline(dataprocessing.Options{
		TopN:        a.Config.Pipeline.TopN,
		OutlierTrim: a.Config.Pipeline.OutlierTrim,
		Sheet:       a.Config.Pipeline.Sheet,
	}, table, a.Logger).WithTelemetry(a.OTelProviders.Tracer, a.Metrics)

	a.Dashboard = services.NewDashboardService(a.Pipeline, a.InputPath(), a.Metrics, a.Logger)

	a.Hub = websocket.NewHub(a.Logger)
	a.Dashboard.OnPublish(func(ctx context.Context, snap *services.Snapshot) {
		a.Hub.Broadcast(ctx, websocket.TypeSnapshot, snap.Event())
	})

	if interval := a.Config.Pipeline.WatchInterval; interval > 0 && a.InputPath() != "" {
		a.Watcher = services.NewDatasetWatcher(a.Dashboard, interval, a.Logger)
	}

	a.HealthService = services.NewHealthService(contracts.Version, a.Paths, a.Dashboard, a.Logger)
	a.Exporter = exporter.NewViewExporter(a.Paths, a.Logger)

	return nil
}

// InputPath returns the configured input file resolved against the base dir
func (a *Application) InputPath() string {
	if a.Config.Pipeline.InputFile == "" {
		return ""
	}
	return a.Paths.Resolve(a.Config.Pipeline.InputFile)
}

// setupRouter configures middleware and routes.
// Order: RequestID -> RealIP -> OTel -> Logger -> Recoverer -> headers -> CORS -> rate limit
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)

	// Scrapes stay outside tracing and request logging
	r.Method(http.MethodGet, "/metrics",
		handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.ErrorHandler))

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Server.AllowedOrigins,
		}))

		if rl := a.Config.Server.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.ErrorHandler, a.Logger).Handler)
		}

		// Live updates stay outside the API timeout
		r.Handle("/ws", websocket.NewHandler(a.Hub, a.Config.Server.AllowedOrigins, a.Logger))

		a.setupAPIRoutes(r)
	})

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.Router = r
}

func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(a.Config.Server.WriteTimeout))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/version", healthHandler.Version)

		viewsHandler := handlers.NewViewsHandler(a.Dashboard, a.Logger, a.ErrorHandler)
		r.Mount("/views", viewsHandler.Routes())
	})
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:           a.Router,
		ReadTimeout:       a.Config.Server.ReadTimeout,
		ReadHeaderTimeout: a.Config.Server.ReadTimeout,
		WriteTimeout:      a.Config.Server.WriteTimeout,
		IdleTimeout:       a.Config.Server.IdleTimeout,
	}
}

// Export runs the pipeline once on input and writes the views in formats
func (a *Application) Export(ctx context.Context, input string, formats []string) (*domain.Views, []string, error) {
	if input == "" {
		input = a.InputPath()
	}
	if len(formats) == 0 {
		formats = a.Config.Pipeline.ExportFormats
	}

	views, err := a.Pipeline.Run(ctx, input)
	if err != nil {
		return nil, nil, err
	}

	files, err := a.Exporter.Export(ctx, views, formats)
	return views, files, err
}

// Start loads the first snapshot and starts serving on ln. A failed first
// load is logged and the server starts anyway, reporting not ready until a
// reload succeeds.
func (a *Application) Start(ctx context.Context, ln net.Listener) <-chan error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("address", ln.Addr().String()),
		slog.String("input_file", a.InputPath()),
		slog.String("level", a.Config.Logging.Level))

	a.Hub.Start()

	if _, err := a.Dashboard.Reload(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Initial dataset load failed",
			slog.String("error", err.Error()))
	}

	if a.Watcher != nil {
		a.Watcher.Start(context.WithoutCancel(ctx))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://%s", ln.Addr().String())))

	return errCh
}

// Stop shuts the server down and flushes telemetry
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if a.Watcher != nil {
		a.Watcher.Stop()
	}
	// Hijacked websocket connections are not closed by Shutdown
	a.Hub.Stop()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.Server.Addr, err)
	}

	errCh := a.Start(ctx, ln)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	}

	return a.Stop(ctx)
}
