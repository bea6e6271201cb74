package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "housepulse/internal/errors"
	"housepulse/internal/middleware"
	"housepulse/internal/services"
	"housepulse/pkg/contracts/domain"
)

// maxViewLimit bounds the limit query parameter
const maxViewLimit = 1_000_000

// ViewsHandler serves the dashboard views with RFC 7807 errors
type ViewsHandler struct {
	service      ViewsService
	query        *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// viewsResponse is the body of GET /api/views
type viewsResponse struct {
	*domain.Views
	Fingerprint string    `json:"fingerprint"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// viewResponse is the body of GET /api/views/{view}
type viewResponse struct {
	View     string      `json:"view"`
	Data     interface{} `json:"data"`
	Count    int         `json:"count"`
	Total    int         `json:"total"`
	LoadedAt time.Time   `json:"loaded_at"`
}

// reloadResponse is the body of POST /api/views/reload
type reloadResponse struct {
	Status      string               `json:"status"`
	Fingerprint string               `json:"fingerprint"`
	LoadedAt    time.Time            `json:"loaded_at"`
	Stats       domain.PipelineStats `json:"stats"`
}

// NewViewsHandler creates a new views handler
func NewViewsHandler(service ViewsService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ViewsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ViewsHandler{
		service:      service,
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "views_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the views routes
func (h *ViewsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetViews)
	r.Post("/reload", h.Reload)
	r.Get("/{view}", h.GetView)

	return r
}

// GetViews handles GET /api/views
func (h *ViewsHandler) GetViews(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if notModified(w, r, snap.ETag()) {
		return
	}

	render.JSON(w, r, viewsResponse{
		Views:       snap.Views,
		Fingerprint: snap.Fingerprint,
		LoadedAt:    snap.LoadedAt,
	})
}

// GetView handles GET /api/views/{view}?limit=N
func (h *ViewsHandler) GetView(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "view")

	limit, ok := h.query.ValidateInt(w, r, "limit", 0, maxViewLimit, 0)
	if !ok {
		return
	}

	view, snap, err := h.service.View(r.Context(), name)
	if errors.Is(err, services.ErrUnknownView) {
		h.errorHandler.HandleError(w, r, apierrors.ViewNotFoundError(name))
		return
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if notModified(w, r, snap.ETag()) {
		return
	}

	data, count, total := limitView(view, limit)
	render.JSON(w, r, viewResponse{
		View:     name,
		Data:     data,
		Count:    count,
		Total:    total,
		LoadedAt: snap.LoadedAt,
	})
}

// Reload handles POST /api/views/reload
func (h *ViewsHandler) Reload(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Reload(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "views reloaded",
		slog.String("fingerprint", snap.Fingerprint))

	w.Header().Set("ETag", snap.ETag())
	render.JSON(w, r, reloadResponse{
		Status:      "reloaded",
		Fingerprint: snap.Fingerprint,
		LoadedAt:    snap.LoadedAt,
		Stats:       snap.Views.Stats,
	})
}

// notModified sets the validator headers and answers 304 when the client
// already holds the current representation
func notModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")

	header := r.Header.Get("If-None-Match")
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			w.WriteHeader(http.StatusNotModified)
			return true
		}
	}
	return false
}

// limitView truncates a view to its first n points; n == 0 keeps all
func limitView(view interface{}, n int) (interface{}, int, int) {
	switch points := view.(type) {
	case []domain.BarChartPoint:
		return truncate(points, n)
	case []domain.ScatterPoint:
		return truncate(points, n)
	case []domain.MapPoint:
		return truncate(points, n)
	default:
		return view, 0, 0
	}
}

func truncate[T any](points []T, n int) (interface{}, int, int) {
	total := len(points)
	if n > 0 && n < total {
		points = points[:n]
	}
	return points, len(points), total
}
