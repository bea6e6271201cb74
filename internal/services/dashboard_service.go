package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/singleflight"

	apperrors "housepulse/internal/errors"
	"housepulse/internal/infrastructure"
	"housepulse/pkg/contracts/domain"
)

// maxReloadAttempts bounds retries when the input file changes mid-run
const maxReloadAttempts = 3

// View names accepted by DashboardService.View
const (
	ViewBar     = "bar"
	ViewScatter = "scatter"
	ViewMap     = "map"
)

// PipelineRunner produces views from an input file.
type PipelineRunner interface {
	Run(ctx context.Context, path string) (*domain.Views, error)
}

// Snapshot is one published pipeline result. It is never modified after
// it has been stored.
type Snapshot struct {
	Views       *domain.Views
	Fingerprint string
	Source      string
	LoadedAt    time.Time
}

// SnapshotEvent summarizes a published snapshot for subscribers
type SnapshotEvent struct {
	Fingerprint string               `json:"fingerprint"`
	LoadedAt    time.Time            `json:"loaded_at"`
	Stats       domain.PipelineStats `json:"stats"`
}

// Event returns the summary pushed to live dashboards
func (s *Snapshot) Event() SnapshotEvent {
	return SnapshotEvent{
		Fingerprint: s.Fingerprint,
		LoadedAt:    s.LoadedAt,
		Stats:       s.Views.Stats,
	}
}

// ETag returns the strong entity tag for the snapshot
func (s *Snapshot) ETag() string {
	return `"` + s.Fingerprint + `"`
}

// PublishFunc is called after a snapshot has been published
type PublishFunc func(ctx context.Context, snap *Snapshot)

// DashboardService keeps the latest views in memory and serves them to
// readers without locking.
type DashboardService struct {
	runner    PipelineRunner
	inputPath string
	current   atomic.Pointer[Snapshot]
	reloads   singleflight.Group
	metrics   *infrastructure.Metrics
	logger    *slog.Logger
	now       func() time.Time

	mu          sync.Mutex
	subscribers []PublishFunc
}

// NewDashboardService creates a service that runs runner against inputPath
func NewDashboardService(runner PipelineRunner, inputPath string, metrics *infrastructure.Metrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("DashboardService initialized",
		slog.String("input_file", inputPath))

	return &DashboardService{
		runner:    runner,
		inputPath: inputPath,
		metrics:   metrics,
		logger:    logger.With(slog.String("component", "dashboard_service")),
		now:       time.Now,
	}
}

// Reload runs the pipeline and publishes the result. Concurrent callers share
// a single run, which completes even if the caller that started it gives up.
// On failure the previously published snapshot stays in place.
func (s *DashboardService) Reload(ctx context.Context) (*Snapshot, error) {
	// The shared run outlives any single caller; each caller only stops waiting
	runCtx := context.WithoutCancel(ctx)
	ch := s.reloads.DoChan("reload", func() (interface{}, error) {
		return s.reload(runCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.DebugContext(ctx, "reload shared with concurrent caller")
		}
		return res.Val.(*Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *DashboardService) reload(ctx context.Context) (snap *Snapshot, err error) {
	defer func() { s.metrics.RecordReload(ctx, err) }()

	if s.inputPath == "" {
		return nil, apperrors.NewLoadError("cannot reload dashboard", ErrNoInputFile)
	}

	views, fingerprint, err := s.runStable(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "reload failed, keeping previous snapshot",
			slog.String("error", err.Error()),
			slog.Bool("has_previous", s.current.Load() != nil))
		return nil, err
	}

	snap = &Snapshot{
		Views:       views,
		Fingerprint: fingerprint,
		Source:      s.inputPath,
		LoadedAt:    s.now().UTC(),
	}
	previous := s.current.Swap(snap)

	attrs := []any{
		slog.String("fingerprint", fingerprint),
		slog.Int("cleaned", views.Stats.Cleaned),
		slog.Int("mapped", views.Stats.Mapped),
	}
	if previous != nil {
		attrs = append(attrs, slog.Bool("changed", previous.Fingerprint != fingerprint))
	}
	s.logger.InfoContext(ctx, "dashboard snapshot published", attrs...)

	s.mu.Lock()
	subscribers := append([]PublishFunc(nil), s.subscribers...)
	s.mu.Unlock()
	for _, fn := range subscribers {
		fn(ctx, snap)
	}

	return snap, nil
}

// runStable runs the pipeline and returns the fingerprint of the content it
// read. The file is hashed before and after the run; a mismatch means it was
// replaced mid-run and the run is repeated.
func (s *DashboardService) runStable(ctx context.Context) (*domain.Views, string, error) {
	for attempt := 1; ; attempt++ {
		before, err := Fingerprint(s.inputPath)
		if err != nil {
			return nil, "", apperrors.NewLoadError("cannot read input file", err).
				WithContext("path", s.inputPath)
		}

		views, err := s.runner.Run(ctx, s.inputPath)
		if err != nil {
			return nil, "", err
		}

		after, err := Fingerprint(s.inputPath)
		if err != nil {
			return nil, "", apperrors.NewLoadError("cannot read input file", err).
				WithContext("path", s.inputPath)
		}
		if before == after {
			return views, after, nil
		}

		if attempt == maxReloadAttempts {
			return nil, "", apperrors.NewLoadError("input file changed during every reload attempt", nil).
				WithContext("path", s.inputPath).
				WithContext("attempts", attempt)
		}
		s.logger.InfoContext(ctx, "input file changed during reload, retrying",
			slog.Int("attempt", attempt))
	}
}

// OnPublish registers fn to run after every successful reload
func (s *DashboardService) OnPublish(fn PublishFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// InputPath returns the dataset the service reloads from
func (s *DashboardService) InputPath() string {
	return s.inputPath
}

// Snapshot returns the currently published snapshot, or
// ErrDatasetUnavailable when no run has succeeded yet.
func (s *DashboardService) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, apperrors.ErrDatasetUnavailable
	}
	return snap, nil
}

// View returns one named view of the current snapshot
func (s *DashboardService) View(ctx context.Context, name string) (interface{}, *Snapshot, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}

	switch name {
	case ViewBar:
		return snap.Views.BarChart, snap, nil
	case ViewScatter:
		return snap.Views.Scatter, snap, nil
	case ViewMap:
		return snap.Views.Map, snap, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownView, name)
	}
}

// Ready reports whether a snapshot has been published
func (s *DashboardService) Ready() bool {
	return s.current.Load() != nil
}

// Fingerprint hashes the file contents with XXH3 and returns the hex digest
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
