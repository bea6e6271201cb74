package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "housepulse/internal/errors"
	"housepulse/pkg/contracts/domain"
)

type fakeRunner struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	run     func(ctx context.Context, path string) (*domain.Views, error)
}

func (f *fakeRunner) Run(ctx context.Context, path string) (*domain.Views, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.run(ctx, path)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "houses.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func viewsWith(houseType string) *domain.Views {
	return &domain.Views{
		BarChart: []domain.BarChartPoint{{HouseType: houseType, MeanPrice: 100}},
		Scatter:  []domain.ScatterPoint{{Price: 100, HouseType: houseType}},
		Map:      []domain.MapPoint{{Locality: "Lugano", Price: 100}},
		Stats:    domain.PipelineStats{Cleaned: 1, Mapped: 1},
	}
}

func TestDashboardService_SnapshotBeforeLoad(t *testing.T) {
	svc := NewDashboardService(&fakeRunner{}, "unused.csv", nil, quietLogger())

	snap, err := svc.Snapshot(context.Background())
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, apperrors.ErrDatasetUnavailable)
	assert.False(t, svc.Ready())
}

func TestDashboardService_Reload(t *testing.T) {
	path := writeInput(t, "Price,HouseType\n")
	runner := &fakeRunner{run: func(ctx context.Context, got string) (*domain.Views, error) {
		assert.Equal(t, path, got)
		return viewsWith("Villa"), nil
	}}
	svc := NewDashboardService(runner, path, nil, quietLogger())
	fixed := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	snap, err := svc.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, path, snap.Source)
	assert.Equal(t, fixed, snap.LoadedAt)
	assert.Len(t, snap.Fingerprint, 16)
	assert.Equal(t, `"`+snap.Fingerprint+`"`, snap.ETag())
	assert.True(t, svc.Ready())

	current, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap, current)
}

func TestDashboardService_ReloadFailureKeepsSnapshot(t *testing.T) {
	path := writeInput(t, "v1")
	fail := false
	runner := &fakeRunner{run: func(context.Context, string) (*domain.Views, error) {
		if fail {
			return nil, apperrors.NewLoadError("missing required columns", nil)
		}
		return viewsWith("Villa"), nil
	}}
	svc := NewDashboardService(runner, path, nil, quietLogger())

	first, err := svc.Reload(context.Background())
	require.NoError(t, err)

	fail = true
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0644))
	_, err = svc.Reload(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsLoadError(err))

	current, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, current)
}

func TestDashboardService_ReloadMissingFile(t *testing.T) {
	runner := &fakeRunner{run: func(context.Context, string) (*domain.Views, error) {
		return viewsWith("Villa"), nil
	}}

	tests := []struct {
		name string
		path string
	}{
		{"nonexistent", filepath.Join(t.TempDir(), "absent.csv")},
		{"not configured", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewDashboardService(runner, tt.path, nil, quietLogger())
			_, err := svc.Reload(context.Background())
			require.Error(t, err)
			assert.True(t, apperrors.IsLoadError(err))
			assert.False(t, svc.Ready())
		})
	}
	assert.Equal(t, int32(0), runner.calls.Load(), "pipeline never runs without a readable input")
}

func TestDashboardService_ConcurrentReloadsCollapse(t *testing.T) {
	path := writeInput(t, "data")
	runner := &fakeRunner{
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
		run: func(context.Context, string) (*domain.Views, error) {
			return viewsWith("Villa"), nil
		},
	}
	svc := NewDashboardService(runner, path, nil, quietLogger())

	const callers = 5
	results := make([]*Snapshot, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, err := svc.Reload(context.Background())
			assert.NoError(t, err)
			results[i] = snap
		}(i)
	}

	<-runner.started
	time.Sleep(50 * time.Millisecond)
	close(runner.release)
	wg.Wait()

	assert.Equal(t, int32(1), runner.calls.Load())
	for _, snap := range results {
		assert.Same(t, results[0], snap)
	}
}

func TestDashboardService_ReloadContextCancelled(t *testing.T) {
	path := writeInput(t, "data")
	runner := &fakeRunner{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		run: func(context.Context, string) (*domain.Views, error) {
			return viewsWith("Villa"), nil
		},
	}
	svc := NewDashboardService(runner, path, nil, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Reload(ctx)
		done <- err
	}()

	<-runner.started
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	close(runner.release)

	assert.Eventually(t, svc.Ready, time.Second, 5*time.Millisecond,
		"the run finishes and publishes after its caller left")
}

func TestDashboardService_SharedReloadSurvivesCancelledCaller(t *testing.T) {
	path := writeInput(t, "data")
	runner := &fakeRunner{
		started: make(chan struct{}, 2),
		release: make(chan struct{}),
		run: func(ctx context.Context, _ string) (*domain.Views, error) {
			if err := ctx.Err(); err != nil {
				return nil, apperrors.NewLoadError("dataset load cancelled", err)
			}
			return viewsWith("Villa"), nil
		},
	}
	svc := NewDashboardService(runner, path, nil, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := svc.Reload(ctx)
		first <- err
	}()
	<-runner.started

	type result struct {
		snap *Snapshot
		err  error
	}
	second := make(chan result, 1)
	go func() {
		snap, err := svc.Reload(context.Background())
		second <- result{snap, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)
	close(runner.release)

	res := <-second
	require.NoError(t, res.err)
	require.NotNil(t, res.snap)
	assert.Equal(t, "Villa", res.snap.Views.BarChart[0].HouseType)
	assert.True(t, svc.Ready())
	assert.LessOrEqual(t, runner.calls.Load(), int32(2))
}

func TestDashboardService_ReloadFileReplacedMidRun(t *testing.T) {
	path := writeInput(t, "v1")
	runner := &fakeRunner{}
	runner.run = func(context.Context, string) (*domain.Views, error) {
		if runner.calls.Load() == 1 {
			require.NoError(t, os.WriteFile(path, []byte("v2"), 0644))
		}
		return viewsWith("Villa"), nil
	}
	svc := NewDashboardService(runner, path, nil, quietLogger())

	snap, err := svc.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), runner.calls.Load(), "run repeated after the file changed")

	want, err := Fingerprint(path)
	require.NoError(t, err)
	assert.Equal(t, want, snap.Fingerprint)
}

func TestDashboardService_ReloadFileNeverStable(t *testing.T) {
	path := writeInput(t, "v0")
	runner := &fakeRunner{}
	runner.run = func(context.Context, string) (*domain.Views, error) {
		content := fmt.Sprintf("v%d", runner.calls.Load())
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return viewsWith("Villa"), nil
	}
	svc := NewDashboardService(runner, path, nil, quietLogger())

	_, err := svc.Reload(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsLoadError(err))
	assert.Equal(t, int32(maxReloadAttempts), runner.calls.Load())
	assert.False(t, svc.Ready())
}

func TestDashboardService_View(t *testing.T) {
	path := writeInput(t, "data")
	runner := &fakeRunner{run: func(context.Context, string) (*domain.Views, error) {
		return viewsWith("Chalet"), nil
	}}
	svc := NewDashboardService(runner, path, nil, quietLogger())

	_, _, err := svc.View(context.Background(), ViewBar)
	assert.ErrorIs(t, err, apperrors.ErrDatasetUnavailable)

	_, err = svc.Reload(context.Background())
	require.NoError(t, err)

	tests := []struct {
		name string
		want interface{}
	}{
		{ViewBar, []domain.BarChartPoint{{HouseType: "Chalet", MeanPrice: 100}}},
		{ViewScatter, []domain.ScatterPoint{{Price: 100, HouseType: "Chalet"}}},
		{ViewMap, []domain.MapPoint{{Locality: "Lugano", Price: 100}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, snap, err := svc.View(context.Background(), tt.name)
			require.NoError(t, err)
			assert.NotNil(t, snap)
			assert.Equal(t, tt.want, view)
		})
	}

	_, _, err = svc.View(context.Background(), "pie")
	assert.ErrorIs(t, err, ErrUnknownView)
}

func TestFingerprint(t *testing.T) {
	a := writeInput(t, "Price\n100\n")
	b := writeInput(t, "Price\n100\n")
	c := writeInput(t, "Price\n101\n")

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)
	fc, err := Fingerprint(c)
	require.NoError(t, err)

	assert.Equal(t, fa, fb)
	assert.NotEqual(t, fa, fc)

	_, err = Fingerprint(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
