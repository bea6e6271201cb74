package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"housepulse/internal/config"
	"housepulse/internal/errors"
	"housepulse/internal/validation"
	"housepulse/pkg/contracts/domain"
)

// Export formats understood by ViewExporter
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

var (
	barChartHeaders = []string{"HouseType", "MeanPrice"}
	scatterHeaders  = []string{"LivingSpace", "Price", "HouseType", "Locality", "PostalCode"}
	mapHeaders      = []string{"Locality", "Latitude", "Longitude", "Price", "LivingSpace", "NumberRooms", "Geohash"}
)

// ViewExporter writes pipeline views to the reports directory.
type ViewExporter struct {
	paths     *config.Paths
	csv       *CSVWriter
	validator *validation.FileValidator
	logger    *slog.Logger
}

// NewViewExporter creates an exporter writing under paths.ReportsDir
func NewViewExporter(paths *config.Paths, logger *slog.Logger) *ViewExporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "exporter"))
	return &ViewExporter{
		paths:     paths,
		csv:       NewCSVWriter(paths, logger),
		validator: validation.NewFileValidator(logger),
		logger:    logger,
	}
}

// Export writes views in every requested format and returns the files it
// created. Unknown formats are rejected before anything is written.
func (e *ViewExporter) Export(ctx context.Context, views *domain.Views, formats []string) ([]string, error) {
	if views == nil {
		return nil, errors.NewExportError("no views to export", nil)
	}
	for _, format := range formats {
		switch strings.ToLower(format) {
		case FormatCSV, FormatJSON, FormatXLSX:
		default:
			return nil, errors.NewExportError(fmt.Sprintf("unsupported export format %q", format), nil)
		}
	}

	if err := e.validator.ValidateOutputDirectory(e.paths.ReportsDir); err != nil {
		return nil, errors.NewExportError("reports directory unavailable", err)
	}

	var written []string
	for _, format := range formats {
		var (
			files []string
			err   error
		)
		switch strings.ToLower(format) {
		case FormatCSV:
			files, err = e.ExportCSV(views)
		case FormatJSON:
			files, err = e.exportJSON(views)
		case FormatXLSX:
			files, err = e.exportWorkbook(views)
		}
		if err != nil {
			return written, errors.NewExportError(fmt.Sprintf("%s export failed", format), err)
		}
		written = append(written, files...)
	}

	e.logger.InfoContext(ctx, "views exported",
		slog.String("reports_dir", e.paths.ReportsDir),
		slog.Any("files", written))

	return written, nil
}

// ExportCSV writes one CSV file per view.
func (e *ViewExporter) ExportCSV(views *domain.Views) ([]string, error) {
	bar := make([][]string, 0, len(views.BarChart))
	for _, p := range views.BarChart {
		bar = append(bar, []string{p.HouseType, formatFloat(p.MeanPrice)})
	}
	if err := e.csv.WriteSimpleCSV(config.BarChartCSV, barChartHeaders, bar); err != nil {
		return nil, fmt.Errorf("bar chart: %w", err)
	}

	if err := e.writeScatter(views.Scatter); err != nil {
		return nil, fmt.Errorf("scatter chart: %w", err)
	}

	points := make([][]string, 0, len(views.Map))
	for _, p := range views.Map {
		points = append(points, []string{
			p.Locality,
			formatDecimal(p.Latitude),
			formatDecimal(p.Longitude),
			formatFloat(p.Price),
			formatFloat(p.LivingSpace),
			formatDecimal(p.NumberRooms),
			p.Geohash,
		})
	}
	if err := e.csv.WriteSimpleCSV(config.MapCSV, mapHeaders, points); err != nil {
		return nil, fmt.Errorf("map: %w", err)
	}

	return []string{
		e.paths.GetReportPath(config.BarChartCSV),
		e.paths.GetReportPath(config.ScatterCSV),
		e.paths.GetReportPath(config.MapCSV),
	}, nil
}

// writeScatter streams the scatter view, which holds every cleaned listing
func (e *ViewExporter) writeScatter(points []domain.ScatterPoint) (err error) {
	stream, err := e.csv.CreateStreamWriter(config.ScatterCSV, scatterHeaders)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stream.Close(); err == nil {
			err = cerr
		}
	}()

	for _, p := range points {
		if err := stream.WriteRecord([]string{
			formatFloat(p.LivingSpace),
			formatFloat(p.Price),
			p.HouseType,
			p.Locality,
			p.PostalCode,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (e *ViewExporter) exportJSON(views *domain.Views) ([]string, error) {
	path := e.paths.GetReportPath(config.ViewsJSON)

	data, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal views: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return []string{path}, nil
}

func (e *ViewExporter) exportWorkbook(views *domain.Views) ([]string, error) {
	path := e.paths.GetReportPath(config.ViewsWorkbook)
	if err := WriteWorkbook(path, views); err != nil {
		return nil, err
	}
	return []string{path}, nil
}
