package exporter

import (
	"bytes"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housepulse/internal/config"
)

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	dir := t.TempDir()
	return &config.Paths{
		BaseDir:    dir,
		DataDir:    filepath.Join(dir, "data"),
		ReportsDir: filepath.Join(dir, "reports"),
		LogsDir:    filepath.Join(dir, "logs"),
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// readCSV reads a file written by CSVWriter, returning whether it had a BOM
func readCSV(t *testing.T, path string) ([][]string, bool) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	hasBOM := bytes.HasPrefix(data, utf8BOM)
	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))).ReadAll()
	require.NoError(t, err)
	return records, hasBOM
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	tests := []struct {
		name    string
		options WriteOptions
		want    [][]string
		wantBOM bool
	}{
		{
			name: "headers and records",
			options: WriteOptions{
				Headers: []string{"HouseType", "MeanPrice"},
				Records: [][]string{{"Villa", "2250000.00"}, {"Chalet", "1500000.00"}},
			},
			want: [][]string{{"HouseType", "MeanPrice"}, {"Villa", "2250000.00"}, {"Chalet", "1500000.00"}},
		},
		{
			name: "bom prefix",
			options: WriteOptions{
				Headers:   []string{"Locality"},
				Records:   [][]string{{"Zürich"}},
				BOMPrefix: true,
			},
			want:    [][]string{{"Locality"}, {"Zürich"}},
			wantBOM: true,
		},
		{
			name: "quotes embedded separators",
			options: WriteOptions{
				Headers: []string{"Locality", "Note"},
				Records: [][]string{{"Bern", `lake view, "quiet"`}},
			},
			want: [][]string{{"Locality", "Note"}, {"Bern", `lake view, "quiet"`}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := testPaths(t)
			w := NewCSVWriter(paths, quietLogger())

			require.NoError(t, w.WriteCSV("out.csv", tt.options))

			got, hasBOM := readCSV(t, paths.GetReportPath("out.csv"))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantBOM, hasBOM)
		})
	}
}

func TestCSVWriter_Append(t *testing.T) {
	paths := testPaths(t)
	w := NewCSVWriter(paths, quietLogger())

	require.NoError(t, w.WriteSimpleCSV("log.csv", []string{"a"}, [][]string{{"1"}}))
	require.NoError(t, w.WriteCSV("log.csv", WriteOptions{
		Headers:   []string{"a"},
		Records:   [][]string{{"2"}},
		Append:    true,
		BOMPrefix: true,
	}))

	got, hasBOM := readCSV(t, paths.GetReportPath("log.csv"))
	assert.True(t, hasBOM)
	assert.Equal(t, [][]string{{"a"}, {"1"}, {"2"}}, got)
}

func TestCSVWriter_AbsolutePath(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "abs.csv")
	w := NewCSVWriter(testPaths(t), nil)

	require.NoError(t, w.WriteSimpleCSV(target, []string{"x"}, nil))

	got, _ := readCSV(t, target)
	assert.Equal(t, [][]string{{"x"}}, got)
}

func TestStreamWriter(t *testing.T) {
	paths := testPaths(t)
	w := NewCSVWriter(paths, quietLogger())

	stream, err := w.CreateStreamWriter("stream.csv", []string{"Price", "Locality"})
	require.NoError(t, err)
	for _, row := range [][]string{{"100.00", "Bern"}, {"200.00", "Lugano"}} {
		require.NoError(t, stream.WriteRecord(row))
	}
	require.NoError(t, stream.Close())

	got, hasBOM := readCSV(t, paths.GetReportPath("stream.csv"))
	assert.True(t, hasBOM)
	assert.Equal(t, [][]string{{"Price", "Locality"}, {"100.00", "Bern"}, {"200.00", "Lugano"}}, got)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "2250000.00", formatFloat(2250000))
	assert.Equal(t, "0.33", formatFloat(1.0/3))
	assert.Equal(t, "46.0037", formatDecimal(46.0037))
	assert.Equal(t, "4.5", formatDecimal(4.5))
	assert.Equal(t, "3", formatDecimal(3))
}
