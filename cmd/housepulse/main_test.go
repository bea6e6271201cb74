package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housepulse/pkg/contracts"
)

const housesCSV = `Price,HouseType,LivingSpace,Locality,PostalCode,NumberRooms
5000000,Villa,400,Lugano,6900,9
3000000,Villa,300,Grimentz,3961,7
2000000,Chalet,220,Grindelwald,3818,6
1000000,Chalet,160,Blonay,1807,4.5
,Apartment,80,Bern,3011,2.5
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOUSEPULSE_PATHS_BASE_DIR", t.TempDir())
	t.Setenv("HOUSEPULSE_TELEMETRY_ENABLE_TRACING", "false")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--env-file", ""}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, contracts.Version)
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "houses.csv")
	require.NoError(t, os.WriteFile(input, []byte(housesCSV), 0644))
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "run",
		"--input", input,
		"--out", outDir,
		"--top", "2",
		"--trim", "1",
		"--format", "csv,json",
		"--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, out, "loaded 5, incomplete 1, trimmed 1, cleaned 3")
	for _, name := range []string{"bar_chart.csv", "scatter_chart.csv", "map.csv", "views.json"} {
		assert.FileExists(t, filepath.Join(outDir, name))
		assert.Contains(t, out, filepath.Join(outDir, name))
	}
}

func TestRunCommand_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
	}{
		{
			name: "missing input file",
			args: []string{"run", "--input", filepath.Join(dir, "absent.csv"), "--out", dir},
		},
		{
			name: "unknown format",
			args: []string{"run", "--input", filepath.Join(dir, "absent.csv"), "--format", "pdf"},
		},
		{
			name: "invalid top",
			args: []string{"run", "--input", filepath.Join(dir, "absent.csv"), "--top", "0"},
		},
		{
			name: "unexpected argument",
			args: []string{"run", "extra"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
