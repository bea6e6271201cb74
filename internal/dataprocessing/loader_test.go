package dataprocessing

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"housepulse/internal/errors"
	"housepulse/pkg/contracts/domain"
)

const sampleCSV = `,Price,HouseType,LivingSpace,Locality,PostalCode,NumberRooms
0,"1'250'000",Villa,250,Lugano,6900,6.5
1,980000,Chalet,180.5,Grindelwald,3818,5
2,,Chalet,120,Blonay,1807,4.5
3,NaN,Apartment,90,Bern,3011,3

4,750000,Apartment,110,Nowhereville,9999,null
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCSV(t *testing.T) {
	dataset, err := LoadCSV(strings.NewReader(sampleCSV), ',')
	require.NoError(t, err)
	require.Len(t, dataset, 5, "blank lines are skipped")

	first := dataset[0]
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, 1250000.0, first.Price)
	assert.Equal(t, "Villa", first.HouseType)
	assert.Equal(t, 250.0, first.LivingSpace)
	assert.Equal(t, "Lugano", first.Locality)
	assert.Equal(t, "6900", first.PostalCode)
	assert.Equal(t, 6.5, first.NumberRooms)
	assert.True(t, first.Complete())

	assert.Equal(t, 180.5, dataset[1].LivingSpace)
	assert.Equal(t, domain.FieldPrice, dataset[2].Missing)
	assert.Equal(t, domain.FieldPrice, dataset[3].Missing, "NaN counts as missing")
	assert.Equal(t, domain.FieldNumberRooms, dataset[4].Missing)
	assert.Equal(t, 7, dataset[4].Row)
}

func TestLoadCSV_ByteOrderMark(t *testing.T) {
	input := "\ufeffPrice,HouseType,LivingSpace,Locality,PostalCode,NumberRooms\n500000,Villa,200,Lugano,6900,5\n"

	dataset, err := LoadCSV(strings.NewReader(input), ',')
	require.NoError(t, err)
	require.Len(t, dataset, 1)
	assert.Equal(t, 500000.0, dataset[0].Price)
}

func TestLoadCSV_ColumnOrderAndExtras(t *testing.T) {
	input := "NumberRooms;Locality;Extra;PostalCode;Price;HouseType;LivingSpace\n3.5;Blonay;x;1807;1 200 000;Chalet;140\n"

	dataset, err := LoadCSV(strings.NewReader(input), ';')
	require.NoError(t, err)
	require.Len(t, dataset, 1)
	assert.Equal(t, 1200000.0, dataset[0].Price)
	assert.Equal(t, "Blonay", dataset[0].Locality)
	assert.Equal(t, 3.5, dataset[0].NumberRooms)
}

func TestLoadCSV_ShortRow(t *testing.T) {
	input := "Price,HouseType,LivingSpace,Locality,PostalCode,NumberRooms\n500000,Villa,200\n"

	dataset, err := LoadCSV(strings.NewReader(input), ',')
	require.NoError(t, err)
	require.Len(t, dataset, 1)
	assert.Equal(t, domain.FieldLocality|domain.FieldPostalCode|domain.FieldNumberRooms, dataset[0].Missing)
}

func TestLoadCSV_Errors(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		errorContains string
	}{
		{
			name:          "empty input",
			input:         "",
			errorContains: "no header row",
		},
		{
			name:          "missing columns",
			input:         "Price,HouseType,LivingSpace,Locality\n1,Villa,2,Lugano\n",
			errorContains: "PostalCode, NumberRooms",
		},
		{
			name:          "column names are case-sensitive",
			input:         "price,HouseType,LivingSpace,Locality,PostalCode,NumberRooms\n",
			errorContains: "Price",
		},
		{
			name:          "malformed quoting",
			input:         "Price,HouseType,LivingSpace,Locality,PostalCode,NumberRooms\n1,\"Vil\"la,2,Lugano,6900,3\n",
			errorContains: "malformed dataset row",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV(strings.NewReader(tt.input), ',')
			require.Error(t, err)
			assert.True(t, errors.IsLoadError(err))
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Run("csv", func(t *testing.T) {
		path := writeFile(t, "houses.csv", sampleCSV)
		dataset, err := LoadFile(context.Background(), path)
		require.NoError(t, err)
		assert.Len(t, dataset, 5)
	})

	t.Run("tsv", func(t *testing.T) {
		path := writeFile(t, "houses.tsv", "Price\tHouseType\tLivingSpace\tLocality\tPostalCode\tNumberRooms\n500000\tVilla\t200\tRonco sopra Ascona\t6622\t5\n")
		dataset, err := LoadFile(context.Background(), path)
		require.NoError(t, err)
		require.Len(t, dataset, 1)
		assert.Equal(t, "Ronco sopra Ascona", dataset[0].Locality)
	})

	t.Run("nonexistent file", func(t *testing.T) {
		_, err := LoadFile(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
		require.Error(t, err)
		assert.True(t, errors.IsLoadError(err))
	})

	t.Run("unsupported format", func(t *testing.T) {
		path := writeFile(t, "houses.json", "[]")
		_, err := LoadFile(context.Background(), path)
		require.Error(t, err)
		assert.True(t, errors.IsLoadError(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		path := writeFile(t, "houses.csv", sampleCSV)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := LoadFile(ctx, path)
		require.Error(t, err)
		assert.True(t, errors.IsLoadError(err))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "houses.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadFile_Workbook(t *testing.T) {
	rows := [][]interface{}{
		{"Price", "HouseType", "LivingSpace", "Locality", "PostalCode", "NumberRooms"},
		{1250000, "Villa", 250, "Lugano", 6900, 6.5},
		{nil, "Chalet", 120, "Blonay", 1807, 4.5},
	}

	t.Run("first sheet", func(t *testing.T) {
		path := writeWorkbook(t, "Sheet1", rows)

		dataset, err := NewLoader("", nil).LoadFile(context.Background(), path)
		require.NoError(t, err)
		require.Len(t, dataset, 2)

		assert.Equal(t, 1250000.0, dataset[0].Price)
		assert.Equal(t, "6900", dataset[0].PostalCode)
		assert.Equal(t, 6.5, dataset[0].NumberRooms)
		assert.Equal(t, 2, dataset[0].Row)
		assert.Equal(t, domain.FieldPrice, dataset[1].Missing)
	})

	t.Run("named sheet", func(t *testing.T) {
		path := writeWorkbook(t, "Listings", rows)

		dataset, err := NewLoader("Listings", nil).LoadFile(context.Background(), path)
		require.NoError(t, err)
		assert.Len(t, dataset, 2)
	})

	t.Run("unknown sheet", func(t *testing.T) {
		path := writeWorkbook(t, "Sheet1", rows)

		_, err := NewLoader("Missing", nil).LoadFile(context.Background(), path)
		require.Error(t, err)
		assert.True(t, errors.IsLoadError(err))
	})
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"1250000", 1250000, true},
		{"1'250'000", 1250000, true},
		{"1,250,000", 1250000, true},
		{"4.5", 4.5, true},
		{"12,500.5", 12500.5, true},
		{"4,5", 0, false},
		{"1,25", 0, false},
		{"1,2500", 0, false},
		{"-3", -3, true},
		{"", 0, false},
		{"NA", 0, false},
		{"NaN", 0, false},
		{"null", 0, false},
		{"Inf", 0, false},
		{"abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseNumber(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePostalCode(t *testing.T) {
	assert.Equal(t, "6900", normalizePostalCode("6900.0"))
	assert.Equal(t, "6900", normalizePostalCode("6900"))
	assert.Equal(t, "CH-6900.0", normalizePostalCode("CH-6900.0"))
}
