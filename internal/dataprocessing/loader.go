package dataprocessing

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"housepulse/internal/errors"
	"housepulse/internal/validation"
	"housepulse/pkg/contracts/domain"
)

// cancelCheckInterval is how many rows are decoded between context checks
const cancelCheckInterval = 1024

// Loader reads listing datasets from delimited text files or Excel workbooks.
type Loader struct {
	sheet     string
	validator *validation.FileValidator
	logger    *slog.Logger
}

// NewLoader creates a loader. sheet selects the worksheet of Excel inputs; an
// empty name means the first sheet of the workbook.
func NewLoader(sheet string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		sheet:     sheet,
		validator: validation.NewFileValidator(logger),
		logger:    logger.With(slog.String("component", "loader")),
	}
}

// LoadFile reads the dataset at path with a default loader.
func LoadFile(ctx context.Context, path string) (domain.Dataset, error) {
	return NewLoader("", nil).LoadFile(ctx, path)
}

// LoadFile reads the dataset at path, choosing the decoder by file extension.
// Every failure is returned as a load error.
func (l *Loader) LoadFile(ctx context.Context, path string) (domain.Dataset, error) {
	kind, err := l.validator.ValidateInputFile(path)
	if err != nil {
		return nil, errors.NewLoadError("invalid input file", err).WithContext("path", path)
	}

	var dataset domain.Dataset
	switch kind {
	case validation.KindExcel:
		dataset, err = l.loadWorkbook(ctx, path)
	default:
		dataset, err = l.loadDelimited(ctx, path, kind.Delimiter())
	}
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.String("path", path),
		slog.String("format", kind.String()),
		slog.Int("records", len(dataset)))

	return dataset, nil
}

func (l *Loader) loadDelimited(ctx context.Context, path string, delim rune) (domain.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewLoadError("failed to open dataset", err).WithContext("path", path)
	}
	defer file.Close()

	dataset, err := decodeRows(ctx, newCSVRows(file, delim))
	if err != nil {
		return nil, withPath(err, path)
	}
	return dataset, nil
}

func (l *Loader) loadWorkbook(ctx context.Context, path string) (domain.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewLoadError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	sheet := l.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.NewLoadError("workbook has no sheets", nil).WithContext("path", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, errors.NewLoadError(fmt.Sprintf("failed to read sheet %q", sheet), err).WithContext("path", path)
	}
	defer rows.Close()

	l.logger.DebugContext(ctx, "reading workbook sheet", slog.String("sheet", sheet))

	dataset, err := decodeRows(ctx, &sheetRows{rows: rows})
	if err != nil {
		return nil, withPath(err, path)
	}
	return dataset, nil
}

// LoadCSV reads delimited text with a header row. A UTF-8 or UTF-16 byte order
// mark is honoured and stripped.
func LoadCSV(r io.Reader, delim rune) (domain.Dataset, error) {
	return decodeRows(context.Background(), newCSVRows(r, delim))
}

// rowSource yields raw rows with their 1-based source line. It returns io.EOF
// after the last row.
type rowSource interface {
	Next() (cells []string, line int, err error)
}

type csvRows struct {
	reader *csv.Reader
}

func newCSVRows(r io.Reader, delim rune) *csvRows {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return &csvRows{reader: reader}
}

func (c *csvRows) Next() ([]string, int, error) {
	cells, err := c.reader.Read()
	if err != nil {
		return nil, 0, err
	}
	line, _ := c.reader.FieldPos(0)
	return cells, line, nil
}

type sheetRows struct {
	rows *excelize.Rows
	line int
}

func (s *sheetRows) Next() ([]string, int, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, 0, err
		}
		return nil, 0, io.EOF
	}
	s.line++
	cells, err := s.rows.Columns()
	if err != nil {
		return nil, 0, err
	}
	return cells, s.line, nil
}

// columnIndex maps every required field to its position in the header
type columnIndex map[domain.Field]int

func indexHeader(header []string) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}

	index := make(columnIndex, len(requiredColumns))
	var missing []string
	for _, field := range requiredColumns {
		pos, ok := positions[field.String()]
		if !ok {
			missing = append(missing, field.String())
			continue
		}
		index[field] = pos
	}

	if len(missing) > 0 {
		return nil, errors.NewLoadError(
			fmt.Sprintf("dataset is missing required columns: %s", strings.Join(missing, ", ")), nil,
		).WithContext("missing_columns", missing)
	}
	return index, nil
}

var requiredColumns = []domain.Field{
	domain.FieldPrice,
	domain.FieldHouseType,
	domain.FieldLivingSpace,
	domain.FieldLocality,
	domain.FieldPostalCode,
	domain.FieldNumberRooms,
}

func decodeRows(ctx context.Context, src rowSource) (domain.Dataset, error) {
	header, _, err := src.Next()
	if stderrors.Is(err, io.EOF) {
		return nil, errors.NewLoadError("dataset has no header row", nil)
	}
	if err != nil {
		return nil, errors.NewLoadError("failed to read header row", err)
	}

	index, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	dataset := make(domain.Dataset, 0, 256)
	for n := 0; ; n++ {
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.NewLoadError("dataset load cancelled", err)
			}
		}

		cells, line, err := src.Next()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.NewLoadError("malformed dataset row", err).WithContext("after_records", len(dataset))
		}
		if blank(cells) {
			continue
		}

		dataset = append(dataset, index.record(cells, line))
	}

	return dataset, nil
}

// record decodes one data row. Empty or unparsable cells are flagged in
// Missing instead of failing the load.
func (idx columnIndex) record(cells []string, line int) domain.Record {
	rec := domain.Record{Row: line}

	text := func(f domain.Field) string {
		v := cellAt(cells, idx[f])
		if v == "" {
			rec.Missing |= f
		}
		return v
	}
	number := func(f domain.Field) float64 {
		v, ok := parseNumber(cellAt(cells, idx[f]))
		if !ok {
			rec.Missing |= f
		}
		return v
	}

	rec.Price = number(domain.FieldPrice)
	rec.HouseType = text(domain.FieldHouseType)
	rec.LivingSpace = number(domain.FieldLivingSpace)
	rec.Locality = text(domain.FieldLocality)
	rec.PostalCode = normalizePostalCode(text(domain.FieldPostalCode))
	rec.NumberRooms = number(domain.FieldNumberRooms)
	return rec
}

func cellAt(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// commaGrouped matches numbers whose commas separate groups of three digits
var commaGrouped = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// parseNumber parses a numeric cell such as "1'250'000", "1,250,000" or
// "4.5". Missing markers and non-finite values report false.
func parseNumber(s string) (float64, bool) {
	switch strings.ToLower(s) {
	case "", "na", "n/a", "nan", "null", "none", "-":
		return 0, false
	}

	s = strings.NewReplacer("'", "", "\u2019", "", " ", "", "\u00a0", "", "\u202f", "").Replace(s)
	if strings.Contains(s, ",") {
		// Commas are only accepted as thousands separators; "4,5" is ambiguous
		if !commaGrouped.MatchString(s) {
			return 0, false
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// normalizePostalCode drops the ".0" suffix that spreadsheet exports add to
// numeric postal codes.
func normalizePostalCode(s string) string {
	if trimmed, ok := strings.CutSuffix(s, ".0"); ok {
		if _, err := strconv.Atoi(trimmed); err == nil {
			return trimmed
		}
	}
	return s
}

func withPath(err error, path string) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.WithContext("path", path)
	}
	return errors.NewLoadError("failed to load dataset", err).WithContext("path", path)
}
