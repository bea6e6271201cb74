package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// InputKind classifies a dataset file by its extension
type InputKind int

const (
	KindUnknown InputKind = iota
	KindCSV
	KindTSV
	KindExcel
)

// String returns the short name of the kind
func (k InputKind) String() string {
	switch k {
	case KindCSV:
		return "csv"
	case KindTSV:
		return "tsv"
	case KindExcel:
		return "xlsx"
	default:
		return "unknown"
	}
}

// Delimiter returns the field separator of a delimited kind, or 0
func (k InputKind) Delimiter() rune {
	switch k {
	case KindCSV:
		return ','
	case KindTSV:
		return '\t'
	default:
		return 0
	}
}

// DetectInputKind maps a file extension to an InputKind
func DetectInputKind(path string) InputKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return KindCSV
	case ".tsv":
		return KindTSV
	case ".xlsx", ".xlsm":
		return KindExcel
	default:
		return KindUnknown
	}
}

// FileValidator provides file checks shared by the loader and the exporter
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateInputFile checks that path is a readable dataset in a supported
// format and returns its kind.
func (v *FileValidator) ValidateInputFile(path string) (InputKind, error) {
	kind := DetectInputKind(path)
	if kind == KindUnknown {
		v.logger.Error("Unsupported dataset format",
			slog.String("file", path),
			slog.String("extension", filepath.Ext(path)))
		return KindUnknown, fmt.Errorf("file %s has unsupported extension %q", path, filepath.Ext(path))
	}

	if kind == KindExcel && strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Refusing temporary Excel file",
			slog.String("file", path))
		return KindUnknown, fmt.Errorf("file %s is a temporary Excel file", path)
	}

	if err := v.ValidateFile(path); err != nil {
		return KindUnknown, err
	}

	return kind, nil
}
