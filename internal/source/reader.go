// Package source reads per-logic extracts and reference tables from disk.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/rlcompare/internal/domain"
)

// TableReader loads a whole delimited table.
type TableReader interface {
	Read(ctx context.Context, path string) (domain.RawTable, error)
}

// FileReader reads CSV and XLSX files, choosing the format by extension.
type FileReader struct {
	// Sheet selects the XLSX sheet; empty means the first sheet.
	Sheet string
}

// NewFileReader creates a FileReader for the first XLSX sheet.
func NewFileReader() *FileReader {
	return &FileReader{}
}

// Read loads path. Any failure to open or parse the file is reported as a
// *domain.SourceUnavailableError.
func (r *FileReader) Read(ctx context.Context, path string) (domain.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawTable{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return domain.RawTable{}, &domain.SourceUnavailableError{Source: path, Err: err}
	}
	if info.IsDir() {
		return domain.RawTable{}, &domain.SourceUnavailableError{
			Source: path,
			Err:    fmt.Errorf("input path %s is a directory, expected file", path),
		}
	}

	var table domain.RawTable
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		table, err = readCSV(path)
	case ".xlsx", ".xlsm":
		table, err = readXLSX(path, r.Sheet)
	default:
		err = fmt.Errorf("unsupported file extension %s", ext)
	}
	if err != nil {
		return domain.RawTable{}, &domain.SourceUnavailableError{Source: path, Err: err}
	}
	table.Source = filepath.Base(path)
	return table, nil
}

// Supported reports whether path has an extension the FileReader understands.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", ".xlsx", ".xlsm":
		return true
	}
	return false
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

// NormalizeColumnName lower-cases a header and removes separators so
// "Jarak Inbound", "jarak_inbound" and "JARAK-INBOUND" compare equal.
func NormalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// columnIndex returns the first header matching any of names after
// normalization, or -1.
func columnIndex(header []string, names ...string) int {
	targets := make(map[string]struct{}, len(names))
	for _, n := range names {
		targets[NormalizeColumnName(n)] = struct{}{}
	}
	for i, h := range header {
		if _, ok := targets[NormalizeColumnName(h)]; ok {
			return i
		}
	}
	return -1
}
