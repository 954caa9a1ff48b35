package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"shiftcli/internal/dataset"
)

// WriteOptions configures CSV writing behavior.
type WriteOptions struct {
	Separator rune // field separator, ',' when zero
	BOMPrefix bool // add UTF-8 BOM for Excel compatibility
	Append    bool // append rows instead of truncating (no header rewrite)
}

// WriteDataset writes a dataset to a CSV file, header first.
func WriteDataset(path string, ds *dataset.Dataset, options WriteOptions) error {
	slog.Debug("writing CSV file",
		slog.String("path", path),
		slog.Int("rows", ds.NumRows()),
		slog.Int("columns", ds.NumColumns()))

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix && !options.Append {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	if options.Separator != 0 {
		writer.Comma = options.Separator
	}
	defer writer.Flush()

	if !options.Append {
		if err := writer.Write(ds.Columns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for i, row := range ds.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// StreamWriter provides row-at-a-time CSV writing for large datasets.
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
}

// NewStreamWriter creates a streaming CSV writer and writes the header.
func NewStreamWriter(path string, columns []string, options WriteOptions) (*StreamWriter, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	if options.Separator != 0 {
		writer.Comma = options.Separator
	}
	if len(columns) > 0 {
		if err := writer.Write(columns); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	return &StreamWriter{file: file, writer: writer}, nil
}

// WriteRow writes a single row to the stream.
func (s *StreamWriter) WriteRow(row []string) error {
	return s.writer.Write(row)
}

// Close flushes and closes the stream writer.
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
