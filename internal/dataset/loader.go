package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadOptions configures CSV loading behavior.
type LoadOptions struct {
	Separator rune // field separator, ',' when zero
	TrimSpace bool // trim surrounding whitespace from every cell
}

// LoadCSV reads a CSV file into a dataset. The first row is the header.
// A UTF-8 BOM, if present, is stripped before parsing.
func LoadCSV(path string, opts LoadOptions) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	if opts.Separator != 0 {
		reader.Comma = opts.Separator
	}
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty file, expected a header row", path)
	}

	header := records[0]
	if opts.TrimSpace {
		for i := range header {
			header[i] = strings.TrimSpace(header[i])
		}
	}

	ds := New(header...)
	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("%s: row %d has %d fields, header has %d", path, i+2, len(record), len(header))
		}
		if opts.TrimSpace {
			for j := range record {
				record[j] = strings.TrimSpace(record[j])
			}
		}
		ds.Rows = append(ds.Rows, record)
	}
	return ds, nil
}

// LoadExcel reads a worksheet of an Excel file into a dataset. The first
// row of the sheet is the header. An empty sheet name selects the first
// worksheet in the workbook.
func LoadExcel(path, sheet string) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s: workbook has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheet, path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: sheet %q is empty, expected a header row", path, sheet)
	}

	header := rows[0]
	ds := New(header...)
	for _, row := range rows[1:] {
		// Excel trims trailing empty cells; pad back to the header width.
		r := make([]string, len(header))
		copy(r, row)
		ds.Rows = append(ds.Rows, r)
	}
	return ds, nil
}

// LoadLookup reads a two-column mapping out of a CSV file: every value in
// keyColumn maps to the value in valueColumn on the same row. Rows with
// an empty key are skipped.
func LoadLookup(path, keyColumn, valueColumn string) (map[string]string, error) {
	ds, err := LoadCSV(path, LoadOptions{TrimSpace: true})
	if err != nil {
		return nil, err
	}
	keyIdx, err := ds.ColumnIndex(keyColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	valIdx, err := ds.ColumnIndex(valueColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	lookup := make(map[string]string, len(ds.Rows))
	for _, row := range ds.Rows {
		if row[keyIdx] == "" {
			continue
		}
		lookup[row[keyIdx]] = row[valIdx]
	}
	return lookup, nil
}

// LoadColumn reads all non-empty values of one CSV column.
func LoadColumn(path, column string) ([]string, error) {
	ds, err := LoadCSV(path, LoadOptions{TrimSpace: true})
	if err != nil {
		return nil, err
	}
	idx, err := ds.ColumnIndex(column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var values []string
	for _, row := range ds.Rows {
		if row[idx] != "" {
			values = append(values, row[idx])
		}
	}
	return values, nil
}

// LoadJSON reads a JSON file into the given destination.
func LoadJSON(path string, dest interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
