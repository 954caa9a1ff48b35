// Package dataset implements the in-memory tabular structure the pipeline
// steps operate on: ordered named columns over rows of string cells, the
// natural shape of the CSV files the pipeline reads and writes. A missing
// value is an empty cell. Typed accessors parse cells on demand and
// surface malformed cells as errors.
package dataset

import (
	"fmt"
	"strconv"
	"time"
)

// TimeLayout is the cell format for timestamps throughout the pipeline.
const TimeLayout = "2006-01-02 15:04:05"

// Dataset is an in-memory table of rows by named columns.
type Dataset struct {
	Columns []string
	Rows    [][]string
}

// New creates an empty dataset with the given columns.
func New(columns ...string) *Dataset {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Dataset{Columns: cols}
}

// NumRows returns the number of rows.
func (d *Dataset) NumRows() int {
	return len(d.Rows)
}

// NumColumns returns the number of columns.
func (d *Dataset) NumColumns() int {
	return len(d.Columns)
}

// ColumnIndex returns the position of the named column, or an error if
// the column does not exist.
func (d *Dataset) ColumnIndex(name string) (int, error) {
	for i, c := range d.Columns {
		if c == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("column %q not found", name)
}

// HasColumn reports whether the named column exists.
func (d *Dataset) HasColumn(name string) bool {
	_, err := d.ColumnIndex(name)
	return err == nil
}

// AppendRow adds a row. The row must have exactly one cell per column.
func (d *Dataset) AppendRow(row []string) error {
	if len(row) != len(d.Columns) {
		return fmt.Errorf("row has %d cells, dataset has %d columns", len(row), len(d.Columns))
	}
	d.Rows = append(d.Rows, row)
	return nil
}

// Value returns the cell at the given row in the named column.
func (d *Dataset) Value(row int, column string) (string, error) {
	idx, err := d.ColumnIndex(column)
	if err != nil {
		return "", err
	}
	if row < 0 || row >= len(d.Rows) {
		return "", fmt.Errorf("row %d out of range (%d rows)", row, len(d.Rows))
	}
	return d.Rows[row][idx], nil
}

// SetValue sets the cell at the given row in the named column.
func (d *Dataset) SetValue(row int, column, value string) error {
	idx, err := d.ColumnIndex(column)
	if err != nil {
		return err
	}
	if row < 0 || row >= len(d.Rows) {
		return fmt.Errorf("row %d out of range (%d rows)", row, len(d.Rows))
	}
	d.Rows[row][idx] = value
	return nil
}

// Float parses the cell as a float64. Empty cells are an error; steps
// that tolerate nulls must check IsNull first.
func (d *Dataset) Float(row int, column string) (float64, error) {
	v, err := d.Value(row, column)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("column %q row %d: %w", column, row, err)
	}
	return f, nil
}

// Int parses the cell as an int64.
func (d *Dataset) Int(row int, column string) (int64, error) {
	v, err := d.Value(row, column)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %q row %d: %w", column, row, err)
	}
	return n, nil
}

// Bool parses the cell as a boolean. Empty cells parse as false.
func (d *Dataset) Bool(row int, column string) (bool, error) {
	v, err := d.Value(row, column)
	if err != nil {
		return false, err
	}
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("column %q row %d: %w", column, row, err)
	}
	return b, nil
}

// Time parses the cell using TimeLayout.
func (d *Dataset) Time(row int, column string) (time.Time, error) {
	v, err := d.Value(row, column)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(TimeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("column %q row %d: %w", column, row, err)
	}
	return t, nil
}

// EpochMillis parses the cell as milliseconds since the Unix epoch.
func (d *Dataset) EpochMillis(row int, column string) (time.Time, error) {
	ms, err := d.Int(row, column)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

// IsNull reports whether the cell is empty.
func (d *Dataset) IsNull(row int, column string) (bool, error) {
	v, err := d.Value(row, column)
	if err != nil {
		return false, err
	}
	return v == "", nil
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	out := New(d.Columns...)
	out.Rows = make([][]string, len(d.Rows))
	for i, row := range d.Rows {
		r := make([]string, len(row))
		copy(r, row)
		out.Rows[i] = r
	}
	return out
}

// AddColumn appends a new column filled with the given value.
func (d *Dataset) AddColumn(name, fill string) error {
	if d.HasColumn(name) {
		return fmt.Errorf("column %q already exists", name)
	}
	d.Columns = append(d.Columns, name)
	for i := range d.Rows {
		d.Rows[i] = append(d.Rows[i], fill)
	}
	return nil
}

// RenameColumn renames a column in place.
func (d *Dataset) RenameColumn(from, to string) error {
	if d.HasColumn(to) {
		return fmt.Errorf("column %q already exists", to)
	}
	idx, err := d.ColumnIndex(from)
	if err != nil {
		return err
	}
	d.Columns[idx] = to
	return nil
}

// Select returns a new dataset containing only the named columns, in the
// given order.
func (d *Dataset) Select(columns ...string) (*Dataset, error) {
	indices := make([]int, len(columns))
	for i, c := range columns {
		idx, err := d.ColumnIndex(c)
		if err != nil {
			return nil, err
		}
		indices[i] = idx
	}
	out := New(columns...)
	out.Rows = make([][]string, len(d.Rows))
	for i, row := range d.Rows {
		r := make([]string, len(indices))
		for j, idx := range indices {
			r[j] = row[idx]
		}
		out.Rows[i] = r
	}
	return out, nil
}

// Drop returns a new dataset without the named columns.
func (d *Dataset) Drop(columns ...string) (*Dataset, error) {
	drop := make(map[string]bool, len(columns))
	for _, c := range columns {
		if _, err := d.ColumnIndex(c); err != nil {
			return nil, err
		}
		drop[c] = true
	}
	var keep []string
	for _, c := range d.Columns {
		if !drop[c] {
			keep = append(keep, c)
		}
	}
	return d.Select(keep...)
}

// Filter returns a new dataset containing the rows for which keep
// returns true. The predicate receives the row index.
func (d *Dataset) Filter(keep func(row int) (bool, error)) (*Dataset, error) {
	out := New(d.Columns...)
	for i := range d.Rows {
		ok, err := keep(i)
		if err != nil {
			return nil, err
		}
		if ok {
			out.Rows = append(out.Rows, d.Rows[i])
		}
	}
	return out, nil
}

// Concat appends the rows of all datasets, requiring identical columns.
func Concat(datasets ...*Dataset) (*Dataset, error) {
	if len(datasets) == 0 {
		return nil, fmt.Errorf("no datasets to concatenate")
	}
	out := datasets[0].Clone()
	for _, ds := range datasets[1:] {
		if len(ds.Columns) != len(out.Columns) {
			return nil, fmt.Errorf("column count mismatch: %d vs %d", len(ds.Columns), len(out.Columns))
		}
		for i, c := range ds.Columns {
			if c != out.Columns[i] {
				return nil, fmt.Errorf("column mismatch at position %d: %q vs %q", i, c, out.Columns[i])
			}
		}
		out.Rows = append(out.Rows, ds.Rows...)
	}
	return out, nil
}
