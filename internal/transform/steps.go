package transform

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"shiftcli/internal/dataset"
	"shiftcli/internal/pipeline"
)

// Register adds every generic step to the registry.
func Register(r *pipeline.Registry) {
	r.MustRegister(selectColumnsStep())
	r.MustRegister(dropColumnsStep())
	r.MustRegister(renameColumnsStep())
	r.MustRegister(dropNullRowsStep())
	r.MustRegister(filterRowsStep())
	r.MustRegister(dropDuplicatesStep())
	r.MustRegister(sortRowsStep())
	r.MustRegister(fillNullStep())
	r.MustRegister(replacePatternStep())
	r.MustRegister(mapColumnStep())
	r.MustRegister(groupByStep())
	r.MustRegister(deriveDurationStep())
}

func requireColumns(params pipeline.Params) error {
	_, err := params.RequireStringSlice("columns")
	return err
}

func selectColumnsStep() pipeline.Step {
	return pipeline.NewFuncStep("select_columns", "Select columns",
		func(ctx context.Context, ds *dataset.Dataset, params pipeline.Params) (*dataset.Dataset, error) {
			columns, err := params.RequireStringSlice("columns")
			if err != nil {
				return nil, err
			}
			return ds.Select(columns...)
		}).WithValidator(requireColumns)
}

func dropColumnsStep() pipeline.Step {
	return pipeline.NewFuncStep("drop_columns", "Drop columns",
		func(ctx context.Context, ds *dataset.Dataset, params pipeline.Params) (*dataset.Dataset, error) {
			columns, err := params.RequireStringSlice("columns")
			if err != nil {
				return nil, err
			}
			return ds.Drop(columns...)
		}).WithValidator(requireColumns)
}

func renameColumnsStep() pipeline.Step {
	return pipeline.NewFuncStep("rename_columns", "Rename columns",
		func(ctx context.Context, ds *dataset.Dataset, params pipeline.Params) (*dataset.Dataset, error) {
			mapping, err := params.RequireStringMap("mapping")
			if err != nil {
				return nil, err
			}
			out := ds.Clone()
			// Apply renames in column order, not map order, so failures
			// are reported deterministically.
			for _, col := range ds.Columns {
				to, ok := mapping[col]
				if !ok {
					continue
				}
				if err := out.RenameColumn(col, to); err != nil {
					return nil, err
				}
			}
			for from := range mapping {
				if !ds.HasColumn(from) {
					return nil, fmt.Errorf("column %q not found", from)
				}
			}
			return out, nil
		}).WithValidator(func(params pipeline.Params) error {
		_, err := params.RequireStringMap("mapping")
		return err
	})
}

func dropNullRowsStep() pipeline.Step {
	return pipeline.NewFuncStep("drop_null_rows", "Drop rows with null cells",
		func(ctx context.Context, ds *dataset.Dataset, params pipeline.Params) (*dataset.Dataset, error) {
			columns, err := params.RequireStringSlice("columns")
			if err != nil {
				return nil, err
			}
			return ds.Filter(func(row int) (bool, error) {
				for _, col := range columns {
					null, err := ds.IsNull(row, col)
					if err != nil {
						return false, err
					}
					if null {
						return false, nil
					}
				}
				return true, nil
			})
		}).WithValidator(requireColumns)
}

// compareCells orders two cells numerically when both parse as floats,
// lexicographically otherwise.
func compareCells(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

func filterRowsStep() pipeline.Step {
	ops := map[string]func(int) bool{
		"eq": func(c int) bool { return c == 0 },
		"ne": func(c int) bool { return c != 0 },
		"gt": func(c int) bool { return c > 0 },
		"ge": func(c int) bool { return c >= 0 },
		"lt": func(c int) bool { return c < 0 },
		"le": func(c int) bool { return c <= 0 },
	}
	return pipeline.NewFuncStep("filter_rows", "Filter rows by comparison",
		func(ctx context.Context, ds *dataset.Dataset, params pipeline.Params) (*dataset.Dataset, error) {
			column, err := params.RequireString("column")
			if err != nil {
				return nil, err
			}
			op, err := params.RequireString("op")
			if err != nil {
				return nil, err
			}
			cmp, ok := ops[op]
			if !ok {
				return nil, fmt.Errorf("unknown comparison op %q", op)
			}
			value := params.String("value", "")
			return ds.Filter(func(row int) (bool, error) {
				cell, err := ds.Value(row, column)
				if err != nil {
					return false, err
				}
				return cmp(compareCells(cell, value)), nil
			})
		}).WithValidator(func(params pipeline.Params) error {
		if _, err := params.RequireString("column"); err != nil {
			return err
		}
		op, err := params.RequireString("op")
		if err != nil {
			return err
		}
		if _, ok := ops[op]; !ok {
			return pipeline.NewValidationError("", fmt.Sprintf("unknown comparison op %q", op))
		}
		return nil
	})
}

func dropDuplicatesStep() pipeline.Step {
	return pipeline.NewFuncStep("drop_duplicates", "Drop duplicate rows",
		func(ctx context.Context, ds *dataset.Dataset, params pipeline.Params) (*dataset.Dataset, error) {
			subset, err := params.StringSlice("columns")
			if err != nil {
				return nil, err
			}
			indices := make([]int, 0, len(subset))
			for _, col := range subset {
				idx, err := ds.ColumnIndex(col)
				if err != nil {
					return nil, err
				}
				indices = append(indices, idx)
			}

			seen := make(map[string]bool, len(ds.Rows))
			return ds.Filter(func(row int) (bool, error) {
				var key string
				if len(indices) == 0 {
					key = strings.Join(ds.Rows[row], "\x1f")
				} else {
					parts := make([]string, len(indices))
					for i, idx := range indices {
						parts[i] = ds.Rows[row][idx]
					}
					key = strings.Join(parts, "\x1f")
				}
				if seen[key] {
					return false, nil
				}
				seen[key] = true
				return true, nil
			})
		})
}

func sortRowsStep() pipeline.Step {
	return pipeline.NewFuncStep("sort_rows", "Sort rows",
		func(ctx context.Context, ds *dataset.Dataset, params pipeline.Params) (*dataset.Dataset, error) {
			by, err := params.RequireStringSlice("by")
			if err != nil {
				return nil, err
			}
			descending, err := params.Bool("descending", false)
			if err != nil {
				return nil, err
			}
			indices := make([]int, len(by))
			for i, col := range by {
				idx, err := ds.ColumnIndex(col)
				if err != nil {
					return nil, err
				}
				indices[i] = idx
			}

			out := ds.Clone()
			sort.SliceStable(out.Rows, func(i, j int) bool {
				for _, idx := range indices {
					c := compareCells(out.Rows[i][idx], out.Rows[j][idx])
					if c == 0 {
						continue
					}
					if descending {
						return c > 0
					}
					return c < 0
				}
				return false
			})
			return out, nil
		}).WithValidator(func(params pipeline.Params) error {
		_, err := params.RequireStringSlice("by")
		return err
	})
}

func fillNullStep() pipeline.Step {
	return pipeline.NewFuncStep("fill_null", "Fill null cells with constants",
		func(ctx context.Context, ds *dataset.Dataset, params pipeline.Params) (*dataset.Dataset, error) {
			values, err := params.RequireStringMap("values")
			if err != nil {
				return nil, err
			}
			out := ds.Clone()
			for _, col := range out.Columns {
				fill, ok := values[col]
				if !ok {
					continue
				}
				idx, _ := out.ColumnIndex(col)
				for i := range out.Rows {
					if out.Rows[i][idx] == "" {
						out.Rows[i][idx] = fill
					}
				}
			}
			for col := range values {
				if !out.HasColumn(col) {
					return nil, fmt.Errorf("column %q not found", col)
				}
			}
			return out, nil
		}).WithValidator(func(params pipeline.Params) error {
		_, err := params.RequireStringMap("values")
		return err
	})
}

func replacePatternStep() pipeline.Step {
	return pipeline.NewFuncStep("replace_pattern", "Regex-replace in a column",
		func(ctx context.Context, ds *dataset.Dataset, params pipeline.Params) (*dataset.Dataset, error) {
			column, err := params.RequireString("column")
			if err != nil {
				return nil, err
			}
			pattern, err := params.RequireString("pattern")
			if err != nil {
				return nil, err
			}
			replacement := params.String("replacement", "")
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
			idx, err := ds.ColumnIndex(column)
			if err != nil {
				return nil, err
			}
			out := ds.Clone()
			for i := range out.Rows {
				out.Rows[i][idx] = re.ReplaceAllString(out.Rows[i][idx], replacement)
			}
			return out, nil
		}).WithValidator(func(params pipeline.Params) error {
		if _, err := params.RequireString("column"); err != nil {
			return err
		}
		_, err := params.RequireString("pattern")
		return err
	})
}

// mapColumnStep rewrites a column through a lookup table loaded from a
// CSV file. Values listed in the optional JSON exclusion file map to
// themselves; values absent from the lookup keep their current cell.
func mapColumnStep() pipeline.Step {
	return pipeline.NewFuncStep("map_column", "Map a column through a lookup table",
		func(ctx context.Context, ds *dataset.Dataset, params pipeline.Params) (*dataset.Dataset, error) {
			column, err := params.RequireString("column")
			if err != nil {
				return nil, err
			}
			lookupPath, err := params.RequireString("lookup")
			if err != nil {
				return nil, err
			}
			keyColumn, err := params.RequireString("key_column")
			if err != nil {
				return nil, err
			}
			valueColumn, err := params.RequireString("value_column")
			if err != nil {
				return nil, err
			}

			lookup, err := dataset.LoadLookup(lookupPath, keyColumn, valueColumn)
			if err != nil {
				return nil, err
			}

			if excludePath := params.String("exclude", ""); excludePath != "" {
				excludeKey, err := params.RequireString("exclude_key")
				if err != nil {
					return nil, err
				}
				var exclusions map[string][]string
				if err := dataset.LoadJSON(excludePath, &exclusions); err != nil {
					return nil, err
				}
				for _, v := range exclusions[excludeKey] {
					lookup[v] = v
				}
			}

			idx, err := ds.ColumnIndex(column)
			if err != nil {
				return nil, err
			}
			out := ds.Clone()
			for i := range out.Rows {
				if mapped, ok := lookup[out.Rows[i][idx]]; ok && mapped != "" {
					out.Rows[i][idx] = mapped
				}
			}
			return out, nil
		}).WithValidator(func(params pipeline.Params) error {
		for _, key := range []string{"column", "lookup", "key_column", "value_column"} {
			if _, err := params.RequireString(key); err != nil {
				return err
			}
		}
		return nil
	})
}

var aggregators = map[string]bool{
	"sum": true, "max": true, "min": true, "first": true, "last": true, "count": true,
}

// groupByStep groups rows by key columns and aggregates the named value
// columns. Groups are emitted in first-appearance order so the output is
// deterministic for a given input.
func groupByStep() pipeline.Step {
	return pipeline.NewFuncStep("group_by", "Group rows and aggregate",
		func(ctx context.Context, ds *dataset.Dataset, params pipeline.Params) (*dataset.Dataset, error) {
			by, err := params.RequireStringSlice("by")
			if err != nil {
				return nil, err
			}
			aggregate, err := params.RequireStringMap("aggregate")
			if err != nil {
				return nil, err
			}

			byIdx := make([]int, len(by))
			for i, col := range by {
				idx, err := ds.ColumnIndex(col)
				if err != nil {
					return nil, err
				}
				byIdx[i] = idx
			}

			// Aggregated columns keep the input column order.
			var aggCols []string
			for _, col := range ds.Columns {
				if op, ok := aggregate[col]; ok {
					if !aggregators[op] {
						return nil, fmt.Errorf("unknown aggregator %q for column %q", op, col)
					}
					aggCols = append(aggCols, col)
				}
			}
			for col := range aggregate {
				if !ds.HasColumn(col) {
					return nil, fmt.Errorf("column %q not found", col)
				}
			}

			type group struct {
				keys   []string
				sums   map[string]float64
				floats map[string]float64 // max/min running value
				firsts map[string]string
				lasts  map[string]string
				count  int
			}
			var order []string
			groups := make(map[string]*group)

			for row := range ds.Rows {
				keyParts := make([]string, len(byIdx))
				for i, idx := range byIdx {
					keyParts[i] = ds.Rows[row][idx]
				}
				key := strings.Join(keyParts, "\x1f")
				g, ok := groups[key]
				if !ok {
					g = &group{
						keys:   keyParts,
						sums:   make(map[string]float64),
						floats: make(map[string]float64),
						firsts: make(map[string]string),
						lasts:  make(map[string]string),
					}
					groups[key] = g
					order = append(order, key)
				}
				g.count++
				for _, col := range aggCols {
					cell, _ := ds.Value(row, col)
					switch aggregate[col] {
					case "sum":
						f, err := ds.Float(row, col)
						if err != nil {
							return nil, err
						}
						g.sums[col] += f
					case "max", "min":
						f, err := ds.Float(row, col)
						if err != nil {
							return nil, err
						}
						cur, seen := g.floats[col]
						if !seen ||
							(aggregate[col] == "max" && f > cur) ||
							(aggregate[col] == "min" && f < cur) {
							g.floats[col] = f
						}
					case "first":
						if _, seen := g.firsts[col]; !seen {
							g.firsts[col] = cell
						}
					case "last":
						g.lasts[col] = cell
					}
				}
			}

			columns := append(append([]string{}, by...), aggCols...)
			out := dataset.New(columns...)
			for _, key := range order {
				g := groups[key]
				row := append([]string{}, g.keys...)
				for _, col := range aggCols {
					switch aggregate[col] {
					case "sum":
						row = append(row, formatFloat(g.sums[col]))
					case "max", "min":
						row = append(row, formatFloat(g.floats[col]))
					case "first":
						row = append(row, g.firsts[col])
					case "last":
						row = append(row, g.lasts[col])
					case "count":
						row = append(row, strconv.Itoa(g.count))
					}
				}
				out.Rows = append(out.Rows, row)
			}
			return out, nil
		}).WithValidator(func(params pipeline.Params) error {
		if _, err := params.RequireStringSlice("by"); err != nil {
			return err
		}
		aggregate, err := params.RequireStringMap("aggregate")
		if err != nil {
			return err
		}
		for col, op := range aggregate {
			if !aggregators[op] {
				return pipeline.NewValidationError("", fmt.Sprintf("unknown aggregator %q for column %q", op, col))
			}
		}
		return nil
	})
}

func deriveDurationStep() pipeline.Step {
	return pipeline.NewFuncStep("derive_duration", "Derive duration between two time columns",
		func(ctx context.Context, ds *dataset.Dataset, params pipeline.Params) (*dataset.Dataset, error) {
			startCol, err := params.RequireString("start")
			if err != nil {
				return nil, err
			}
			endCol, err := params.RequireString("end")
			if err != nil {
				return nil, err
			}
			target, err := params.RequireString("target")
			if err != nil {
				return nil, err
			}
			unit := params.String("unit", "minutes")

			out := ds.Clone()
			if err := out.AddColumn(target, ""); err != nil {
				return nil, err
			}
			for i := range out.Rows {
				start, err := out.Time(i, startCol)
				if err != nil {
					return nil, err
				}
				end, err := out.Time(i, endCol)
				if err != nil {
					return nil, err
				}
				d := end.Sub(start)
				var value float64
				switch unit {
				case "seconds":
					value = d.Seconds()
				case "minutes":
					value = d.Minutes()
				case "hours":
					value = d.Hours()
				default:
					return nil, fmt.Errorf("unknown duration unit %q", unit)
				}
				if err := out.SetValue(i, target, formatFloat(value)); err != nil {
					return nil, err
				}
			}
			return out, nil
		}).WithValidator(func(params pipeline.Params) error {
		for _, key := range []string{"start", "end", "target"} {
			if _, err := params.RequireString(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// formatFloat renders aggregates without trailing zero noise so output
// files are stable across runs.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
