package workday

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"shiftcli/internal/dataset"
	"shiftcli/pkg/contracts/domain"
)

// Normalized activity dataset columns, in output order.
var activityColumns = []string{
	"employee_id", "app", "site", "start_time", "end_time",
	"mouse_clicks", "keystrokes", "mouse_scroll", "mic", "camera",
}

// Workday dataset columns. Feature columns are appended only once the
// workday_features step has run.
var workdayColumns = []string{
	"workday_id", "apps", "app_durations", "app_start_times", "app_end_times",
	"mouse_clicks", "keystrokes", "mouse_scroll", "mic", "camera",
	"start_time", "end_time",
}

var featureColumns = []string{"hours_until_next_workday", "workday_duration"}

func formatTime(t time.Time) string {
	return t.UTC().Format(dataset.TimeLayout)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// SpansFromDataset reads a normalized activity dataset into typed spans.
func SpansFromDataset(ds *dataset.Dataset) ([]domain.ActivitySpan, error) {
	spans := make([]domain.ActivitySpan, 0, ds.NumRows())
	for i := range ds.Rows {
		employeeID, err := ds.Value(i, "employee_id")
		if err != nil {
			return nil, err
		}
		app, err := ds.Value(i, "app")
		if err != nil {
			return nil, err
		}
		site, err := ds.Value(i, "site")
		if err != nil {
			return nil, err
		}
		start, err := ds.Time(i, "start_time")
		if err != nil {
			return nil, err
		}
		end, err := ds.Time(i, "end_time")
		if err != nil {
			return nil, err
		}
		clicks, err := ds.Int(i, "mouse_clicks")
		if err != nil {
			return nil, err
		}
		keys, err := ds.Int(i, "keystrokes")
		if err != nil {
			return nil, err
		}
		scroll, err := ds.Int(i, "mouse_scroll")
		if err != nil {
			return nil, err
		}
		mic, err := ds.Bool(i, "mic")
		if err != nil {
			return nil, err
		}
		camera, err := ds.Bool(i, "camera")
		if err != nil {
			return nil, err
		}
		spans = append(spans, domain.ActivitySpan{
			EmployeeID:  employeeID,
			App:         app,
			Site:        site,
			Start:       start,
			End:         end,
			MouseClicks: clicks,
			Keystrokes:  keys,
			MouseScroll: scroll,
			Mic:         mic,
			Camera:      camera,
		})
	}
	return spans, nil
}

// SpansToDataset writes typed spans back into the normalized activity
// dataset shape.
func SpansToDataset(spans []domain.ActivitySpan) *dataset.Dataset {
	ds := dataset.New(activityColumns...)
	for _, s := range spans {
		ds.Rows = append(ds.Rows, []string{
			s.EmployeeID,
			s.App,
			s.Site,
			formatTime(s.Start),
			formatTime(s.End),
			strconv.FormatInt(s.MouseClicks, 10),
			strconv.FormatInt(s.Keystrokes, 10),
			strconv.FormatInt(s.MouseScroll, 10),
			strconv.FormatBool(s.Mic),
			strconv.FormatBool(s.Camera),
		})
	}
	return ds
}

func marshalCell(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode cell: %w", err)
	}
	return string(data), nil
}

func timesToStrings(times []time.Time) []string {
	out := make([]string, len(times))
	for i, t := range times {
		out[i] = formatTime(t)
	}
	return out
}

// WorkdaysToDataset writes typed workdays into the workday dataset
// shape. Feature columns are included when withFeatures is set.
func WorkdaysToDataset(workdays []*domain.Workday, withFeatures bool) (*dataset.Dataset, error) {
	columns := append([]string{}, workdayColumns...)
	if withFeatures {
		columns = append(columns, featureColumns...)
	}
	ds := dataset.New(columns...)
	for _, w := range workdays {
		cells := make([]string, 0, len(columns))
		cells = append(cells, w.ID)
		for _, v := range []interface{}{
			w.Apps, w.Durations, timesToStrings(w.EntryStarts), timesToStrings(w.EntryEnds),
			w.MouseClicks, w.Keystrokes, w.MouseScroll, w.Mic, w.Camera,
		} {
			cell, err := marshalCell(v)
			if err != nil {
				return nil, err
			}
			cells = append(cells, cell)
		}
		cells = append(cells, formatTime(w.Start), formatTime(w.End))
		if withFeatures {
			cells = append(cells, formatFloat(w.HoursUntilNext), formatFloat(w.DurationMinutes))
		}
		ds.Rows = append(ds.Rows, cells)
	}
	return ds, nil
}

func unmarshalCell(ds *dataset.Dataset, row int, column string, dest interface{}) error {
	cell, err := ds.Value(row, column)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(cell), dest); err != nil {
		return fmt.Errorf("column %q row %d: %w", column, row, err)
	}
	return nil
}

func parseTimes(values []string) ([]time.Time, error) {
	out := make([]time.Time, len(values))
	for i, v := range values {
		t, err := time.Parse(dataset.TimeLayout, v)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// WorkdaysFromDataset reads a workday dataset back into typed records.
// Feature columns are read when present.
func WorkdaysFromDataset(ds *dataset.Dataset) ([]*domain.Workday, error) {
	hasFeatures := ds.HasColumn("workday_duration")
	workdays := make([]*domain.Workday, 0, ds.NumRows())
	for i := range ds.Rows {
		w := &domain.Workday{}
		var err error
		if w.ID, err = ds.Value(i, "workday_id"); err != nil {
			return nil, err
		}
		w.EmployeeID = domain.BaseEmployeeID(w.ID)

		if err := unmarshalCell(ds, i, "apps", &w.Apps); err != nil {
			return nil, err
		}
		if err := unmarshalCell(ds, i, "app_durations", &w.Durations); err != nil {
			return nil, err
		}
		var starts, ends []string
		if err := unmarshalCell(ds, i, "app_start_times", &starts); err != nil {
			return nil, err
		}
		if err := unmarshalCell(ds, i, "app_end_times", &ends); err != nil {
			return nil, err
		}
		if w.EntryStarts, err = parseTimes(starts); err != nil {
			return nil, fmt.Errorf("row %d app_start_times: %w", i, err)
		}
		if w.EntryEnds, err = parseTimes(ends); err != nil {
			return nil, fmt.Errorf("row %d app_end_times: %w", i, err)
		}
		if err := unmarshalCell(ds, i, "mouse_clicks", &w.MouseClicks); err != nil {
			return nil, err
		}
		if err := unmarshalCell(ds, i, "keystrokes", &w.Keystrokes); err != nil {
			return nil, err
		}
		if err := unmarshalCell(ds, i, "mouse_scroll", &w.MouseScroll); err != nil {
			return nil, err
		}
		if err := unmarshalCell(ds, i, "mic", &w.Mic); err != nil {
			return nil, err
		}
		if err := unmarshalCell(ds, i, "camera", &w.Camera); err != nil {
			return nil, err
		}
		if w.Start, err = ds.Time(i, "start_time"); err != nil {
			return nil, err
		}
		if w.End, err = ds.Time(i, "end_time"); err != nil {
			return nil, err
		}
		if hasFeatures {
			if w.HoursUntilNext, err = ds.Float(i, "hours_until_next_workday"); err != nil {
				return nil, err
			}
			if w.DurationMinutes, err = ds.Float(i, "workday_duration"); err != nil {
				return nil, err
			}
		} else {
			w.DurationMinutes = w.End.Sub(w.Start).Minutes()
		}
		workdays = append(workdays, w)
	}
	return workdays, nil
}
