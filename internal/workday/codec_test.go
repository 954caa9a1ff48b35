package workday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiftcli/pkg/contracts/domain"
)

func ts(hour, min, sec int) time.Time {
	return time.Date(2024, 1, 15, hour, min, sec, 0, time.UTC)
}

func TestSpansRoundTrip(t *testing.T) {
	spans := []domain.ActivitySpan{
		{
			EmployeeID:  "emp1",
			App:         "Slack",
			Site:        "",
			Start:       ts(9, 0, 0),
			End:         ts(9, 30, 0),
			MouseClicks: 12,
			Keystrokes:  340,
			MouseScroll: 5,
			Mic:         true,
			Camera:      false,
		},
		{
			EmployeeID: "emp2",
			App:        "Chrome",
			Site:       "example.com",
			Start:      ts(10, 0, 0),
			End:        ts(10, 5, 0),
		},
	}

	ds := SpansToDataset(spans)
	assert.Equal(t, activityColumns, ds.Columns)
	require.Equal(t, 2, ds.NumRows())

	back, err := SpansFromDataset(ds)
	require.NoError(t, err)
	assert.Equal(t, spans, back)
}

func TestSpansToDatasetFormatsTimes(t *testing.T) {
	ds := SpansToDataset([]domain.ActivitySpan{
		{EmployeeID: "e", App: "A", Start: ts(9, 0, 0), End: ts(9, 1, 0)},
	})

	v, err := ds.Value(0, "start_time")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15 09:00:00", v)
}

func TestWorkdaysRoundTrip(t *testing.T) {
	w := &domain.Workday{
		ID:         "emp1_1",
		EmployeeID: "emp1",
		Start:      ts(9, 0, 0),
		End:        ts(12, 0, 0),
	}
	w.AppendEntry("Slack", ts(9, 0, 0), ts(10, 0, 0), 10, 200, 3, true, false)
	w.AppendEntry("Chrome", ts(10, 0, 0), ts(12, 0, 0), 40, 100, 9, false, false)

	ds, err := WorkdaysToDataset([]*domain.Workday{w}, false)
	require.NoError(t, err)
	assert.Equal(t, workdayColumns, ds.Columns)

	back, err := WorkdaysFromDataset(ds)
	require.NoError(t, err)
	require.Len(t, back, 1)

	got := back[0]
	assert.Equal(t, "emp1_1", got.ID)
	assert.Equal(t, "emp1", got.EmployeeID)
	assert.Equal(t, w.Apps, got.Apps)
	assert.Equal(t, w.Durations, got.Durations)
	assert.Equal(t, w.EntryStarts, got.EntryStarts)
	assert.Equal(t, w.EntryEnds, got.EntryEnds)
	assert.Equal(t, w.MouseClicks, got.MouseClicks)
	assert.Equal(t, w.Keystrokes, got.Keystrokes)
	assert.Equal(t, w.Mic, got.Mic)
	assert.Equal(t, w.Start, got.Start)
	assert.Equal(t, w.End, got.End)
	// Without feature columns the duration falls back to end minus start.
	assert.Equal(t, 180.0, got.DurationMinutes)
}

func TestWorkdaysRoundTripWithFeatures(t *testing.T) {
	w := &domain.Workday{
		ID:              "emp1_2",
		EmployeeID:      "emp1",
		Start:           ts(9, 0, 0),
		End:             ts(10, 0, 0),
		HoursUntilNext:  -1,
		DurationMinutes: 60,
	}
	w.AppendEntry("Slack", ts(9, 0, 0), ts(10, 0, 0), 0, 0, 0, false, false)

	ds, err := WorkdaysToDataset([]*domain.Workday{w}, true)
	require.NoError(t, err)
	assert.Equal(t, append(append([]string{}, workdayColumns...), featureColumns...), ds.Columns)

	v, err := ds.Value(0, "hours_until_next_workday")
	require.NoError(t, err)
	assert.Equal(t, "-1", v)

	back, err := WorkdaysFromDataset(ds)
	require.NoError(t, err)
	assert.Equal(t, -1.0, back[0].HoursUntilNext)
	assert.Equal(t, 60.0, back[0].DurationMinutes)
}

func TestWorkdaysFromDatasetBadCell(t *testing.T) {
	w := &domain.Workday{ID: "e_1", EmployeeID: "e", Start: ts(9, 0, 0), End: ts(10, 0, 0)}
	w.AppendEntry("A", ts(9, 0, 0), ts(10, 0, 0), 0, 0, 0, false, false)

	ds, err := WorkdaysToDataset([]*domain.Workday{w}, false)
	require.NoError(t, err)
	require.NoError(t, ds.SetValue(0, "apps", "not json"))

	_, err = WorkdaysFromDataset(ds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"apps"`)
}

func TestBaseEmployeeID(t *testing.T) {
	assert.Equal(t, "emp1", domain.BaseEmployeeID("emp1_3"))
	assert.Equal(t, "emp_a", domain.BaseEmployeeID("emp_a_12"))
	assert.Equal(t, "plain", domain.BaseEmployeeID("plain"))
}
