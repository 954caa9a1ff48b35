package domain

import (
	"fmt"
	"regexp"
	"time"
)

// Workday represents one contiguous working session for an employee,
// built from consecutive activity spans separated by gaps shorter than
// the sessionization threshold. The per-entry slices are parallel: entry
// i describes the i-th app usage inside the workday.
type Workday struct {
	ID          string `json:"workday_id"`
	EmployeeID  string `json:"employee_id"`
	Apps        []string
	Durations   []float64 // minutes
	EntryStarts []time.Time
	EntryEnds   []time.Time
	MouseClicks []int64
	Keystrokes  []int64
	MouseScroll []int64
	Mic         []bool
	Camera      []bool
	Start       time.Time
	End         time.Time

	// Derived features, populated by the workday_features step.
	HoursUntilNext  float64
	DurationMinutes float64
}

var workdayIDPattern = regexp.MustCompile(`^(.*)_\d+$`)

// NewWorkdayID builds the identifier for the n-th workday of an employee.
func NewWorkdayID(employeeID string, n int) string {
	return fmt.Sprintf("%s_%d", employeeID, n)
}

// BaseEmployeeID strips the trailing workday counter from a workday ID.
// IDs without a counter are returned unchanged.
func BaseEmployeeID(workdayID string) string {
	if m := workdayIDPattern.FindStringSubmatch(workdayID); m != nil {
		return m[1]
	}
	return workdayID
}

// Entries returns the number of app entries in the workday.
func (w *Workday) Entries() int {
	return len(w.Apps)
}

// AppendEntry adds one app usage entry to the workday.
func (w *Workday) AppendEntry(app string, start, end time.Time, clicks, keys, scroll int64, mic, camera bool) {
	w.Apps = append(w.Apps, app)
	w.Durations = append(w.Durations, end.Sub(start).Minutes())
	w.EntryStarts = append(w.EntryStarts, start)
	w.EntryEnds = append(w.EntryEnds, end)
	w.MouseClicks = append(w.MouseClicks, clicks)
	w.Keystrokes = append(w.Keystrokes, keys)
	w.MouseScroll = append(w.MouseScroll, scroll)
	w.Mic = append(w.Mic, mic)
	w.Camera = append(w.Camera, camera)
}

// AppendSpan adds an activity span as an entry.
func (w *Workday) AppendSpan(s ActivitySpan) {
	w.AppendEntry(s.App, s.Start, s.End, s.MouseClicks, s.Keystrokes, s.MouseScroll, s.Mic, s.Camera)
}

// AppendGap inserts a synthetic entry (Pause or Log Lost) covering the
// gap between two real entries. Counters are zero, devices off.
func (w *Workday) AppendGap(label string, start, end time.Time) {
	w.AppendEntry(label, start, end, 0, 0, 0, false, false)
}

// MergeEntryInto folds entry i into entry i-1 of the target slices:
// the previous entry absorbs the duration, end time and counters.
func (w *Workday) MergeEntryInto(prev int, app string, duration float64, end time.Time, clicks, keys, scroll int64, mic, camera bool) {
	w.Durations[prev] += duration
	w.EntryEnds[prev] = end
	w.MouseClicks[prev] += clicks
	w.Keystrokes[prev] += keys
	w.MouseScroll[prev] += scroll
	w.Mic[prev] = w.Mic[prev] || mic
	w.Camera[prev] = w.Camera[prev] || camera
}

// Absorb appends all entries of other into w, preceded by a Pause entry
// covering the gap between the two workdays, and extends the end time.
func (w *Workday) Absorb(other *Workday) {
	w.AppendGap(AppPause, w.End, other.Start)
	w.Apps = append(w.Apps, other.Apps...)
	w.Durations = append(w.Durations, other.Durations...)
	w.EntryStarts = append(w.EntryStarts, other.EntryStarts...)
	w.EntryEnds = append(w.EntryEnds, other.EntryEnds...)
	w.MouseClicks = append(w.MouseClicks, other.MouseClicks...)
	w.Keystrokes = append(w.Keystrokes, other.Keystrokes...)
	w.MouseScroll = append(w.MouseScroll, other.MouseScroll...)
	w.Mic = append(w.Mic, other.Mic...)
	w.Camera = append(w.Camera, other.Camera...)
	w.End = other.End
}
