package domain

import (
	"time"
)

// Well-known app labels produced by the pipeline.
const (
	AppConcentrationLost = "Concentration Lost"
	AppPrivateLinks      = "Private Links"
	AppLogLost           = "Log Lost/Software Bug"
	AppPause             = "Pause"
)

// ActivitySpan represents one contiguous slice of recorded desktop activity
// for a single employee: the foreground app, the site if the app is a
// browser, and the input counters accumulated over the span.
type ActivitySpan struct {
	EmployeeID  string    `json:"employee_id"`
	App         string    `json:"app"`
	Site        string    `json:"site,omitempty"`
	Start       time.Time `json:"start_time"`
	End         time.Time `json:"end_time"`
	MouseClicks int64     `json:"mouse_clicks"`
	Keystrokes  int64     `json:"keystrokes"`
	MouseScroll int64     `json:"mouse_scroll"`
	Mic         bool      `json:"mic"`
	Camera      bool      `json:"camera"`
}

// Duration returns the span length.
func (s ActivitySpan) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// DurationMinutes returns the span length in minutes.
func (s ActivitySpan) DurationMinutes() float64 {
	return s.End.Sub(s.Start).Minutes()
}

// Contiguous reports whether next starts exactly where this span ends.
func (s ActivitySpan) Contiguous(next ActivitySpan) bool {
	return s.End.Equal(next.Start)
}

// Merge extends this span with next, summing counters and OR-ing the
// boolean device flags. The caller is responsible for checking that the
// spans belong together.
func (s *ActivitySpan) Merge(next ActivitySpan) {
	s.End = next.End
	s.MouseClicks += next.MouseClicks
	s.Keystrokes += next.Keystrokes
	s.MouseScroll += next.MouseScroll
	s.Mic = s.Mic || next.Mic
	s.Camera = s.Camera || next.Camera
}
