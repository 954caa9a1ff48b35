package workday

import (
	"context"
	"sort"
	"strconv"
	"time"

	"shiftcli/internal/dataset"
	"shiftcli/internal/pipeline"
	"shiftcli/pkg/contracts/domain"
)

// Register adds every workday domain step to the registry.
func Register(r *pipeline.Registry) {
	r.MustRegister(normalizeActivityStep())
	r.MustRegister(applyMappingsStep())
	r.MustRegister(mergeConsecutiveStep())
	r.MustRegister(sessionizeStep())
	r.MustRegister(absorbLogLostStep())
	r.MustRegister(dropDateRangeStep())
	r.MustRegister(workdayFeaturesStep())
	r.MustRegister(consolidateWorkdaysStep())
	r.MustRegister(workdaySummaryStep())
}

func sortSpans(spans []domain.ActivitySpan) {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].EmployeeID != spans[j].EmployeeID {
			return spans[i].EmployeeID < spans[j].EmployeeID
		}
		return spans[i].Start.Before(spans[j].Start)
	})
}

func sortWorkdays(workdays []*domain.Workday) {
	sort.SliceStable(workdays, func(i, j int) bool {
		if workdays[i].EmployeeID != workdays[j].EmployeeID {
			return workdays[i].EmployeeID < workdays[j].EmployeeID
		}
		return workdays[i].Start.Before(workdays[j].Start)
	})
}

// normalizeActivityStep converts a raw activity export into the
// canonical span dataset: inactive spans become "Concentration Lost",
// epoch-millisecond timestamps become time cells, null counters become
// zero, and browser apps without a site become "Private Links".
func normalizeActivityStep() pipeline.Step {
	return pipeline.NewFuncStep("normalize_activity", "Normalize raw activity spans",
		func(ctx context.Context, ds *dataset.Dataset, params pipeline.Params) (*dataset.Dataset, error) {
			var browsers map[string]bool
			if path := params.String("browsers_csv", ""); path != "" {
				column := params.String("browsers_column", "browsers")
				names, err := dataset.LoadColumn(path, column)
				if err != nil {
					return nil, err
				}
				browsers = make(map[string]bool, len(names))
				for _, name := range names {
					browsers[name] = true
				}
			}

			spans := make([]domain.ActivitySpan, 0, ds.NumRows())
			for i := range ds.Rows {
				s := domain.ActivitySpan{}
				var err error
				if s.EmployeeID, err = ds.Value(i, "employee_id"); err != nil {
					return nil, err
				}
				if s.App, err = ds.Value(i, "app"); err != nil {
					return nil, err
				}
				if s.Site, err = ds.Value(i, "site"); err != nil {
					return nil, err
				}
				if s.Start, err = ds.EpochMillis(i, "start"); err != nil {
					return nil, err
				}
				if s.End, err = ds.EpochMillis(i, "end"); err != nil {
					return nil, err
				}
				if s.MouseClicks, err = nullableInt(ds, i, "mouse_clicks"); err != nil {
					return nil, err
				}
				if s.Keystrokes, err = nullableInt(ds, i, "keystrokes"); err != nil {
					return nil, err
				}
				if s.MouseScroll, err = nullableInt(ds, i, "mouse_scroll"); err != nil {
					return nil, err
				}
				if s.Mic, err = ds.Bool(i, "mic"); err != nil {
					return nil, err
				}
				if s.Camera, err = ds.Bool(i, "camera"); err != nil {
					return nil, err
				}

				// Only an explicit false marks the span inactive; a
				// missing active cell counts as active.
				active, err := ds.Value(i, "active")
				if err != nil {
					return nil, err
				}
				if active != "" {
					b, err := strconv.ParseBool(active)
					if err != nil {
						return nil, err
					}
					if !b {
						s.App = domain.AppConcentrationLost
					}
				}

				if browsers[s.App] && s.Site == "" {
					s.App = domain.AppPrivateLinks
				}
				spans = append(spans, s)
			}

			sortSpans(spans)
			return SpansToDataset(spans), nil
		})
}

// applyMappingsStep canonicalizes app names: the site lookup first (a
// mapped site replaces the app), then the app lookup. Values listed in
// the exclusion file map to themselves; the optional suffix is appended
// to every app-lookup result.
func applyMappingsStep() pipeline.Step {
	return pipeline.NewFuncStep("apply_mappings", "Map sites and apps to canonical names",
		func(ctx context.Context, ds *dataset.Dataset, params pipeline.Params) (*dataset.Dataset, error) {
			sitePath, err := params.RequireString("site_lookup")
			if err != nil {
				return nil, err
			}
			appPath, err := params.RequireString("app_lookup")
			if err != nil {
				return nil, err
			}
			siteLookup, err := dataset.LoadLookup(sitePath,
				params.String("site_key", "site"), params.String("site_value", "site_mapping"))
			if err != nil {
				return nil, err
			}
			appSuffix := params.String("app_suffix", "")
			appLookup, err := dataset.LoadLookup(appPath,
				params.String("app_key", "app"), params.String("app_value", "app_mapping"))
			if err != nil {
				return nil, err
			}
			for k, v := range appLookup {
				if v != "" {
					appLookup[k] = v + appSuffix
				}
			}

			if excludePath := params.String("exclusions", ""); excludePath != "" {
				var exclusions map[string][]string
				if err := dataset.LoadJSON(excludePath, &exclusions); err != nil {
					return nil, err
				}
				for _, site := range exclusions["sites"] {
					siteLookup[site] = site
				}
				for _, app := range exclusions["apps"] {
					appLookup[app] = app
				}
			}

			appIdx, err := ds.ColumnIndex("app")
			if err != nil {
				return nil, err
			}
			siteIdx, err := ds.ColumnIndex("site")
			if err != nil {
				return nil, err
			}

			out := ds.Clone()
			for i := range out.Rows {
				if site := out.Rows[i][siteIdx]; site != "" {
					if mapped, ok := siteLookup[site]; ok && mapped != "" {
						out.Rows[i][appIdx] = mapped
					}
				}
				if mapped, ok := appLookup[out.Rows[i][appIdx]]; ok && mapped != "" {
					out.Rows[i][appIdx] = mapped
				}
			}
			return out, nil
		}).WithValidator(func(params pipeline.Params) error {
		if _, err := params.RequireString("site_lookup"); err != nil {
			return err
		}
		_, err := params.RequireString("app_lookup")
		return err
	})
}

// mergeConsecutiveStep folds runs of contiguous spans with the same
// employee and app into one span, summing counters and OR-ing devices.
func mergeConsecutiveStep() pipeline.Step {
	return pipeline.NewFuncStep("merge_consecutive", "Merge contiguous same-app spans",
		func(ctx context.Context, ds *dataset.Dataset, params pipeline.Params) (*dataset.Dataset, error) {
			spans, err := SpansFromDataset(ds)
			if err != nil {
				return nil, err
			}
			sortSpans(spans)

			var merged []domain.ActivitySpan
			for _, s := range spans {
				if len(merged) > 0 {
					prev := &merged[len(merged)-1]
					if prev.EmployeeID == s.EmployeeID && prev.App == s.App && prev.Contiguous(s) {
						prev.Merge(s)
						continue
					}
				}
				merged = append(merged, s)
			}
			return SpansToDataset(merged), nil
		})
}

// sessionizeStep splits each employee's span sequence into workdays at
// gaps of max_gap or longer. Short gaps stay inside the workday as
// synthetic entries: up to log_lost_max as "Log Lost/Software Bug",
// anything longer (but below max_gap) as "Pause".
func sessionizeStep() pipeline.Step {
	return pipeline.NewFuncStep("sessionize", "Split spans into workdays",
		func(ctx context.Context, ds *dataset.Dataset, params pipeline.Params) (*dataset.Dataset, error) {
			maxGap, err := params.RequireDuration("max_gap")
			if err != nil {
				return nil, err
			}
			logLostMax, err := params.Duration("log_lost_max", 20*time.Second)
			if err != nil {
				return nil, err
			}

			spans, err := SpansFromDataset(ds)
			if err != nil {
				return nil, err
			}
			sortSpans(spans)

			byEmployee := make(map[string][]domain.ActivitySpan)
			var employees []string
			for _, s := range spans {
				if _, ok := byEmployee[s.EmployeeID]; !ok {
					employees = append(employees, s.EmployeeID)
				}
				byEmployee[s.EmployeeID] = append(byEmployee[s.EmployeeID], s)
			}
			sort.Strings(employees)

			var workdays []*domain.Workday
			for _, employee := range employees {
				counter := 1
				var current *domain.Workday
				var lastEnd time.Time

				for _, s := range byEmployee[employee] {
					if current == nil {
						current = &domain.Workday{
							ID:         domain.NewWorkdayID(employee, counter),
							EmployeeID: employee,
							Start:      s.Start,
						}
						current.AppendSpan(s)
						lastEnd = s.End
						continue
					}

					gap := s.Start.Sub(lastEnd)
					if gap >= maxGap {
						current.End = lastEnd
						workdays = append(workdays, current)
						counter++
						current = &domain.Workday{
							ID:         domain.NewWorkdayID(employee, counter),
							EmployeeID: employee,
							Start:      s.Start,
						}
						current.AppendSpan(s)
						lastEnd = s.End
						continue
					}

					if gap > 0 && gap <= logLostMax {
						current.AppendGap(domain.AppLogLost, lastEnd, s.Start)
					} else if gap > logLostMax {
						current.AppendGap(domain.AppPause, lastEnd, s.Start)
					}
					current.AppendSpan(s)
					lastEnd = s.End
				}

				if current != nil {
					current.End = lastEnd
					workdays = append(workdays, current)
				}
			}

			return WorkdaysToDataset(workdays, false)
		}).WithValidator(func(params pipeline.Params) error {
		_, err := params.RequireDuration("max_gap")
		return err
	})
}

// absorbLogLostStep folds "Log Lost/Software Bug" entries into the entry
// before them and merges consecutive same-app entries that touch. A Log
// Lost entry at the very start of a workday is dropped.
func absorbLogLostStep() pipeline.Step {
	return pipeline.NewFuncStep("absorb_log_lost", "Fold log-lost entries into neighbors",
		func(ctx context.Context, ds *dataset.Dataset, params pipeline.Params) (*dataset.Dataset, error) {
			workdays, err := WorkdaysFromDataset(ds)
			if err != nil {
				return nil, err
			}

			for _, w := range workdays {
				out := &domain.Workday{
					ID:         w.ID,
					EmployeeID: w.EmployeeID,
					Start:      w.Start,
					End:        w.End,
				}
				for i := range w.Apps {
					if w.Apps[i] == domain.AppLogLost {
						if prev := out.Entries() - 1; prev >= 0 {
							out.MergeEntryInto(prev, w.Apps[i], w.Durations[i], w.EntryEnds[i],
								w.MouseClicks[i], w.Keystrokes[i], w.MouseScroll[i], w.Mic[i], w.Camera[i])
						}
						continue
					}
					if prev := out.Entries() - 1; prev >= 0 &&
						out.Apps[prev] == w.Apps[i] && out.EntryEnds[prev].Equal(w.EntryStarts[i]) {
						out.MergeEntryInto(prev, w.Apps[i], w.Durations[i], w.EntryEnds[i],
							w.MouseClicks[i], w.Keystrokes[i], w.MouseScroll[i], w.Mic[i], w.Camera[i])
						continue
					}
					out.AppendEntry(w.Apps[i], w.EntryStarts[i], w.EntryEnds[i],
						w.MouseClicks[i], w.Keystrokes[i], w.MouseScroll[i], w.Mic[i], w.Camera[i])
					// AppendEntry recomputes the duration from the entry
					// times; keep the accumulated duration instead.
					out.Durations[out.Entries()-1] = w.Durations[i]
				}
				*w = *out
			}

			return WorkdaysToDataset(workdays, ds.HasColumn("workday_duration"))
		})
}

// dropDateRangeStep removes workdays that start inside [from, to].
func dropDateRangeStep() pipeline.Step {
	return pipeline.NewFuncStep("drop_date_range", "Drop workdays in a date range",
		func(ctx context.Context, ds *dataset.Dataset, params pipeline.Params) (*dataset.Dataset, error) {
			from, err := params.RequireTime("from")
			if err != nil {
				return nil, err
			}
			to, err := params.RequireTime("to")
			if err != nil {
				return nil, err
			}

			workdays, err := WorkdaysFromDataset(ds)
			if err != nil {
				return nil, err
			}
			kept := workdays[:0]
			for _, w := range workdays {
				inRange := !w.Start.Before(from) && !w.Start.After(to)
				if !inRange {
					kept = append(kept, w)
				}
			}
			return WorkdaysToDataset(kept, ds.HasColumn("workday_duration"))
		}).WithValidator(func(params pipeline.Params) error {
		if _, err := params.RequireTime("from"); err != nil {
			return err
		}
		_, err := params.RequireTime("to")
		return err
	})
}

// computeHoursUntilNext fills HoursUntilNext per employee over workdays
// that are already sorted by employee and start time. The last workday
// of an employee gets -1.
func computeHoursUntilNext(workdays []*domain.Workday) {
	for i, w := range workdays {
		if i+1 < len(workdays) && workdays[i+1].EmployeeID == w.EmployeeID {
			w.HoursUntilNext = workdays[i+1].Start.Sub(w.End).Hours()
		} else {
			w.HoursUntilNext = -1
		}
	}
}

// workdayFeaturesStep derives per-workday features: the workday duration
// in minutes and the hours until the employee's next workday.
func workdayFeaturesStep() pipeline.Step {
	return pipeline.NewFuncStep("workday_features", "Derive workday features",
		func(ctx context.Context, ds *dataset.Dataset, params pipeline.Params) (*dataset.Dataset, error) {
			workdays, err := WorkdaysFromDataset(ds)
			if err != nil {
				return nil, err
			}
			sortWorkdays(workdays)
			for _, w := range workdays {
				w.DurationMinutes = w.End.Sub(w.Start).Minutes()
			}
			computeHoursUntilNext(workdays)
			return WorkdaysToDataset(workdays, true)
		})
}

// consolidateWorkdaysStep drops workdays shorter than min_duration, then
// merges adjacent workdays of the same employee separated by less than
// merge_gap, inserting a Pause entry over the gap. Features are
// recomputed afterwards.
func consolidateWorkdaysStep() pipeline.Step {
	return pipeline.NewFuncStep("consolidate_workdays", "Drop short workdays and merge adjacent ones",
		func(ctx context.Context, ds *dataset.Dataset, params pipeline.Params) (*dataset.Dataset, error) {
			minDuration, err := params.Duration("min_duration", 45*time.Minute)
			if err != nil {
				return nil, err
			}
			mergeGap, err := params.Duration("merge_gap", 3*time.Hour)
			if err != nil {
				return nil, err
			}

			workdays, err := WorkdaysFromDataset(ds)
			if err != nil {
				return nil, err
			}
			sortWorkdays(workdays)

			kept := workdays[:0]
			for _, w := range workdays {
				if w.DurationMinutes >= minDuration.Minutes() {
					kept = append(kept, w)
				}
			}

			var merged []*domain.Workday
			for _, w := range kept {
				if len(merged) > 0 {
					prev := merged[len(merged)-1]
					if prev.EmployeeID == w.EmployeeID {
						gap := w.Start.Sub(prev.End)
						if gap >= 0 && gap < mergeGap {
							prev.Absorb(w)
							prev.DurationMinutes = prev.End.Sub(prev.Start).Minutes()
							continue
						}
					}
				}
				merged = append(merged, w)
			}

			computeHoursUntilNext(merged)
			return WorkdaysToDataset(merged, true)
		})
}

// workdaySummaryStep reduces a workday dataset to one row per employee
// with workday counts and activity totals.
func workdaySummaryStep() pipeline.Step {
	return pipeline.NewFuncStep("workday_summary", "Summarize workdays per employee",
		func(ctx context.Context, ds *dataset.Dataset, params pipeline.Params) (*dataset.Dataset, error) {
			workdays, err := WorkdaysFromDataset(ds)
			if err != nil {
				return nil, err
			}

			type summary struct {
				workdays    int
				minutes     float64
				mouseClicks int64
				keystrokes  int64
			}
			totals := make(map[string]*summary)
			var employees []string
			for _, w := range workdays {
				s, ok := totals[w.EmployeeID]
				if !ok {
					s = &summary{}
					totals[w.EmployeeID] = s
					employees = append(employees, w.EmployeeID)
				}
				s.workdays++
				duration := w.DurationMinutes
				if duration == 0 {
					duration = w.End.Sub(w.Start).Minutes()
				}
				s.minutes += duration
				for _, c := range w.MouseClicks {
					s.mouseClicks += c
				}
				for _, k := range w.Keystrokes {
					s.keystrokes += k
				}
			}
			sort.Strings(employees)

			out := dataset.New("employee_id", "workday_count", "total_duration_minutes",
				"mean_duration_minutes", "total_mouse_clicks", "total_keystrokes")
			for _, employee := range employees {
				s := totals[employee]
				out.Rows = append(out.Rows, []string{
					employee,
					strconv.Itoa(s.workdays),
					formatFloat(s.minutes),
					formatFloat(s.minutes / float64(s.workdays)),
					strconv.FormatInt(s.mouseClicks, 10),
					strconv.FormatInt(s.keystrokes, 10),
				})
			}
			return out, nil
		})
}

// nullableInt parses an integer cell, treating empty as zero.
func nullableInt(ds *dataset.Dataset, row int, column string) (int64, error) {
	null, err := ds.IsNull(row, column)
	if err != nil {
		return 0, err
	}
	if null {
		return 0, nil
	}
	// Raw exports sometimes carry counters as floats ("3.0").
	f, err := ds.Float(row, column)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
