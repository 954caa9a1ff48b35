// Package workday implements the domain step catalog for employee
// desktop-activity data: normalizing raw activity exports, mapping app
// and site names through lookup tables, merging contiguous spans,
// segmenting spans into workdays, and deriving workday features.
//
// The steps convert between the pipeline's tabular Dataset and the typed
// records in pkg/contracts/domain at their boundaries; list-valued
// workday columns are stored as JSON arrays inside CSV cells.
package workday
