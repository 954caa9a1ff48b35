// Package files discovers the data files a pipeline stage consumes.
// Results are sorted by name so runs over the same directory always see
// the same input order.
package files
