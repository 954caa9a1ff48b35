// Package transform implements the catalog of generic tabular steps
// available to both pipeline stages: column projection and renaming,
// row filtering, deduplication, sorting, null handling, lookup mapping
// and grouped aggregation. Every step is a pure function of the input
// dataset and its parameters.
package transform
