// Package exporter writes pipeline datasets to CSV files. Writes are
// atomic from the pipeline's point of view: the dataset is fully
// transformed in memory before any byte reaches disk, so a failed run
// leaves no partial output.
package exporter
