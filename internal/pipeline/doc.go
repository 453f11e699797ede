// Package pipeline runs one forecast from input file to report: load, aggregate, fit and report,
// in that order. Each stage gets its own span and duration measurement and the first failing
// stage aborts the run with its error unchanged.
package pipeline
