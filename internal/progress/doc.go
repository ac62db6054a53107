// Package progress aggregates per-phase completion fractions into the single
// job percentage surfaced to the queue and CLI.
//
// Each output mode carries a fixed weighting between the rip, split, encode,
// and tag phases; the tracker guarantees the overall value is monotonically
// non-decreasing for the lifetime of a job regardless of how the underlying
// tools report.
package progress
