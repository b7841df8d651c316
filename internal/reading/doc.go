// Package reading implements the sensor reading read/write path: range
// queries with a bounded time window, per-device calibration offsets,
// windowed downsampling for large result sets, and summary statistics.
//
// Raw values are stored as ingested; NaN and infinite values persist as
// NULL and are excluded from every query, average, and aggregate. The
// Service applies each device's calibration offset uniformly to all
// values it returns, so callers only ever see calibrated data.
package reading
