// Package influxdb mirrors accepted sensor readings to an InfluxDB v2
// instance for long-range dashboarding.
//
// The mirror is optional: when disabled in configuration the ingestion
// service simply skips it, and SQLite remains the source of truth.
// Writes are non-blocking and batched by the underlying client; async
// write failures are surfaced through the SetOnError callback.
package influxdb
