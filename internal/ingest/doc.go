// Package ingest consumes raw sensor values from MQTT and persists
// them as readings.
//
// Sensors publish bare numeric payloads on
// harvco/harvco-temp-sensor-{id}/sensor/{type}/state. The service
// subscribes with a wildcard, fans messages out to a small worker pool,
// resolves (or creates) the device record by its external id, stores
// the reading stamped with ingestion time, optionally mirrors it to
// InfluxDB, and republishes an ingest event for live subscribers.
//
// Non-numeric and NaN payloads are skipped, never stored: the read path
// must not see them. Unrecognised topics (sensor metadata such as
// _devicename) are skipped silently.
package ingest
