// Package mqtt provides MQTT client connectivity for the telemetry
// platform.
//
// It manages the broker connection with auto-reconnect, QoS-aware
// publishing, wildcard subscriptions that survive reconnects, and a
// Last Will and Testament on the system status topic so downstream
// services can detect an unexpected ingestion outage.
//
// Sensors publish raw values to harvco/{device}/sensor/{type}/state;
// the ingestion service subscribes there and republishes accepted
// readings as JSON ingest events on harvco/core/ingest for live
// consumers such as the API's WebSocket feed.
package mqtt
