// Package api provides the HTTP REST API and WebSocket server for the
// Harvco telemetry platform.
//
// It exposes user registration and login, the device registry, and the
// reading query endpoints (range, latest, statistics, per-device
// averages), plus a WebSocket feed that relays live ingest events to
// connected clients.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
package api
