package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth and registration (no auth required)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/users", s.handleRegister)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// WS ticket requires authentication - user must be logged in
			// to request a ticket
			r.Post("/auth/ws-ticket", s.handleWSTicket)

			// User endpoints
			r.Get("/users/me", s.handleMe)
			r.Get("/users/me/devices", s.handleMyDevices)

			// Device endpoints
			r.Route("/devices", func(r chi.Router) {
				r.Get("/", s.handleListDevices)
				r.Post("/", s.handleCreateDevice)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetDevice)
					r.Patch("/", s.handleUpdateDevice)
					r.Delete("/", s.handleDeleteDevice)
				})
			})

			// Reading endpoints
			r.Route("/readings", func(r chi.Router) {
				r.Get("/", s.handleListReadings)
				r.Get("/statistics", s.handleReadingStatistics)
				r.Get("/latest", s.handleLatestReading)
				r.Get("/device-averages", s.handleDeviceAverages)

				// WebSocket (auth via ticket, validated in handler)
				r.Get("/ws", s.handleWebSocket)
			})
		})
	})

	return r
}

// healthCheckTimeout bounds the dependency probes in the health handler.
const healthCheckTimeout = 2 * time.Second

// handleHealth returns the server health status and the state of its
// dependencies.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := "ok"
	components := map[string]string{}

	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			components["database"] = "unavailable"
			status = "degraded"
		} else {
			components["database"] = "ok"
		}
	}

	if s.mqtt != nil {
		if s.mqtt.IsConnected() {
			components["mqtt"] = "ok"
		} else {
			components["mqtt"] = "disconnected"
			status = "degraded"
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"version":    s.version,
		"components": components,
	})
}
