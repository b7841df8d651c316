package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/harvco/telemetry-core/internal/auth"
	"github.com/harvco/telemetry-core/internal/device"
	"github.com/harvco/telemetry-core/internal/infrastructure/config"
	"github.com/harvco/telemetry-core/internal/infrastructure/database"
	"github.com/harvco/telemetry-core/internal/infrastructure/logging"
	"github.com/harvco/telemetry-core/internal/infrastructure/mqtt"
	"github.com/harvco/telemetry-core/internal/reading"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.API
	Security config.Security
	Logger   *logging.Logger
	Auth     *auth.Service
	Devices  device.Repository
	Readings *reading.Service
	DB       *database.DB // optional: enables DB status in /health
	MQTT     *mqtt.Client // optional: enables the live readings feed
	Version  string
}

// Server is the HTTP API server for the Harvco telemetry platform.
//
// It manages the HTTP listener, routes, middleware, and the WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg      config.API
	secCfg   config.Security
	logger   *logging.Logger
	auth     *auth.Service
	devices  device.Repository
	readings *reading.Service
	db       *database.DB
	mqtt     *mqtt.Client
	version  string
	server   *http.Server
	hub      *Hub
	tickets  *ticketStore
	cancel   context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("auth service is required")
	}
	if deps.Devices == nil {
		return nil, fmt.Errorf("device repository is required")
	}
	if deps.Readings == nil {
		return nil, fmt.Errorf("reading service is required")
	}
	// MQTT is optional: without it the WebSocket feed stays silent but
	// every REST endpoint still works.

	return &Server{
		cfg:      deps.Config,
		secCfg:   deps.Security,
		logger:   deps.Logger,
		auth:     deps.Auth,
		devices:  deps.Devices,
		readings: deps.Readings,
		db:       deps.DB,
		mqtt:     deps.MQTT,
		version:  deps.Version,
		tickets:  newTicketStore(),
	}, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, subscribes to the
// ingest event topic for live broadcast, and launches the HTTP listener
// in a background goroutine. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.cfg.WebSocket, s.logger)
	go s.hub.Run(srvCtx)

	// Expired-ticket sweeper keeps the store from growing unbounded.
	go s.tickets.cleanLoop(srvCtx)

	if err := s.subscribeIngestEvents(); err != nil {
		s.logger.Warn("failed to subscribe to ingest events for WebSocket", "error", err)
	}

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
