// Harvco Telemetry Platform - API server
//
// harvcod serves the REST API: user accounts, the device registry, and
// the reading query endpoints backed by SQLite. It also relays live
// ingest events to WebSocket clients when an MQTT broker is configured.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/harvco/telemetry-core/migrations"

	"github.com/harvco/telemetry-core/internal/api"
	"github.com/harvco/telemetry-core/internal/auth"
	"github.com/harvco/telemetry-core/internal/device"
	"github.com/harvco/telemetry-core/internal/infrastructure/config"
	"github.com/harvco/telemetry-core/internal/infrastructure/database"
	"github.com/harvco/telemetry-core/internal/infrastructure/logging"
	"github.com/harvco/telemetry-core/internal/infrastructure/mqtt"
	"github.com/harvco/telemetry-core/internal/reading"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default("harvcod")
	log.Info("starting Harvco API server", "version", version, "commit", commit)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, "harvcod", version)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	deviceRepo := device.NewSQLiteRepository(db.DB)
	readingRepo := reading.NewSQLiteRepository(db.DB, cfg.Readings.MaxWindow())

	authService := auth.NewService(auth.NewUserRepository(db.DB),
		cfg.Security.JWT.Secret, cfg.Security.JWT.AccessTokenTTL)
	readingService := reading.NewService(deviceRepo, readingRepo,
		cfg.Readings.DownsampleThreshold, log)

	// MQTT powers the live readings feed only; the REST API works
	// without a broker.
	var mqttClient *mqtt.Client
	mqttClient, err = mqtt.Connect(cfg.MQTT)
	if err != nil {
		log.Warn("MQTT unavailable, live readings feed disabled", "error", err)
		mqttClient = nil
	} else {
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	}

	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Security: cfg.Security,
		Logger:   log,
		Auth:     authService,
		Devices:  deviceRepo,
		Readings: readingService,
		DB:       db,
		MQTT:     mqttClient,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses the HARVCO_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HARVCO_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
