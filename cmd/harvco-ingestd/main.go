// Harvco Telemetry Platform - ingestion service
//
// harvco-ingestd subscribes to the sensor state topics on the MQTT
// broker, validates and stores incoming readings in SQLite, and
// publishes an ingest event for each stored reading. An optional
// InfluxDB mirror receives the raw values for long-term dashboards.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/harvco/telemetry-core/migrations"

	"github.com/harvco/telemetry-core/internal/device"
	"github.com/harvco/telemetry-core/internal/infrastructure/config"
	"github.com/harvco/telemetry-core/internal/infrastructure/database"
	"github.com/harvco/telemetry-core/internal/infrastructure/influxdb"
	"github.com/harvco/telemetry-core/internal/infrastructure/logging"
	"github.com/harvco/telemetry-core/internal/infrastructure/mqtt"
	"github.com/harvco/telemetry-core/internal/ingest"
	"github.com/harvco/telemetry-core/internal/reading"
)

// Version information - set at build time via ldflags
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
	log := logging.Default("harvco-ingestd")
	log.Info("starting Harvco ingestion service", "version", version, "commit", commit)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, "harvco-ingestd", version)

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

	// The ingestion service cannot run without a broker.
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
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

	// Connect to InfluxDB (optional mirror)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	deviceRepo := device.NewSQLiteRepository(db.DB)
	readingRepo := reading.NewSQLiteRepository(db.DB, cfg.Readings.MaxWindow())

	service := ingest.NewService(deviceRepo, readingRepo, mqttClient, influxClient,
		log, cfg.MQTT.Topic, byte(cfg.MQTT.QoS), cfg.MQTT.Workers)

	if err := service.Start(ctx); err != nil {
		return fmt.Errorf("starting ingestion service: %w", err)
	}
	defer func() {
		log.Info("stopping ingestion service")
		service.Stop()
	}()

	log.Info("initialisation complete, waiting for shutdown signal",
		"topic", cfg.MQTT.Topic,
		"workers", cfg.MQTT.Workers,
	)
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
