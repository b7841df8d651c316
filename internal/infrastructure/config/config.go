package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the Harvco telemetry platform.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database Database `yaml:"database"`
	MQTT     MQTT     `yaml:"mqtt"`
	API      API      `yaml:"api"`
	InfluxDB InfluxDB `yaml:"influxdb"`
	Logging  Logging  `yaml:"logging"`
	Security Security `yaml:"security"`
	Readings Readings `yaml:"readings"`
}

// Database contains SQLite database settings.
type Database struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTT contains MQTT broker connection and ingestion settings.
type MQTT struct {
	Broker    MQTTBroker    `yaml:"broker"`
	Auth      MQTTAuth      `yaml:"auth"`
	QoS       int           `yaml:"qos"`
	Topic     string        `yaml:"topic"`
	Workers   int           `yaml:"workers"`
	Reconnect MQTTReconnect `yaml:"reconnect"`
}

// MQTTBroker contains MQTT broker connection details.
type MQTTBroker struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuth contains MQTT authentication credentials.
type MQTTAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnect contains MQTT reconnection settings in seconds.
type MQTTReconnect struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// API contains HTTP API server settings.
type API struct {
	Host      string      `yaml:"host"`
	Port      int         `yaml:"port"`
	TLS       TLS         `yaml:"tls"`
	Timeouts  APITimeouts `yaml:"timeouts"`
	CORS      CORS        `yaml:"cors"`
	WebSocket WebSocket   `yaml:"websocket"`
}

// WebSocket contains live reading feed settings. Intervals are in seconds.
type WebSocket struct {
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
	MaxMessageSize int `yaml:"max_message_size"`
}

// TLS contains TLS certificate settings.
type TLS struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeouts contains HTTP timeout settings in seconds.
type APITimeouts struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORS contains Cross-Origin Resource Sharing settings.
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// InfluxDB contains optional time-series mirror settings.
type InfluxDB struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// Logging contains logging settings.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Security contains authentication settings.
type Security struct {
	JWT JWT `yaml:"jwt"`
}

// JWT contains access token settings. AccessTokenTTL is in minutes.
type JWT struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"`
}

// Readings contains read-path tuning for the reading query pipeline.
type Readings struct {
	// DownsampleThreshold is the maximum number of points a range query
	// returns before time-bucketed averaging kicks in.
	DownsampleThreshold int `yaml:"downsample_threshold"`

	// MaxWindowDays caps the [start, end] range of a bounded query.
	MaxWindowDays int `yaml:"max_window_days"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern HARVCO_SECTION_KEY,
// e.g. HARVCO_DATABASE_PATH, HARVCO_MQTT_HOST, HARVCO_JWT_SECRET.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: Database{
			Path:        "./data/harvco.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTT{
			Broker: MQTTBroker{
				Host:     "localhost",
				Port:     1883,
				ClientID: "harvco-core",
			},
			QoS:     1,
			Topic:   "harvco/+/sensor/+/state",
			Workers: 2,
			Reconnect: MQTTReconnect{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: API{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeouts{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			WebSocket: WebSocket{
				PingInterval:   30,
				PongTimeout:    60,
				MaxMessageSize: 4096,
			},
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: Security{
			JWT: JWT{
				AccessTokenTTL: 30,
			},
		},
		Readings: Readings{
			DownsampleThreshold: 500,
			MaxWindowDays:       30,
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HARVCO_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("HARVCO_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("HARVCO_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("HARVCO_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("HARVCO_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("HARVCO_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("HARVCO_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	if v := os.Getenv("HARVCO_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	if v := os.Getenv("HARVCO_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// minJWTSecretLength is the minimum accepted JWT secret length.
// Shorter secrets make forged access tokens feasible.
const minJWTSecretLength = 32

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Topic == "" {
		errs = append(errs, "mqtt.topic is required")
	}
	if c.MQTT.Workers < 1 {
		errs = append(errs, "mqtt.workers must be at least 1")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set HARVCO_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters")
	}

	if c.Readings.DownsampleThreshold < 1 {
		errs = append(errs, "readings.downsample_threshold must be at least 1")
	}
	if c.Readings.MaxWindowDays < 1 {
		errs = append(errs, "readings.max_window_days must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// MaxWindow returns the maximum bounded query range as a Duration.
func (c *Readings) MaxWindow() time.Duration {
	return time.Duration(c.MaxWindowDays) * 24 * time.Hour
}
