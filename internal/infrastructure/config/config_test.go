package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// testSecret is a JWT secret long enough to pass validation.
const testSecret = "0123456789abcdef0123456789abcdef"

// writeConfigFile writes YAML content to a temp file and returns its path.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfigFile(t, `
security:
  jwt:
    secret: "`+testSecret+`"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Readings.DownsampleThreshold != 500 {
		t.Errorf("DownsampleThreshold = %d, want 500", cfg.Readings.DownsampleThreshold)
	}
	if cfg.Readings.MaxWindowDays != 30 {
		t.Errorf("MaxWindowDays = %d, want 30", cfg.Readings.MaxWindowDays)
	}
	if cfg.MQTT.Topic != "harvco/+/sensor/+/state" {
		t.Errorf("MQTT.Topic = %q, want default subscription pattern", cfg.MQTT.Topic)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want 8080", cfg.API.Port)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
database:
  path: /var/lib/harvco/harvco.db
readings:
  downsample_threshold: 250
  max_window_days: 7
security:
  jwt:
    secret: "`+testSecret+`"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/var/lib/harvco/harvco.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Readings.DownsampleThreshold != 250 {
		t.Errorf("DownsampleThreshold = %d, want 250", cfg.Readings.DownsampleThreshold)
	}
	if got, want := cfg.Readings.MaxWindow(), 7*24*time.Hour; got != want {
		t.Errorf("MaxWindow() = %v, want %v", got, want)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
mqtt:
  broker:
    host: file-host
security:
  jwt:
    secret: "`+testSecret+`"
`)

	t.Setenv("HARVCO_MQTT_HOST", "env-host")
	t.Setenv("HARVCO_MQTT_PORT", "8883")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "env-host" {
		t.Errorf("Broker.Host = %q, want env-host", cfg.MQTT.Broker.Host)
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(_ *Config) {},
			wantErr: "",
		},
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "" },
			wantErr: "security.jwt.secret is required",
		},
		{
			name:    "short jwt secret",
			mutate:  func(c *Config) { c.Security.JWT.Secret = "short" },
			wantErr: "at least 32 characters",
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "zero downsample threshold",
			mutate:  func(c *Config) { c.Readings.DownsampleThreshold = 0 },
			wantErr: "downsample_threshold",
		},
		{
			name:    "zero window cap",
			mutate:  func(c *Config) { c.Readings.MaxWindowDays = 0 },
			wantErr: "max_window_days",
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: "api.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Security.JWT.Secret = testSecret
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}
