package device

import "time"

// Calibration offset bounds. Offsets outside these ranges indicate a
// misconfigured device rather than a plausible sensor correction.
const (
	MinTemperatureOffset = -10.0
	MaxTemperatureOffset = 10.0
	MinHumidityOffset    = -20.0
	MaxHumidityOffset    = 20.0
)

// Device represents a registered sensor device.
//
// A device has two identities: the internal numeric ID used as the
// foreign key by readings, and the external DeviceID string reported by
// the hardware over MQTT. Ingestion creates placeholder devices by
// external ID before an owner claims them, so Name and OwnerID are
// optional.
type Device struct {
	// ID is the internal numeric identifier (database primary key).
	ID int64 `json:"id"`

	// DeviceID is the unique external hardware identifier.
	DeviceID string `json:"device_id"`

	// Name is the optional display name.
	Name string `json:"name,omitempty"`

	// OwnerID is the owning user, nil for unclaimed devices.
	OwnerID *int64 `json:"owner_id,omitempty"`

	// IsActive is false for soft-deleted devices. Devices are never
	// hard-deleted; their readings must stay resolvable.
	IsActive bool `json:"is_active"`

	// TemperatureOffset is the additive calibration correction applied to
	// temperature readings. nil means no correction (0.0).
	TemperatureOffset *float64 `json:"temperature_offset,omitempty"`

	// HumidityOffset is the additive calibration correction applied to
	// humidity readings. nil means no correction (0.0).
	HumidityOffset *float64 `json:"humidity_offset,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
