package reading

import (
	"fmt"
	"time"
)

// ReadingType identifies the physical quantity a reading measures.
type ReadingType string

// Supported reading types.
const (
	TypeTemperature ReadingType = "temperature"
	TypeHumidity    ReadingType = "humidity"
)

// ParseReadingType converts a wire/topic string into a ReadingType.
func ParseReadingType(s string) (ReadingType, error) {
	switch ReadingType(s) {
	case TypeTemperature:
		return TypeTemperature, nil
	case TypeHumidity:
		return TypeHumidity, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidReadingType, s)
	}
}

// Reading is a single timestamped sensor sample for a device.
// Readings are immutable once stored.
type Reading struct {
	ID        int64       `json:"id"`
	DeviceID  int64       `json:"device_id"`
	Type      ReadingType `json:"reading_type"`
	Value     float64     `json:"value"`
	Timestamp time.Time   `json:"timestamp"`
}

// Statistics summarises the valid readings of one device and type
// within a window. Min, Max and Avg carry the device's calibration
// offset; Count does not change under calibration. A Count of zero
// reports 0.0 for Min, Max and Avg by convention.
type Statistics struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	Count int64   `json:"count"`
}

// Filter narrows a range query. Nil fields are unconstrained.
type Filter struct {
	Type  *ReadingType
	Start *time.Time
	End   *time.Time
}

// DeviceAverage is the calibrated mean of one reading type for one
// device, used by the per-owner averages listing.
type DeviceAverage struct {
	DeviceID         int64   `json:"id"`
	ExternalDeviceID string  `json:"device_id"`
	Name             string  `json:"name,omitempty"`
	Average          float64 `json:"average"`
	Count            int64   `json:"count"`
}
