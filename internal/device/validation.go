package device

import (
	"fmt"
	"regexp"
)

// deviceIDPattern defines the accepted external device identifier format:
// alphanumeric with hyphens and underscores, 1-64 characters.
var deviceIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// maxNameLength is the maximum allowed display name length.
const maxNameLength = 128

// Validate checks a device for structural problems before persistence.
func Validate(d *Device) error {
	if !deviceIDPattern.MatchString(d.DeviceID) {
		return fmt.Errorf("%w: %q", ErrInvalidDeviceID, d.DeviceID)
	}
	if len(d.Name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidDeviceID, maxNameLength)
	}
	return ValidateOffsets(d.TemperatureOffset, d.HumidityOffset)
}

// ValidateOffsets checks calibration offsets against their permitted ranges.
// nil offsets are valid (no correction).
func ValidateOffsets(temperature, humidity *float64) error {
	if temperature != nil && (*temperature < MinTemperatureOffset || *temperature > MaxTemperatureOffset) {
		return fmt.Errorf("%w: temperature offset %.2f not in [%.1f, %.1f]",
			ErrInvalidOffset, *temperature, MinTemperatureOffset, MaxTemperatureOffset)
	}
	if humidity != nil && (*humidity < MinHumidityOffset || *humidity > MaxHumidityOffset) {
		return fmt.Errorf("%w: humidity offset %.2f not in [%.1f, %.1f]",
			ErrInvalidOffset, *humidity, MinHumidityOffset, MaxHumidityOffset)
	}
	return nil
}
