package reading

import "github.com/harvco/telemetry-core/internal/device"

// offsetFor returns the device's additive calibration offset for a
// reading type. Nil offsets and unknown types contribute zero.
func offsetFor(t ReadingType, d *device.Device) float64 {
	if d == nil {
		return 0
	}
	switch t {
	case TypeTemperature:
		if d.TemperatureOffset != nil {
			return *d.TemperatureOffset
		}
	case TypeHumidity:
		if d.HumidityOffset != nil {
			return *d.HumidityOffset
		}
	}
	return 0
}

// Calibrate applies the device's matching-type offset to a raw value.
// Pure; the offset is a per-query constant for a single device, so
// calibrating before or after averaging yields the same result.
func Calibrate(value float64, t ReadingType, d *device.Device) float64 {
	return value + offsetFor(t, d)
}
