package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when creating a device whose external
	// device_id is already registered.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrInvalidDeviceID is returned when the external device identifier
	// is empty or malformed.
	ErrInvalidDeviceID = errors.New("device: invalid device id")

	// ErrInvalidOffset is returned when a calibration offset falls outside
	// its permitted range.
	ErrInvalidOffset = errors.New("device: calibration offset out of range")
)
