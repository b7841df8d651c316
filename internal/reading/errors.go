package reading

import "errors"

var (
	// ErrWindowTooLarge indicates a range query spanning more than the
	// configured maximum window. Rejected before any row scan.
	ErrWindowTooLarge = errors.New("reading: query window too large")

	// ErrNoReadings indicates a latest-reading lookup matched no valid rows.
	ErrNoReadings = errors.New("reading: no readings found")

	// ErrInvalidReadingType indicates an unrecognised reading type string.
	ErrInvalidReadingType = errors.New("reading: invalid reading type")

	// ErrInvalidWindow indicates a range whose start is after its end.
	ErrInvalidWindow = errors.New("reading: window start is after end")
)
