package ingest

import "errors"

var (
	// ErrUnrecognizedTopic indicates a topic outside the sensor state
	// grammar. Such messages are skipped, not failed.
	ErrUnrecognizedTopic = errors.New("ingest: unrecognized topic")

	// ErrInvalidPayload indicates a non-numeric or NaN payload.
	// Such values are skipped, never stored.
	ErrInvalidPayload = errors.New("ingest: invalid payload")
)
