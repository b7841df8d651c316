package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/harvco/telemetry-core/internal/reading"
)

// topicPattern matches sensor state topics and captures the device's
// external id and the reading type.
//
// Example: harvco/harvco-temp-sensor-62ba71/sensor/temperature/state
// captures ("62ba71", "temperature").
var topicPattern = regexp.MustCompile(`^harvco/harvco-temp-sensor-([^/]+)/sensor/(temperature|humidity)/state$`)

// ParseTopic extracts the device's external id and reading type from a
// sensor state topic. Topics outside the grammar (metadata topics such
// as .../_devicename) return ErrUnrecognizedTopic.
func ParseTopic(topic string) (deviceID string, rt reading.ReadingType, err error) {
	m := topicPattern.FindStringSubmatch(topic)
	if m == nil {
		return "", "", fmt.Errorf("%w: %q", ErrUnrecognizedTopic, topic)
	}

	rt, err = reading.ParseReadingType(m[2])
	if err != nil {
		return "", "", fmt.Errorf("%w: %q", ErrUnrecognizedTopic, topic)
	}
	return m[1], rt, nil
}

// ParsePayload converts a raw sensor payload into a reading value.
// Sensors publish bare decimal numbers; they report "nan" when a probe
// fails. Non-numeric, NaN and infinite payloads return
// ErrInvalidPayload.
func ParsePayload(payload []byte) (float64, error) {
	s := strings.TrimSpace(string(payload))
	if strings.EqualFold(s, "nan") {
		return 0, fmt.Errorf("%w: nan", ErrInvalidPayload)
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPayload, s)
	}
	if !reading.IsValidValue(value) {
		return 0, fmt.Errorf("%w: non-finite %q", ErrInvalidPayload, s)
	}
	return value, nil
}
