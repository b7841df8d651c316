package mqtt

import "fmt"

// Topic prefixes. Sensor firmware publishes under the bare platform
// prefix; topics originated by this system live under core/ or system/.
const (
	// TopicPrefix is the base for all platform topics.
	TopicPrefix = "harvco"

	// TopicPrefixCore is the base for topics published by the services.
	TopicPrefixCore = "harvco/core"

	// TopicPrefixSystem is the base for system status topics.
	TopicPrefixSystem = "harvco/system"
)

// Topics provides builders for the platform's MQTT topics. Using these
// helpers keeps topic naming consistent across publishers and
// subscribers.
type Topics struct{}

// SensorState returns the topic a sensor publishes one reading type's
// raw values on.
//
// Example: harvco/harvco-temp-sensor-62ba71/sensor/temperature/state
func (Topics) SensorState(deviceName, readingType string) string {
	return fmt.Sprintf("%s/%s/sensor/%s/state", TopicPrefix, deviceName, readingType)
}

// AllSensorStates returns a pattern matching every sensor state topic.
//
// Pattern: harvco/+/sensor/+/state
func (Topics) AllSensorStates() string {
	return fmt.Sprintf("%s/+/sensor/+/state", TopicPrefix)
}

// IngestEvent returns the topic accepted readings are republished on as
// JSON ingest events.
//
// Example: harvco/core/ingest
func (Topics) IngestEvent() string {
	return fmt.Sprintf("%s/ingest", TopicPrefixCore)
}

// SystemStatus returns the service status topic, also used for the LWT.
//
// Example: harvco/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
