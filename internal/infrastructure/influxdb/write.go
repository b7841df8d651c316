package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteReading mirrors one accepted sensor reading.
//
// Readings land in the "sensor_readings" measurement tagged by device
// and type, with the raw (uncalibrated) value as the field — the mirror
// stores what the sensor reported, matching the primary store.
//
// The write is non-blocking; data is batched and sent asynchronously.
func (c *Client) WriteReading(deviceID string, readingType string, value float64, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sensor_readings",
		map[string]string{
			"device_id":    deviceID,
			"reading_type": readingType,
		},
		map[string]interface{}{
			"value": value,
		},
		timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and
// fields, for measurements that don't fit WriteReading.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
