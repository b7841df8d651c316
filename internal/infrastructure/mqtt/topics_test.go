package mqtt

import (
	"strings"
	"testing"

	"github.com/harvco/telemetry-core/internal/infrastructure/config"
)

func testMQTTConfig() config.MQTT {
	return config.MQTT{
		Broker: config.MQTTBroker{Host: "localhost", Port: 1883, ClientID: "harvco-test"},
		QoS:    1,
	}
}

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"sensor state", topics.SensorState("harvco-temp-sensor-62ba71", "temperature"),
			"harvco/harvco-temp-sensor-62ba71/sensor/temperature/state"},
		{"all sensor states", topics.AllSensorStates(), "harvco/+/sensor/+/state"},
		{"ingest event", topics.IngestEvent(), "harvco/core/ingest"},
		{"system status", topics.SystemStatus(), "harvco/system/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestPublish_Validation(t *testing.T) {
	c := &Client{cfg: testMQTTConfig(), subscriptions: map[string]subscription{}}

	if err := c.Publish("", []byte("x"), 0, false); err != ErrInvalidTopic {
		t.Errorf("empty topic error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("harvco/system/status", []byte("x"), 3, false); err != ErrInvalidQoS {
		t.Errorf("qos 3 error = %v, want ErrInvalidQoS", err)
	}

	oversized := make([]byte, maxPayloadSize+1)
	err := c.Publish("harvco/system/status", oversized, 1, false)
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("oversized payload error = %v, want size error", err)
	}
}

func TestStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("harvco-core")
	if !strings.Contains(online, `"status":"online"`) || !strings.Contains(online, `"client_id":"harvco-core"`) {
		t.Errorf("online payload malformed: %s", online)
	}

	offline := buildOfflinePayload("harvco-core")
	if !strings.Contains(offline, `"reason":"graceful_shutdown"`) {
		t.Errorf("offline payload malformed: %s", offline)
	}
}
