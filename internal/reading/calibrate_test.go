package reading

import (
	"testing"

	"github.com/harvco/telemetry-core/internal/device"
)

func ptrFloat(v float64) *float64 { return &v }

func TestCalibrate(t *testing.T) {
	tests := []struct {
		name        string
		value       float64
		readingType ReadingType
		device      *device.Device
		want        float64
	}{
		{
			name:        "temperature offset added",
			value:       20.0,
			readingType: TypeTemperature,
			device:      &device.Device{TemperatureOffset: ptrFloat(1.5)},
			want:        21.5,
		},
		{
			name:        "negative temperature offset",
			value:       20.0,
			readingType: TypeTemperature,
			device:      &device.Device{TemperatureOffset: ptrFloat(-2.25)},
			want:        17.75,
		},
		{
			name:        "humidity offset added",
			value:       55.0,
			readingType: TypeHumidity,
			device:      &device.Device{HumidityOffset: ptrFloat(5.0)},
			want:        60.0,
		},
		{
			name:        "nil offset contributes zero",
			value:       25.0,
			readingType: TypeTemperature,
			device:      &device.Device{},
			want:        25.0,
		},
		{
			name:        "wrong-type offset ignored",
			value:       55.0,
			readingType: TypeHumidity,
			device:      &device.Device{TemperatureOffset: ptrFloat(1.5)},
			want:        55.0,
		},
		{
			name:        "unknown type passes through",
			value:       12.0,
			readingType: ReadingType("pressure"),
			device:      &device.Device{TemperatureOffset: ptrFloat(1.5), HumidityOffset: ptrFloat(2.0)},
			want:        12.0,
		},
		{
			name:        "nil device passes through",
			value:       19.0,
			readingType: TypeTemperature,
			device:      nil,
			want:        19.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calibrate(tt.value, tt.readingType, tt.device)
			if got != tt.want {
				t.Errorf("Calibrate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseReadingType(t *testing.T) {
	if _, err := ParseReadingType("temperature"); err != nil {
		t.Errorf("ParseReadingType(temperature) error = %v", err)
	}
	if _, err := ParseReadingType("humidity"); err != nil {
		t.Errorf("ParseReadingType(humidity) error = %v", err)
	}
	if _, err := ParseReadingType("voltage"); err == nil {
		t.Error("ParseReadingType(voltage) error = nil, want ErrInvalidReadingType")
	}
}
