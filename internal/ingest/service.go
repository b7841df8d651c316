package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/harvco/telemetry-core/internal/device"
	"github.com/harvco/telemetry-core/internal/infrastructure/influxdb"
	"github.com/harvco/telemetry-core/internal/infrastructure/logging"
	"github.com/harvco/telemetry-core/internal/infrastructure/mqtt"
	"github.com/harvco/telemetry-core/internal/reading"
)

// defaultQueueDepth bounds the message queue between the MQTT handler
// and the worker pool.
const defaultQueueDepth = 256

// Event is the JSON message republished on harvco/core/ingest for each
// accepted reading.
type Event struct {
	DeviceID    string    `json:"device_id"`
	ReadingType string    `json:"reading_type"`
	Value       float64   `json:"value"`
	Timestamp   time.Time `json:"timestamp"`
}

// message is one raw MQTT message queued for a worker.
type message struct {
	topic   string
	payload []byte
}

// Service subscribes to sensor state topics and persists readings.
// Mirror and broker are optional collaborators: a nil influx client
// disables mirroring, and publish failures never fail ingestion.
type Service struct {
	devices  device.Repository
	readings reading.Repository
	broker   *mqtt.Client
	influx   *influxdb.Client
	logger   *logging.Logger

	topic   string
	qos     byte
	workers int

	queue chan message
	wg    sync.WaitGroup
}

// NewService creates an ingestion service. workers controls how many
// goroutines drain the message queue; values below 1 become 1.
func NewService(devices device.Repository, readings reading.Repository, broker *mqtt.Client,
	influx *influxdb.Client, logger *logging.Logger, topic string, qos byte, workers int) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{
		devices:  devices,
		readings: readings,
		broker:   broker,
		influx:   influx,
		logger:   logger,
		topic:    topic,
		qos:      qos,
		workers:  workers,
		queue:    make(chan message, defaultQueueDepth),
	}
}

// Start subscribes to the sensor state pattern and launches the worker
// pool. Workers run until ctx is cancelled; Start does not block.
func (s *Service) Start(ctx context.Context) error {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	err := s.broker.Subscribe(s.topic, s.qos, func(topic string, payload []byte) error {
		select {
		case s.queue <- message{topic: topic, payload: payload}:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// Queue full: drop rather than block the MQTT client. The
			// sensor will publish again on its next cycle.
			s.logger.Warn("ingest queue full, dropping message", "topic", topic)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", s.topic, err)
	}

	s.logger.Info("ingestion started",
		"topic", s.topic,
		"workers", s.workers,
		"mirror_enabled", s.influx != nil)
	return nil
}

// Stop waits for in-flight messages to finish. Call after cancelling
// the context passed to Start.
func (s *Service) Stop() {
	s.wg.Wait()
}

// worker drains the queue until the context is cancelled.
func (s *Service) worker(ctx context.Context, id int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.queue:
			if err := s.Process(ctx, msg.topic, msg.payload); err != nil {
				if errors.Is(err, ErrUnrecognizedTopic) || errors.Is(err, ErrInvalidPayload) {
					s.logger.Debug("skipping message", "worker", id, "topic", msg.topic, "reason", err)
					continue
				}
				s.logger.Error("failed to process message", "worker", id, "topic", msg.topic, "error", err)
			}
		}
	}
}

// Process handles one raw sensor message end to end: parse, resolve
// device, store, mirror, republish. Skippable conditions come back as
// ErrUnrecognizedTopic or ErrInvalidPayload.
func (s *Service) Process(ctx context.Context, topic string, payload []byte) error {
	externalID, rt, err := ParseTopic(topic)
	if err != nil {
		return err
	}

	value, err := ParsePayload(payload)
	if err != nil {
		return err
	}

	dev, err := s.devices.GetOrCreate(ctx, externalID)
	if err != nil {
		return fmt.Errorf("resolving device %q: %w", externalID, err)
	}

	r := &reading.Reading{
		DeviceID:  dev.ID,
		Type:      rt,
		Value:     value,
		Timestamp: time.Now().UTC().Truncate(time.Second),
	}
	if err := s.readings.Insert(ctx, r); err != nil {
		return fmt.Errorf("storing reading for device %q: %w", externalID, err)
	}

	s.logger.Info("reading stored",
		"device_id", externalID,
		"reading_type", string(rt),
		"value", value)

	if s.influx != nil {
		s.influx.WriteReading(externalID, string(rt), value, r.Timestamp)
	}

	s.publishEvent(externalID, rt, value, r.Timestamp)
	return nil
}

// publishEvent republishes an accepted reading for live subscribers.
// Failures are logged, not returned: the reading is already stored.
func (s *Service) publishEvent(deviceID string, rt reading.ReadingType, value float64, ts time.Time) {
	if s.broker == nil {
		return
	}
	event := Event{
		DeviceID:    deviceID,
		ReadingType: string(rt),
		Value:       value,
		Timestamp:   ts,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to encode ingest event", "error", err)
		return
	}

	if err := s.broker.PublishEvent(mqtt.Topics{}.IngestEvent(), payload); err != nil {
		s.logger.Warn("failed to publish ingest event", "device_id", deviceID, "error", err)
	}
}
