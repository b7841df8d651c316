package reading

import (
	"context"
	"fmt"
	"time"

	"github.com/harvco/telemetry-core/internal/device"
	"github.com/harvco/telemetry-core/internal/infrastructure/logging"
)

// Service orchestrates the read path: device lookup, range query,
// calibration and downsampling. It fails closed when the referenced
// device does not exist (device.ErrDeviceNotFound), so no query ever
// runs without its calibration offsets in hand.
type Service struct {
	devices   device.Repository
	readings  Repository
	threshold int
	logger    *logging.Logger
}

// NewService creates a reading service. A non-positive threshold falls
// back to DefaultDownsampleThreshold.
func NewService(devices device.Repository, readings Repository, threshold int, logger *logging.Logger) *Service {
	if threshold <= 0 {
		threshold = DefaultDownsampleThreshold
	}
	return &Service{
		devices:   devices,
		readings:  readings,
		threshold: threshold,
		logger:    logger,
	}
}

// Record validates and stores a new reading for an existing device.
func (s *Service) Record(ctx context.Context, r *Reading) error {
	if _, err := ParseReadingType(string(r.Type)); err != nil {
		return err
	}
	if _, err := s.devices.GetByID(ctx, r.DeviceID); err != nil {
		return fmt.Errorf("resolving reading device: %w", err)
	}
	return s.readings.Insert(ctx, r)
}

// GetByDevice returns a device's calibrated readings matching the
// filter, ascending by timestamp. When both window bounds are present
// and the result exceeds the threshold, the series is downsampled to at
// most threshold points per reading type.
func (s *Service) GetByDevice(ctx context.Context, deviceID int64, f Filter) ([]Reading, error) {
	dev, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	readings, err := s.readings.QueryRange(ctx, deviceID, f)
	if err != nil {
		return nil, err
	}

	for i := range readings {
		readings[i].Value = Calibrate(readings[i].Value, readings[i].Type, dev)
	}

	if f.Start != nil && f.End != nil && len(readings) > s.threshold {
		s.logger.Debug("downsampling readings",
			"device_id", deviceID,
			"raw_count", len(readings),
			"threshold", s.threshold)
		readings = Downsample(readings, *f.Start, *f.End, s.threshold)
	}
	return readings, nil
}

// GetLatest returns the device's most recent valid reading, calibrated.
func (s *Service) GetLatest(ctx context.Context, deviceID int64, t *ReadingType) (*Reading, error) {
	dev, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	latest, err := s.readings.Latest(ctx, deviceID, t)
	if err != nil {
		return nil, err
	}

	latest.Value = Calibrate(latest.Value, latest.Type, dev)
	return latest, nil
}

// GetStatistics returns calibrated min/max/avg and the raw count for a
// device and type within the optional window. A zero count keeps the
// {0, 0, 0, 0} convention: the offset is not applied to the fallback.
func (s *Service) GetStatistics(ctx context.Context, deviceID int64, t ReadingType, start, end *time.Time) (*Statistics, error) {
	dev, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	stats, err := s.readings.Statistics(ctx, deviceID, t, start, end)
	if err != nil {
		return nil, err
	}
	if stats.Count == 0 {
		return stats, nil
	}

	offset := offsetFor(t, dev)
	stats.Min += offset
	stats.Max += offset
	stats.Avg += offset
	return stats, nil
}

// ListByType returns calibrated readings of one type across all
// devices, most recent first. Device records are cached per call so
// each device's offsets are fetched once.
func (s *Service) ListByType(ctx context.Context, t ReadingType, limit, offset int) ([]Reading, error) {
	readings, err := s.readings.ListByType(ctx, t, limit, offset)
	if err != nil {
		return nil, err
	}

	cache := make(map[int64]*device.Device)
	for i := range readings {
		dev, ok := cache[readings[i].DeviceID]
		if !ok {
			dev, err = s.devices.GetByID(ctx, readings[i].DeviceID)
			if err != nil {
				return nil, fmt.Errorf("resolving device %d: %w", readings[i].DeviceID, err)
			}
			cache[readings[i].DeviceID] = dev
		}
		readings[i].Value = Calibrate(readings[i].Value, readings[i].Type, dev)
	}
	return readings, nil
}

// DeviceAverages returns the calibrated per-device mean of one type
// across the owner's active devices.
func (s *Service) DeviceAverages(ctx context.Context, ownerID int64, t ReadingType, start, end *time.Time) ([]DeviceAverage, error) {
	return s.readings.DeviceAverages(ctx, ownerID, t, start, end)
}
