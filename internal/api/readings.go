package api

import (
	"errors"
	"net/http"

	"github.com/harvco/telemetry-core/internal/device"
	"github.com/harvco/telemetry-core/internal/reading"
)

// handleListReadings retrieves readings with optional filters.
//
// Two query paths share this endpoint:
//   - device_id present: the device's readings within an optional
//     [start_date, end_date] window, downsampled when the window is fully
//     bounded and the result is large.
//   - device_id absent: readings of one type across all devices,
//     paginated newest first (reading_type is required on this path).
func (s *Server) handleListReadings(w http.ResponseWriter, r *http.Request) {
	start, err := timeParam(r, "start_date")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	end, err := timeParam(r, "end_date")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var readingType *reading.ReadingType
	if v := r.URL.Query().Get("reading_type"); v != "" {
		t, parseErr := reading.ParseReadingType(v)
		if parseErr != nil {
			writeBadRequest(w, parseErr.Error())
			return
		}
		readingType = &t
	}

	if deviceID, ok := int64QueryParam(r, "device_id"); ok {
		if _, authorized := s.authorizeDevice(w, r, deviceID); !authorized {
			return
		}

		readings, qErr := s.readings.GetByDevice(r.Context(), deviceID, reading.Filter{
			Type:  readingType,
			Start: start,
			End:   end,
		})
		if qErr != nil {
			writeReadingError(w, qErr)
			return
		}
		writeJSON(w, http.StatusOK, readings)
		return
	}

	if readingType == nil {
		writeBadRequest(w, "reading_type is required when device_id is not set")
		return
	}

	limit, offset := paginationParams(r)
	readings, err := s.readings.ListByType(r.Context(), *readingType, limit, offset)
	if err != nil {
		writeReadingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, readings)
}

// handleReadingStatistics returns min/max/avg/count for one device and
// reading type within an optional window.
func (s *Server) handleReadingStatistics(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := int64QueryParam(r, "device_id")
	if !ok {
		writeBadRequest(w, "device_id is required")
		return
	}
	readingType, err := reading.ParseReadingType(r.URL.Query().Get("reading_type"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	start, err := timeParam(r, "start_date")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	end, err := timeParam(r, "end_date")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if _, authorized := s.authorizeDevice(w, r, deviceID); !authorized {
		return
	}

	stats, err := s.readings.GetStatistics(r.Context(), deviceID, readingType, start, end)
	if err != nil {
		writeReadingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleLatestReading returns the most recent valid reading for a device,
// optionally restricted to one reading type.
func (s *Server) handleLatestReading(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := int64QueryParam(r, "device_id")
	if !ok {
		writeBadRequest(w, "device_id is required")
		return
	}

	var readingType *reading.ReadingType
	if v := r.URL.Query().Get("reading_type"); v != "" {
		t, err := reading.ParseReadingType(v)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		readingType = &t
	}

	if _, authorized := s.authorizeDevice(w, r, deviceID); !authorized {
		return
	}

	latest, err := s.readings.GetLatest(r.Context(), deviceID, readingType)
	if err != nil {
		if errors.Is(err, reading.ErrNoReadings) {
			writeNotFound(w, "no readings found for this device")
			return
		}
		writeReadingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

// handleDeviceAverages returns the calibrated mean of one reading type
// for every active device the caller owns.
func (s *Server) handleDeviceAverages(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	readingType, err := reading.ParseReadingType(r.URL.Query().Get("reading_type"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	start, err := timeParam(r, "start_date")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	end, err := timeParam(r, "end_date")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	averages, err := s.readings.DeviceAverages(r.Context(), user.ID, readingType, start, end)
	if err != nil {
		writeReadingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, averages)
}

// authorizeDevice loads a device by ID and enforces that the caller owns
// it. Missing devices yield 404, foreign devices 403. Superusers bypass
// the ownership check.
func (s *Server) authorizeDevice(w http.ResponseWriter, r *http.Request, deviceID int64) (*device.Device, bool) {
	dev, err := s.devices.GetByID(r.Context(), deviceID)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return nil, false
		}
		writeInternalError(w, "failed to get device")
		return nil, false
	}

	user := currentUser(r)
	if !user.IsSuperuser && (dev.OwnerID == nil || *dev.OwnerID != user.ID) {
		writeForbidden(w, "not enough permissions to access this device")
		return nil, false
	}

	return dev, true
}

// writeReadingError maps reading query errors onto HTTP responses.
func writeReadingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reading.ErrWindowTooLarge):
		writeBadRequest(w, "query window exceeds the maximum allowed range")
	case errors.Is(err, reading.ErrInvalidWindow):
		writeBadRequest(w, "start_date must not be after end_date")
	case errors.Is(err, reading.ErrInvalidReadingType):
		writeBadRequest(w, err.Error())
	case errors.Is(err, device.ErrDeviceNotFound):
		writeNotFound(w, "device not found")
	default:
		writeInternalError(w, "failed to query readings")
	}
}
