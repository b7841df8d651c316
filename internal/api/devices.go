package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/harvco/telemetry-core/internal/device"
)

// createDeviceRequest is the request body for POST /devices.
type createDeviceRequest struct {
	DeviceID          string   `json:"device_id"`
	Name              string   `json:"name"`
	TemperatureOffset *float64 `json:"temperature_offset"`
	HumidityOffset    *float64 `json:"humidity_offset"`
}

// updateDeviceRequest is the request body for PATCH /devices/{id}.
// Nil fields are left unchanged.
type updateDeviceRequest struct {
	Name              *string  `json:"name"`
	IsActive          *bool    `json:"is_active"`
	TemperatureOffset *float64 `json:"temperature_offset"`
	HumidityOffset    *float64 `json:"humidity_offset"`
}

// handleListDevices returns the authenticated user's devices.
//
// Query parameters:
//   - active_only: when "true", soft-deleted devices are skipped
//   - limit, offset: pagination
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	activeOnly := r.URL.Query().Get("active_only") == "true"
	limit, offset := paginationParams(r)

	devices, err := s.devices.ListByOwner(r.Context(), user.ID, activeOnly, limit, offset)
	if err != nil {
		writeInternalError(w, "failed to list devices")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleCreateDevice registers a new device owned by the caller.
//
// If the hardware identifier already belongs to an unclaimed placeholder
// created by ingestion, the placeholder is claimed instead of rejected.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req createDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := device.ValidateOffsets(req.TemperatureOffset, req.HumidityOffset); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	dev := &device.Device{
		DeviceID:          req.DeviceID,
		Name:              req.Name,
		OwnerID:           &user.ID,
		IsActive:          true,
		TemperatureOffset: req.TemperatureOffset,
		HumidityOffset:    req.HumidityOffset,
	}

	err := s.devices.Create(r.Context(), dev)
	if errors.Is(err, device.ErrDeviceExists) {
		existing, getErr := s.devices.GetByDeviceID(r.Context(), req.DeviceID)
		if getErr != nil {
			writeInternalError(w, "failed to create device")
			return
		}
		if existing.OwnerID != nil {
			writeConflict(w, "device with this device_id already exists")
			return
		}

		// Claim the ingestion placeholder.
		existing.Name = req.Name
		existing.OwnerID = &user.ID
		existing.IsActive = true
		existing.TemperatureOffset = req.TemperatureOffset
		existing.HumidityOffset = req.HumidityOffset
		if updErr := s.devices.Update(r.Context(), existing); updErr != nil {
			writeInternalError(w, "failed to claim device")
			return
		}
		writeJSON(w, http.StatusCreated, existing)
		return
	}
	if err != nil {
		if errors.Is(err, device.ErrInvalidDeviceID) {
			writeBadRequest(w, err.Error())
			return
		}
		writeInternalError(w, "failed to create device")
		return
	}

	writeJSON(w, http.StatusCreated, dev)
}

// handleGetDevice returns a single device owned by the caller.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.ownedDevice(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

// handleUpdateDevice partially updates a device's name, active flag, and
// calibration offsets.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.ownedDevice(w, r)
	if !ok {
		return
	}

	var req updateDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Name != nil {
		dev.Name = *req.Name
	}
	if req.IsActive != nil {
		dev.IsActive = *req.IsActive
	}
	if req.TemperatureOffset != nil {
		dev.TemperatureOffset = req.TemperatureOffset
	}
	if req.HumidityOffset != nil {
		dev.HumidityOffset = req.HumidityOffset
	}

	if err := device.ValidateOffsets(dev.TemperatureOffset, dev.HumidityOffset); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.devices.Update(r.Context(), dev); err != nil {
		switch {
		case errors.Is(err, device.ErrDeviceNotFound):
			writeNotFound(w, "device not found")
		case errors.Is(err, device.ErrInvalidDeviceID):
			writeBadRequest(w, err.Error())
		default:
			writeInternalError(w, "failed to update device")
		}
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// handleDeleteDevice soft-deletes a device. Readings stay resolvable.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	dev, ok := s.ownedDevice(w, r)
	if !ok {
		return
	}

	if err := s.devices.Deactivate(r.Context(), dev.ID); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to deactivate device")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ownedDevice loads the device from the {id} URL parameter and enforces
// ownership. On failure it writes the error response and returns ok=false.
// Superusers may access any device.
func (s *Server) ownedDevice(w http.ResponseWriter, r *http.Request) (*device.Device, bool) {
	id, err := idParam(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return nil, false
	}

	dev, err := s.devices.GetByID(r.Context(), id)
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
