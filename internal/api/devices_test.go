package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harvco/telemetry-core/internal/device"
)

// createDeviceViaAPI registers a device through the API and returns it.
func createDeviceViaAPI(t *testing.T, router http.Handler, token, body string) device.Device {
	t.Helper()

	req := authedRequest(http.MethodPost, "/api/v1/devices", token, body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var created device.Device
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal created device: %v", err)
	}
	return created
}

func TestCreateAndGetDevice(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()
	token := registerAndLogin(t, router, "owner@example.com")

	created := createDeviceViaAPI(t, router, token,
		`{"device_id": "62ba71", "name": "Greenhouse", "temperature_offset": 1.5}`)

	if created.ID == 0 {
		t.Error("expected device ID to be assigned")
	}
	if created.OwnerID == nil {
		t.Error("expected owner to be set from the authenticated user")
	}

	req := authedRequest(http.MethodGet, fmt.Sprintf("/api/v1/devices/%d", created.ID), token, "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", w.Code, http.StatusOK)
	}

	var got device.Device
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != "Greenhouse" {
		t.Errorf("name = %q, want Greenhouse", got.Name)
	}
	if got.TemperatureOffset == nil || *got.TemperatureOffset != 1.5 {
		t.Errorf("temperature offset = %v, want 1.5", got.TemperatureOffset)
	}
}

func TestCreateDevice_OffsetOutOfRange(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()
	token := registerAndLogin(t, router, "owner@example.com")

	req := authedRequest(http.MethodPost, "/api/v1/devices", token,
		`{"device_id": "bad-offset", "temperature_offset": 50.0}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusBadRequest, w.Body.String())
	}
}

func TestCreateDevice_ClaimsIngestionPlaceholder(t *testing.T) {
	srv, db := testServer(t)
	router := srv.buildRouter()
	token := registerAndLogin(t, router, "owner@example.com")

	// Simulate ingestion creating an unclaimed placeholder first.
	repo := device.NewSQLiteRepository(db)
	placeholder, err := repo.GetOrCreate(context.Background(), "62ba71")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	created := createDeviceViaAPI(t, router, token,
		`{"device_id": "62ba71", "name": "Greenhouse"}`)

	if created.ID != placeholder.ID {
		t.Errorf("claimed device ID = %d, want placeholder %d", created.ID, placeholder.ID)
	}
	if created.OwnerID == nil {
		t.Error("expected placeholder to be claimed by the caller")
	}
}

func TestCreateDevice_DuplicateOwned(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()
	token := registerAndLogin(t, router, "owner@example.com")

	createDeviceViaAPI(t, router, token, `{"device_id": "62ba71"}`)

	req := authedRequest(http.MethodPost, "/api/v1/devices", token, `{"device_id": "62ba71"}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestGetDevice_NotFound(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()
	token := registerAndLogin(t, router, "owner@example.com")

	req := authedRequest(http.MethodGet, "/api/v1/devices/9999", token, "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestGetDevice_ForeignOwner(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	ownerToken := registerAndLogin(t, router, "owner@example.com")
	otherToken := registerAndLogin(t, router, "other@example.com")

	created := createDeviceViaAPI(t, router, ownerToken, `{"device_id": "62ba71"}`)

	req := authedRequest(http.MethodGet, fmt.Sprintf("/api/v1/devices/%d", created.ID), otherToken, "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestUpdateDevice(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()
	token := registerAndLogin(t, router, "owner@example.com")

	created := createDeviceViaAPI(t, router, token, `{"device_id": "62ba71", "name": "Old Name"}`)

	req := authedRequest(http.MethodPatch, fmt.Sprintf("/api/v1/devices/%d", created.ID), token,
		`{"name": "New Name", "humidity_offset": -2.5}`)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var updated device.Device
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if updated.Name != "New Name" {
		t.Errorf("name = %q, want New Name", updated.Name)
	}
	if updated.HumidityOffset == nil || *updated.HumidityOffset != -2.5 {
		t.Errorf("humidity offset = %v, want -2.5", updated.HumidityOffset)
	}
}

func TestDeleteDevice_SoftDeletes(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()
	token := registerAndLogin(t, router, "owner@example.com")

	created := createDeviceViaAPI(t, router, token, `{"device_id": "62ba71"}`)

	req := authedRequest(http.MethodDelete, fmt.Sprintf("/api/v1/devices/%d", created.ID), token, "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", w.Code, http.StatusNoContent)
	}

	// The device is soft-deleted: still retrievable, no longer active.
	req = authedRequest(http.MethodGet, fmt.Sprintf("/api/v1/devices/%d", created.ID), token, "")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", w.Code, http.StatusOK)
	}

	var got device.Device
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.IsActive {
		t.Error("expected device to be inactive after delete")
	}
}

func TestListDevices_OwnerScoped(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	ownerToken := registerAndLogin(t, router, "owner@example.com")
	otherToken := registerAndLogin(t, router, "other@example.com")

	createDeviceViaAPI(t, router, ownerToken, `{"device_id": "device-a"}`)
	createDeviceViaAPI(t, router, ownerToken, `{"device_id": "device-b"}`)
	createDeviceViaAPI(t, router, otherToken, `{"device_id": "device-c"}`)

	req := authedRequest(http.MethodGet, "/api/v1/devices", ownerToken, "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Devices []device.Device `json:"devices"`
		Count   int             `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2", resp.Count)
	}
	for _, d := range resp.Devices {
		if d.DeviceID == "device-c" {
			t.Error("listing must not include another user's devices")
		}
	}
}

func TestListDevices_ActiveOnly(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()
	token := registerAndLogin(t, router, "owner@example.com")

	keep := createDeviceViaAPI(t, router, token, `{"device_id": "device-a"}`)
	drop := createDeviceViaAPI(t, router, token, `{"device_id": "device-b"}`)

	req := authedRequest(http.MethodDelete, fmt.Sprintf("/api/v1/devices/%d", drop.ID), token, "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}

	req = authedRequest(http.MethodGet, "/api/v1/devices?active_only=true", token, "")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp struct {
		Devices []device.Device `json:"devices"`
		Count   int             `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 1 || resp.Devices[0].ID != keep.ID {
		t.Errorf("active-only listing = %+v, want only device %d", resp.Devices, keep.ID)
	}
}
