package api

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harvco/telemetry-core/internal/auth"
	"github.com/harvco/telemetry-core/internal/device"
	"github.com/harvco/telemetry-core/internal/infrastructure/config"
	"github.com/harvco/telemetry-core/internal/infrastructure/logging"
	"github.com/harvco/telemetry-core/internal/reading"
)

const testJWTSecret = "test-secret-key-at-least-32-characters-long"

// testServer creates a Server with real repositories backed by in-memory SQLite.
func testServer(t *testing.T) (*Server, *sql.DB) {
	t.Helper()

	db := setupTestDB(t)
	deviceRepo := device.NewSQLiteRepository(db)
	readingRepo := reading.NewSQLiteRepository(db, 30*24*time.Hour)

	log := logging.New(config.Logging{Level: "error", Format: "text", Output: "stdout"}, "test", "test")

	authSvc := auth.NewService(auth.NewUserRepository(db), testJWTSecret, 15)
	readingSvc := reading.NewService(deviceRepo, readingRepo, reading.DefaultDownsampleThreshold, log)

	srv, err := New(Deps{
		Config: config.API{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeouts{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
			WebSocket: config.WebSocket{
				MaxMessageSize: 8192,
				PingInterval:   30,
				PongTimeout:    10,
			},
		},
		Security: config.Security{
			JWT: config.JWT{
				Secret:         testJWTSecret,
				AccessTokenTTL: 15,
			},
		},
		Logger:   log,
		Auth:     authSvc,
		Devices:  deviceRepo,
		Readings: readingSvc,
		MQTT:     nil, // live feed disabled in tests
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	return srv, db
}

// setupTestDB creates an in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_active     INTEGER NOT NULL DEFAULT 1,
			is_superuser  INTEGER NOT NULL DEFAULT 0,
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL
		) STRICT;
		CREATE TABLE devices (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id          TEXT NOT NULL UNIQUE,
			name               TEXT,
			owner_id           INTEGER REFERENCES users(id),
			is_active          INTEGER NOT NULL DEFAULT 1,
			temperature_offset REAL,
			humidity_offset    REAL,
			created_at         TEXT NOT NULL,
			updated_at         TEXT NOT NULL
		) STRICT;
		CREATE TABLE readings (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id    INTEGER NOT NULL REFERENCES devices(id),
			reading_type TEXT NOT NULL,
			value        REAL,
			timestamp    TEXT NOT NULL
		) STRICT;
	`

	if _, execErr := db.Exec(schema); execErr != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", execErr)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// registerAndLogin creates a user through the API and returns a bearer token.
func registerAndLogin(t *testing.T, router http.Handler, email string) string {
	t.Helper()

	body := fmt.Sprintf(`{"email": %q, "password": "swordfish42"}`, email)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want %d; body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp loginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal login response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected a non-empty access token")
	}
	return resp.AccessToken
}

// authedRequest builds a request carrying the given bearer token.
func authedRequest(method, target, token string, body string) *http.Request {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ─── Health Endpoint Tests ─────────────────────────────────────────

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["version"] != "test" {
		t.Errorf("version = %v, want test", resp["version"])
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}
}

// ─── Middleware Tests ──────────────────────────────────────────────

func TestRequestID_Generated(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}
}

func TestRequestID_PreservesClient(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want %q", got, "client-123")
	}
}

func TestCORS_Preflight(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q, want %q", got, "http://localhost:3000")
	}
}

func TestProtectedRoute_MissingToken(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestProtectedRoute_GarbageToken(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := authedRequest(http.MethodGet, "/api/v1/users/me", "not-a-jwt", "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// ─── Auth and User Tests ───────────────────────────────────────────

func TestRegisterLoginMe(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	token := registerAndLogin(t, router, "alice@example.com")

	req := authedRequest(http.MethodGet, "/api/v1/users/me", token, "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var me auth.User
	if err := json.Unmarshal(w.Body.Bytes(), &me); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if me.Email != "alice@example.com" {
		t.Errorf("email = %q, want alice@example.com", me.Email)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Error("response must not leak password material")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	registerAndLogin(t, router, "bob@example.com")

	body := `{"email": "bob@example.com", "password": "swordfish42"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestRegister_WeakPassword(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	body := `{"email": "short@example.com", "password": "abc"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	registerAndLogin(t, router, "carol@example.com")

	body := `{"email": "carol@example.com", "password": "wrong-password"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestWSTicket_RequiresAuth(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/ws-ticket", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestWSTicket_SingleUse(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.buildRouter()

	token := registerAndLogin(t, router, "dora@example.com")

	req := authedRequest(http.MethodPost, "/api/v1/auth/ws-ticket", token, "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("ticket status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	ticket, _ := resp["ticket"].(string) //nolint:errcheck // asserted below
	if ticket == "" {
		t.Fatal("expected a non-empty ticket")
	}

	if _, ok := srv.tickets.consume(ticket); !ok {
		t.Error("first consume should succeed")
	}
	if _, ok := srv.tickets.consume(ticket); ok {
		t.Error("second consume should fail: tickets are single-use")
	}
}
