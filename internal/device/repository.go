package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for device persistence operations.
// The abstraction allows mock implementations in tests of the read path.
type Repository interface {
	// GetByID retrieves a device by its internal numeric identifier.
	// Returns ErrDeviceNotFound if the device does not exist.
	GetByID(ctx context.Context, id int64) (*Device, error)

	// GetByDeviceID retrieves a device by its external hardware identifier.
	// Returns ErrDeviceNotFound if the device does not exist.
	GetByDeviceID(ctx context.Context, deviceID string) (*Device, error)

	// ListByOwner retrieves devices belonging to a user, ordered by
	// creation. When activeOnly is true, soft-deleted devices are skipped.
	ListByOwner(ctx context.Context, ownerID int64, activeOnly bool, limit, offset int) ([]Device, error)

	// Create inserts a new device and fills in its internal ID.
	// Returns ErrDeviceExists if the external device_id is already taken.
	Create(ctx context.Context, d *Device) error

	// Update modifies a device's name, owner, active flag, and offsets.
	// Returns ErrDeviceNotFound if the device does not exist.
	Update(ctx context.Context, d *Device) error

	// Deactivate soft-deletes a device (is_active = false).
	// Returns ErrDeviceNotFound if the device does not exist.
	Deactivate(ctx context.Context, id int64) error

	// IsOwner reports whether the user owns the device. A missing device
	// or an unclaimed device is not owned by anyone.
	IsOwner(ctx context.Context, id, userID int64) (bool, error)

	// GetOrCreate returns the device with the given external identifier,
	// creating an unclaimed placeholder if none exists. This is the
	// idempotent ingestion-boundary operation: readings may arrive before
	// a device is formally registered.
	GetOrCreate(ctx context.Context, deviceID string) (*Device, error)
}

// deviceColumns is the column list shared by all device SELECTs.
const deviceColumns = `id, device_id, name, owner_id, is_active,
	temperature_offset, humidity_offset, created_at, updated_at`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed device repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID retrieves a device by its internal numeric identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*Device, error) {
	return r.getDevice(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE id = ?", id)
}

// GetByDeviceID retrieves a device by its external hardware identifier.
func (r *SQLiteRepository) GetByDeviceID(ctx context.Context, deviceID string) (*Device, error) {
	return r.getDevice(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE device_id = ?", deviceID)
}

// ListByOwner retrieves devices belonging to a user.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID int64, activeOnly bool, limit, offset int) ([]Device, error) {
	query := "SELECT " + deviceColumns + " FROM devices WHERE owner_id = ?"
	if activeOnly {
		query += " AND is_active = 1"
	}
	query += " ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?"

	rows, err := r.db.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	defer rows.Close()

	devices := []Device{}
	for rows.Next() {
		d, err := scanDeviceFrom(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}

// Create inserts a new device and fills in its internal ID.
func (r *SQLiteRepository) Create(ctx context.Context, d *Device) error {
	if err := Validate(d); err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	d.CreatedAt = now
	d.UpdatedAt = now

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO devices (device_id, name, owner_id, is_active,
			temperature_offset, humidity_offset, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.DeviceID, nullString(d.Name), nullInt64(d.OwnerID), boolToInt(d.IsActive),
		nullFloat64(d.TemperatureOffset), nullFloat64(d.HumidityOffset),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDeviceExists
		}
		return fmt.Errorf("creating device: %w", err)
	}

	d.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading inserted device id: %w", err)
	}
	return nil
}

// Update modifies a device's mutable fields.
func (r *SQLiteRepository) Update(ctx context.Context, d *Device) error {
	if err := Validate(d); err != nil {
		return err
	}

	d.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	result, err := r.db.ExecContext(ctx,
		`UPDATE devices SET name = ?, owner_id = ?, is_active = ?,
			temperature_offset = ?, humidity_offset = ?, updated_at = ?
		 WHERE id = ?`,
		nullString(d.Name), nullInt64(d.OwnerID), boolToInt(d.IsActive),
		nullFloat64(d.TemperatureOffset), nullFloat64(d.HumidityOffset),
		d.UpdatedAt.Format(time.RFC3339), d.ID,
	)
	if err != nil {
		return fmt.Errorf("updating device: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// Deactivate soft-deletes a device.
func (r *SQLiteRepository) Deactivate(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE devices SET is_active = 0, updated_at = ? WHERE id = ?",
		time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("deactivating device: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// IsOwner reports whether the user owns the device.
func (r *SQLiteRepository) IsOwner(ctx context.Context, id, userID int64) (bool, error) {
	d, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			return false, nil
		}
		return false, err
	}
	return d.OwnerID != nil && *d.OwnerID == userID, nil
}

// GetOrCreate returns the device with the given external identifier,
// creating an unclaimed placeholder if none exists.
func (r *SQLiteRepository) GetOrCreate(ctx context.Context, deviceID string) (*Device, error) {
	d, err := r.GetByDeviceID(ctx, deviceID)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, ErrDeviceNotFound) {
		return nil, err
	}

	created := &Device{
		DeviceID: deviceID,
		IsActive: true,
	}
	if err := r.Create(ctx, created); err != nil {
		// Lost a race with a concurrent insert; the device exists now.
		if errors.Is(err, ErrDeviceExists) {
			return r.GetByDeviceID(ctx, deviceID)
		}
		return nil, err
	}
	return created, nil
}

// getDevice executes a query and scans a single device result.
func (r *SQLiteRepository) getDevice(ctx context.Context, query string, args ...any) (*Device, error) {
	return scanDeviceFrom(r.db.QueryRowContext(ctx, query, args...))
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanDeviceFrom scans a device from any scanner (Row or Rows).
func scanDeviceFrom(s scanner) (*Device, error) {
	var d Device
	var name sql.NullString
	var ownerID sql.NullInt64
	var tempOffset, humOffset sql.NullFloat64
	var isActive int
	var createdAt, updatedAt string

	err := s.Scan(&d.ID, &d.DeviceID, &name, &ownerID, &isActive,
		&tempOffset, &humOffset, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("scanning device: %w", err)
	}

	d.IsActive = isActive != 0
	if name.Valid {
		d.Name = name.String
	}
	if ownerID.Valid {
		d.OwnerID = &ownerID.Int64
	}
	if tempOffset.Valid {
		d.TemperatureOffset = &tempOffset.Float64
	}
	if humOffset.Valid {
		d.HumidityOffset = &humOffset.Float64
	}

	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &d, nil
}

// Helper functions.

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullFloat64(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
