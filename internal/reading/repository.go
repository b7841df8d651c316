package reading

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines persistence operations for readings. All query
// methods return only valid values (finite, non-null) and raw,
// uncalibrated magnitudes; calibration belongs to the Service.
type Repository interface {
	// Insert stores a reading and fills in its ID. A zero timestamp
	// defaults to the current time; an invalid value persists as NULL.
	Insert(ctx context.Context, r *Reading) error

	// QueryRange returns a device's valid readings matching the filter,
	// ascending by timestamp. Fails with ErrWindowTooLarge before any
	// row scan when both bounds are set and the span exceeds the cap.
	QueryRange(ctx context.Context, deviceID int64, f Filter) ([]Reading, error)

	// Latest returns the device's most recent valid reading, optionally
	// restricted to one type. Returns ErrNoReadings when none match.
	Latest(ctx context.Context, deviceID int64, t *ReadingType) (*Reading, error)

	// Statistics aggregates min/max/avg/count over a device's valid
	// readings of one type within the optional window. Zero matching
	// rows yield {0, 0, 0, 0}. The same window cap applies.
	Statistics(ctx context.Context, deviceID int64, t ReadingType, start, end *time.Time) (*Statistics, error)

	// ListByType returns valid readings of one type across all devices,
	// most recent first, paginated.
	ListByType(ctx context.Context, t ReadingType, limit, offset int) ([]Reading, error)

	// DeviceAverages returns the calibrated per-device mean of one type
	// across an owner's active devices within the optional window.
	DeviceAverages(ctx context.Context, ownerID int64, t ReadingType, start, end *time.Time) ([]DeviceAverage, error)
}

// readingColumns is the canonical SELECT column list.
const readingColumns = "id, device_id, reading_type, value, timestamp"

// SQLiteRepository implements Repository backed by SQLite.
type SQLiteRepository struct {
	db        *sql.DB
	maxWindow time.Duration
}

// NewSQLiteRepository creates a reading repository. maxWindow caps the
// span of bounded range queries; zero or negative disables the cap.
func NewSQLiteRepository(db *sql.DB, maxWindow time.Duration) *SQLiteRepository {
	return &SQLiteRepository{db: db, maxWindow: maxWindow}
}

// checkWindow enforces the query window guard before any row scan.
func (r *SQLiteRepository) checkWindow(start, end *time.Time) error {
	if start == nil || end == nil {
		return nil
	}
	if end.Before(*start) {
		return ErrInvalidWindow
	}
	if r.maxWindow > 0 && end.Sub(*start) > r.maxWindow {
		return fmt.Errorf("%w: span %s exceeds %s", ErrWindowTooLarge, end.Sub(*start), r.maxWindow)
	}
	return nil
}

// Insert stores a reading. NaN and infinite values are stored as NULL
// so they can never re-enter an aggregate.
func (r *SQLiteRepository) Insert(ctx context.Context, reading *Reading) error {
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now().UTC().Truncate(time.Second)
	}
	reading.Timestamp = reading.Timestamp.UTC()

	var value any
	if IsValidValue(reading.Value) {
		value = reading.Value
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO readings (device_id, reading_type, value, timestamp)
		 VALUES (?, ?, ?, ?)`,
		reading.DeviceID, string(reading.Type), value,
		reading.Timestamp.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting reading: %w", err)
	}

	reading.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading inserted reading id: %w", err)
	}
	return nil
}

// QueryRange returns valid readings ascending by timestamp.
func (r *SQLiteRepository) QueryRange(ctx context.Context, deviceID int64, f Filter) ([]Reading, error) {
	if err := r.checkWindow(f.Start, f.End); err != nil {
		return nil, err
	}

	query := "SELECT " + readingColumns + " FROM readings WHERE device_id = ? AND " + validValuePredicate
	args := []any{deviceID}

	if f.Type != nil {
		query += " AND reading_type = ?"
		args = append(args, string(*f.Type))
	}
	if f.Start != nil {
		query += " AND timestamp >= ?"
		args = append(args, f.Start.UTC().Format(time.RFC3339))
	}
	if f.End != nil {
		query += " AND timestamp <= ?"
		args = append(args, f.End.UTC().Format(time.RFC3339))
	}
	query += " ORDER BY timestamp ASC, id ASC"

	return r.queryReadings(ctx, query, args...)
}

// Latest returns the most recent valid reading for a device.
func (r *SQLiteRepository) Latest(ctx context.Context, deviceID int64, t *ReadingType) (*Reading, error) {
	query := "SELECT " + readingColumns + " FROM readings WHERE device_id = ? AND " + validValuePredicate
	args := []any{deviceID}
	if t != nil {
		query += " AND reading_type = ?"
		args = append(args, string(*t))
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT 1"

	reading, err := scanReadingFrom(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoReadings
		}
		return nil, err
	}
	return reading, nil
}

// Statistics aggregates in SQL; COALESCE supplies the zero-count
// convention for min/max/avg.
func (r *SQLiteRepository) Statistics(ctx context.Context, deviceID int64, t ReadingType, start, end *time.Time) (*Statistics, error) {
	if err := r.checkWindow(start, end); err != nil {
		return nil, err
	}

	query := `SELECT COALESCE(MIN(value), 0), COALESCE(MAX(value), 0),
			COALESCE(AVG(value), 0), COUNT(value)
		FROM readings
		WHERE device_id = ? AND reading_type = ? AND ` + validValuePredicate
	args := []any{deviceID, string(t)}

	if start != nil {
		query += " AND timestamp >= ?"
		args = append(args, start.UTC().Format(time.RFC3339))
	}
	if end != nil {
		query += " AND timestamp <= ?"
		args = append(args, end.UTC().Format(time.RFC3339))
	}

	stats := &Statistics{}
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&stats.Min, &stats.Max, &stats.Avg, &stats.Count)
	if err != nil {
		return nil, fmt.Errorf("aggregating reading statistics: %w", err)
	}
	return stats, nil
}

// ListByType returns valid readings of one type across devices,
// most recent first.
func (r *SQLiteRepository) ListByType(ctx context.Context, t ReadingType, limit, offset int) ([]Reading, error) {
	query := "SELECT " + readingColumns + " FROM readings WHERE reading_type = ? AND " +
		validValuePredicate + " ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?"
	return r.queryReadings(ctx, query, string(t), limit, offset)
}

// DeviceAverages joins the device table so each mean can carry its
// device's calibration offset.
func (r *SQLiteRepository) DeviceAverages(ctx context.Context, ownerID int64, t ReadingType, start, end *time.Time) ([]DeviceAverage, error) {
	if err := r.checkWindow(start, end); err != nil {
		return nil, err
	}

	query := `SELECT d.id, d.device_id, d.name,
			AVG(r.value), COUNT(r.value),
			d.temperature_offset, d.humidity_offset
		FROM devices d
		JOIN readings r ON r.device_id = d.id
		WHERE d.owner_id = ? AND d.is_active = 1 AND r.reading_type = ?
			AND r.value IS NOT NULL AND r.value = r.value
			AND r.value != 9e999 AND r.value != -9e999`
	args := []any{ownerID, string(t)}

	if start != nil {
		query += " AND r.timestamp >= ?"
		args = append(args, start.UTC().Format(time.RFC3339))
	}
	if end != nil {
		query += " AND r.timestamp <= ?"
		args = append(args, end.UTC().Format(time.RFC3339))
	}
	query += " GROUP BY d.id ORDER BY d.device_id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying device averages: %w", err)
	}
	defer rows.Close()

	averages := []DeviceAverage{}
	for rows.Next() {
		var (
			avg        DeviceAverage
			name       sql.NullString
			tempOffset sql.NullFloat64
			humOffset  sql.NullFloat64
		)
		if err := rows.Scan(&avg.DeviceID, &avg.ExternalDeviceID, &name,
			&avg.Average, &avg.Count, &tempOffset, &humOffset); err != nil {
			return nil, fmt.Errorf("scanning device average: %w", err)
		}
		avg.Name = name.String

		switch t {
		case TypeTemperature:
			if tempOffset.Valid {
				avg.Average += tempOffset.Float64
			}
		case TypeHumidity:
			if humOffset.Valid {
				avg.Average += humOffset.Float64
			}
		}
		averages = append(averages, avg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device averages: %w", err)
	}
	return averages, nil
}

func (r *SQLiteRepository) queryReadings(ctx context.Context, query string, args ...any) ([]Reading, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}
	defer rows.Close()

	readings := []Reading{}
	for rows.Next() {
		reading, err := scanReadingFrom(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, *reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating readings: %w", err)
	}
	return readings, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func scanReadingFrom(s scanner) (*Reading, error) {
	var (
		reading     Reading
		readingType string
		value       sql.NullFloat64
		timestamp   string
	)

	err := s.Scan(&reading.ID, &reading.DeviceID, &readingType, &value, &timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning reading: %w", err)
	}

	reading.Type = ReadingType(readingType)
	reading.Value = value.Float64

	reading.Timestamp, err = time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return nil, fmt.Errorf("parsing reading timestamp %q: %w", timestamp, err)
	}
	return &reading, nil
}
