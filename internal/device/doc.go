// Package device provides the device registry for the Harvco platform.
//
// The registry is the catalogue of sensor devices: their external
// hardware identity, ownership, active flag, and per-type calibration
// offsets. The read path (internal/reading) looks devices up here to
// resolve calibration offsets and to authorise access; the ingestion
// service uses GetOrCreate to register placeholder devices the first
// time hardware reports in.
//
// # Key Types
//
//   - Device: a registered sensor device
//   - Repository: persistence interface with a SQLite implementation
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db.DB)
//
//	d, err := repo.GetOrCreate(ctx, "62ba71")
//	if err != nil {
//	    return err
//	}
//
//	ok, err := repo.IsOwner(ctx, d.ID, userID)
//
// All repository methods are safe for concurrent use.
package device
