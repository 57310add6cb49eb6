package backup

import "errors"

var (
	// ErrAlreadyRunning means the per-schedule single-flight guard is held
	// by another execution.
	ErrAlreadyRunning = errors.New("a backup for this schedule is already running")

	// ErrConnection wraps probe/connect/query failures against the target
	// database.
	ErrConnection = errors.New("target database connection failed")

	// ErrStorage wraps artifact upload, delete, and signed-URL failures.
	ErrStorage = errors.New("artifact storage failed")

	// ErrNotFound means a record is absent or not owned by the caller.
	ErrNotFound = errors.New("not found")
)
