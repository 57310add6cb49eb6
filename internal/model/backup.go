package model

import "time"

// BackupRecord is one row of backup_history: a single execution attempt.
// Status transitions are one-way (pending -> running -> completed|failed);
// a record is never mutated once it reaches a terminal status.
type BackupRecord struct {
	ID                 string     `json:"id" db:"id"`
	UserID             string     `json:"user_id" db:"user_id"`
	ConnectionID       *string    `json:"connection_id,omitempty" db:"connection_id"`
	ScheduleID         *string    `json:"schedule_id,omitempty" db:"schedule_id"`
	Status             string     `json:"status" db:"status"`
	BackupType         string     `json:"backup_type" db:"backup_type"`
	BackupFormat       string     `json:"backup_format" db:"backup_format"`
	FileName           *string    `json:"file_name,omitempty" db:"file_name"`
	FilePath           *string    `json:"file_path,omitempty" db:"file_path"`
	FileSizeBytes      *int64     `json:"file_size_bytes,omitempty" db:"file_size_bytes"`
	Checksum           *string    `json:"checksum,omitempty" db:"checksum"`
	CompressionEnabled bool       `json:"compression_enabled" db:"compression_enabled"`
	EncryptionEnabled  bool       `json:"encryption_enabled" db:"encryption_enabled"`
	StartedAt          *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	ErrorMessage       *string    `json:"error_message,omitempty" db:"error_message"`
	TablesBackedUp     *int       `json:"tables_backed_up,omitempty" db:"tables_backed_up"`
	RetryCount         int        `json:"retry_count" db:"retry_count"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
}

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)
