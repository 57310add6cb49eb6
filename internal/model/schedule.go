package model

import "time"

type Schedule struct {
	ID                 string     `json:"id" db:"id"`
	UserID             string     `json:"user_id" db:"user_id"`
	ConnectionID       string     `json:"connection_id" db:"connection_id"`
	Name               string     `json:"name" db:"name"`
	Frequency          string     `json:"frequency" db:"frequency"`
	CronExpression     *string    `json:"cron_expression,omitempty" db:"cron_expression"`
	BackupType         string     `json:"backup_type" db:"backup_type"`
	BackupFormat       string     `json:"backup_format" db:"backup_format"`
	CompressionEnabled bool       `json:"compression_enabled" db:"compression_enabled"`
	EncryptionEnabled  bool       `json:"encryption_enabled" db:"encryption_enabled"`
	SelectedSchemas    []string   `json:"selected_schemas,omitempty" db:"selected_schemas"`
	SelectedTables     []string   `json:"selected_tables,omitempty" db:"selected_tables"`
	RetentionDays      int        `json:"retention_days" db:"retention_days"`
	MaxBackups         int        `json:"max_backups" db:"max_backups"`
	IsActive           bool       `json:"is_active" db:"is_active"`
	NextRunAt          *time.Time `json:"next_run_at,omitempty" db:"next_run_at"`
	LastRunAt          *time.Time `json:"last_run_at,omitempty" db:"last_run_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// Retention defaults applied when a schedule is created without explicit caps.
const (
	DefaultRetentionDays = 30
	DefaultMaxBackups    = 10
)

const (
	FrequencyManual  = "manual"
	FrequencyHourly  = "hourly"
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyCustom  = "custom"
)

const (
	BackupTypeFull   = "full"
	BackupTypeSchema = "schema"
	BackupTypeTables = "tables"
)

const (
	BackupFormatSQL    = "sql"
	BackupFormatDump   = "dump"
	BackupFormatBackup = "backup"
)
