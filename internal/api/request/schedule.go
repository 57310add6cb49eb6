package request

// CreateSchedule registers a backup schedule. CompressionEnabled,
// RetentionDays and MaxBackups are pointers so that an omitted field gets the
// documented default rather than the zero value (zero caps mean retention is
// disabled, which must be an explicit choice).
type CreateSchedule struct {
	ConnectionID       string   `json:"connection_id" validate:"required"`
	Name               string   `json:"name" validate:"required,max=128"`
	Frequency          string   `json:"frequency" validate:"required,oneof=manual hourly daily weekly monthly custom"`
	CronExpression     *string  `json:"cron_expression,omitempty"`
	BackupType         string   `json:"backup_type" validate:"required,oneof=full schema tables"`
	BackupFormat       string   `json:"backup_format" validate:"required,oneof=sql dump backup"`
	CompressionEnabled *bool    `json:"compression_enabled,omitempty"`
	EncryptionEnabled  bool     `json:"encryption_enabled"`
	SelectedSchemas    []string `json:"selected_schemas,omitempty"`
	SelectedTables     []string `json:"selected_tables,omitempty"`
	RetentionDays      *int     `json:"retention_days,omitempty" validate:"omitempty,min=0"`
	MaxBackups         *int     `json:"max_backups,omitempty" validate:"omitempty,min=0"`
}

// UpdateSchedule modifies a schedule. Omitted pointer fields keep the
// schedule's current values.
type UpdateSchedule struct {
	Name               string   `json:"name" validate:"required,max=128"`
	Frequency          string   `json:"frequency" validate:"required,oneof=manual hourly daily weekly monthly custom"`
	CronExpression     *string  `json:"cron_expression,omitempty"`
	BackupType         string   `json:"backup_type" validate:"required,oneof=full schema tables"`
	BackupFormat       string   `json:"backup_format" validate:"required,oneof=sql dump backup"`
	CompressionEnabled *bool    `json:"compression_enabled,omitempty"`
	EncryptionEnabled  bool     `json:"encryption_enabled"`
	SelectedSchemas    []string `json:"selected_schemas,omitempty"`
	SelectedTables     []string `json:"selected_tables,omitempty"`
	RetentionDays      *int     `json:"retention_days,omitempty" validate:"omitempty,min=0"`
	MaxBackups         *int     `json:"max_backups,omitempty" validate:"omitempty,min=0"`
	IsActive           bool     `json:"is_active"`
}
