package request

// RunBackup triggers one on-demand backup execution.
type RunBackup struct {
	ConnectionID       string   `json:"connection_id" validate:"required"`
	ScheduleID         *string  `json:"schedule_id,omitempty"`
	BackupType         string   `json:"backup_type" validate:"required,oneof=full schema tables"`
	BackupFormat       string   `json:"backup_format" validate:"required,oneof=sql dump backup"`
	CompressionEnabled bool     `json:"compression_enabled"`
	EncryptionEnabled  bool     `json:"encryption_enabled"`
	SelectedSchemas    []string `json:"selected_schemas,omitempty"`
	SelectedTables     []string `json:"selected_tables,omitempty"`
}

// CreateToken issues a new bearer token.
type CreateToken struct {
	Name string `json:"name" validate:"required,max=128"`
}
