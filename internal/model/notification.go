package model

import "time"

type Notification struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	Type      string    `json:"type" db:"type"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	BackupID  *string   `json:"backup_id,omitempty" db:"backup_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
	NotificationError   = "error"
)
