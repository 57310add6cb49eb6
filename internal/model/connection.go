package model

import "time"

type Connection struct {
	ID                string     `json:"id" db:"id"`
	UserID            string     `json:"user_id" db:"user_id"`
	Name              string     `json:"name" db:"name"`
	Host              string     `json:"host" db:"host"`
	Port              int        `json:"port" db:"port"`
	DatabaseName      string     `json:"database_name" db:"database_name"`
	Username          string     `json:"username" db:"username"`
	PasswordEncrypted string     `json:"-" db:"password_encrypted"`
	SSLMode           string     `json:"ssl_mode" db:"ssl_mode"`
	DBType            string     `json:"db_type" db:"db_type"`
	IsActive          bool       `json:"is_active" db:"is_active"`
	LastConnectedAt   *time.Time `json:"last_connected_at,omitempty" db:"last_connected_at"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

const (
	DBTypePostgreSQL = "postgresql"
)
