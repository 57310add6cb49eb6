package model

import "time"

// APIToken is a bearer credential. Only the SHA-256 hash of the raw token is
// stored; the raw value is shown once at creation time.
type APIToken struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	Name      string     `json:"name" db:"name"`
	TokenHash string     `json:"-" db:"token_hash"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
}
