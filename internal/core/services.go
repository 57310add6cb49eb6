package core

import (
	"github.com/rs/zerolog"

	"github.com/edvin/dbvault/internal/crypto"
)

// Services bundles all core services for wiring into the API server.
type Services struct {
	Connection   *ConnectionService
	Schedule     *ScheduleService
	Backup       *BackupService
	Notification *NotificationService
	Token        *TokenService
}

func NewServices(db DB, cipher *crypto.Cipher, store ArtifactStore, logger zerolog.Logger) *Services {
	return &Services{
		Connection:   NewConnectionService(db, cipher),
		Schedule:     NewScheduleService(db),
		Backup:       NewBackupService(db, store, logger),
		Notification: NewNotificationService(db),
		Token:        NewTokenService(db),
	}
}
