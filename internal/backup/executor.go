package backup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/dbvault/internal/crypto"
	"github.com/edvin/dbvault/internal/model"
	"github.com/edvin/dbvault/internal/pgdump"
	"github.com/edvin/dbvault/internal/platform"
)

// Request describes one backup execution against a stored connection.
type Request struct {
	Connection         *model.Connection
	ScheduleID         *string
	BackupType         string
	BackupFormat       string
	CompressionEnabled bool
	EncryptionEnabled  bool
	SelectedSchemas    []string
	SelectedTables     []string
}

// Executor runs one backup job end-to-end: decrypt credential, connect,
// introspect, dump, checksum, upload, record the outcome, notify.
type Executor struct {
	db     DB
	store  ArtifactStore
	cipher *crypto.Cipher
	locker Locker
	logger zerolog.Logger

	// runTimeout bounds one execution; zero means no deadline.
	runTimeout time.Duration

	// connect dials the target database. Overridable in tests.
	connect func(ctx context.Context, params pgdump.ConnectParams) (pgdump.Conn, error)
	now     func() time.Time
}

func NewExecutor(db DB, store ArtifactStore, cipher *crypto.Cipher, locker Locker, logger zerolog.Logger, runTimeout time.Duration) *Executor {
	return &Executor{
		db:         db,
		store:      store,
		cipher:     cipher,
		locker:     locker,
		logger:     logger.With().Str("component", "backup-executor").Logger(),
		runTimeout: runTimeout,
		connect:    pgdump.Connect,
		now:        time.Now,
	}
}

// Run executes one backup. The BackupRecord is persisted in running state
// before any external I/O, and every failure after that point is durably
// recorded (failed status + notification) before the error is returned. The
// returned record reflects the terminal state even when err is non-nil.
func (e *Executor) Run(ctx context.Context, req Request) (*model.BackupRecord, error) {
	conn := req.Connection

	// Single-flight per schedule: a manual run racing a scheduled sweep
	// must not produce two concurrent running records.
	if req.ScheduleID != nil && e.locker != nil {
		unlock, ok, err := e.locker.TryLock(ctx, "schedule:"+*req.ScheduleID)
		if err != nil {
			return nil, fmt.Errorf("acquire schedule lock: %w", err)
		}
		if !ok {
			return nil, ErrAlreadyRunning
		}
		defer unlock()
	}

	now := e.now().UTC()
	record := &model.BackupRecord{
		ID:                 platform.NewID(),
		UserID:             conn.UserID,
		ConnectionID:       &conn.ID,
		ScheduleID:         req.ScheduleID,
		Status:             model.StatusRunning,
		BackupType:         req.BackupType,
		BackupFormat:       req.BackupFormat,
		CompressionEnabled: req.CompressionEnabled,
		EncryptionEnabled:  req.EncryptionEnabled,
		StartedAt:          &now,
		CreatedAt:          now,
	}

	_, err := e.db.Exec(ctx,
		`INSERT INTO backup_history (id, user_id, connection_id, schedule_id, status, backup_type, backup_format, compression_enabled, encryption_enabled, started_at, retry_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		record.ID, record.UserID, record.ConnectionID, record.ScheduleID, record.Status,
		record.BackupType, record.BackupFormat, record.CompressionEnabled, record.EncryptionEnabled,
		record.StartedAt, record.RetryCount, record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert backup record: %w", err)
	}

	runCtx := ctx
	if e.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.runTimeout)
		defer cancel()
	}

	if err := e.execute(runCtx, req, record); err != nil {
		e.markFailed(record, conn.Name, err)
		runsTotal.WithLabelValues(model.StatusFailed).Inc()
		return record, err
	}

	runsTotal.WithLabelValues(model.StatusCompleted).Inc()
	return record, nil
}

// execute performs the fallible middle of a run. The decrypted password only
// lives on the stack here; it is never logged or persisted.
func (e *Executor) execute(ctx context.Context, req Request, record *model.BackupRecord) error {
	conn := req.Connection

	password, err := e.cipher.Decrypt(conn.PasswordEncrypted)
	if err != nil {
		return fmt.Errorf("decrypt credential for connection %s: %w", conn.ID, err)
	}

	target, err := e.connect(ctx, pgdump.ConnectParams{
		Host:     conn.Host,
		Port:     conn.Port,
		Database: conn.DatabaseName,
		Username: conn.Username,
		Password: password,
		SSLMode:  conn.SSLMode,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer target.Close(ctx)

	tables, err := pgdump.ListTables(ctx, target, pgdump.Scope{
		Type:    req.BackupType,
		Schemas: req.SelectedSchemas,
		Tables:  req.SelectedTables,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	generatedAt := e.now().UTC()
	content, tableCount, err := pgdump.Generate(ctx, target, tables, pgdump.Options{
		Database:    conn.DatabaseName,
		Type:        req.BackupType,
		Format:      req.BackupFormat,
		GeneratedAt: generatedAt,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	fileName := artifactName(conn.DatabaseName, generatedAt, req.BackupFormat)
	contentType := "application/octet-stream"
	if req.BackupFormat == model.BackupFormatSQL {
		contentType = "text/plain"
	}

	if req.CompressionEnabled {
		content, err = gzipCompress(content)
		if err != nil {
			return fmt.Errorf("compress artifact: %w", err)
		}
		fileName += ".gz"
		contentType = "application/gzip"
	}

	checksum := crypto.Checksum(content)
	size := int64(len(content))
	path := fmt.Sprintf("%s/%s/%s", conn.UserID, conn.ID, fileName)

	if err := e.store.Put(ctx, path, content, contentType); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	uploadedBytes.Add(float64(size))

	completedAt := e.now().UTC()
	_, err = e.db.Exec(ctx,
		`UPDATE backup_history
		 SET status = $1, completed_at = $2, file_name = $3, file_path = $4, file_size_bytes = $5, checksum = $6, tables_backed_up = $7
		 WHERE id = $8`,
		model.StatusCompleted, completedAt, fileName, path, size, checksum, tableCount, record.ID,
	)
	if err != nil {
		return fmt.Errorf("complete backup record: %w", err)
	}

	record.Status = model.StatusCompleted
	record.CompletedAt = &completedAt
	record.FileName = &fileName
	record.FilePath = &path
	record.FileSizeBytes = &size
	record.Checksum = &checksum
	record.TablesBackedUp = &tableCount

	if _, err := e.db.Exec(ctx,
		`UPDATE database_connections SET last_connected_at = $1, updated_at = now() WHERE id = $2`,
		completedAt, conn.ID,
	); err != nil {
		e.logger.Warn().Err(err).Str("connection_id", conn.ID).Msg("failed to update last_connected_at")
	}

	e.notify(record.UserID, record.ID, "Backup Completed",
		fmt.Sprintf("Backup of %s completed successfully. %d tables backed up.", conn.Name, tableCount),
		model.NotificationSuccess)

	e.logger.Info().
		Str("backup_id", record.ID).
		Str("connection_id", conn.ID).
		Str("file_name", fileName).
		Int64("size_bytes", size).
		Int("tables", tableCount).
		Msg("backup completed")

	return nil
}

// markFailed durably records the failure before the triggering error is
// propagated. A fresh context is used so a cancelled or expired run still
// leaves a terminal record behind.
func (e *Executor) markFailed(record *model.BackupRecord, connectionName string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	completedAt := e.now().UTC()
	message := cause.Error()

	_, err := e.db.Exec(ctx,
		`UPDATE backup_history SET status = $1, completed_at = $2, error_message = $3 WHERE id = $4`,
		model.StatusFailed, completedAt, message, record.ID,
	)
	if err != nil {
		e.logger.Error().Err(err).Str("backup_id", record.ID).Msg("failed to persist failed backup record")
	}

	record.Status = model.StatusFailed
	record.CompletedAt = &completedAt
	record.ErrorMessage = &message

	e.notify(record.UserID, record.ID, "Backup Failed",
		fmt.Sprintf("Backup of %s failed: %s", connectionName, message),
		model.NotificationError)

	e.logger.Error().Err(cause).Str("backup_id", record.ID).Msg("backup failed")
}

func (e *Executor) notify(userID, backupID, title, message, kind string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := e.db.Exec(ctx,
		`INSERT INTO notifications (id, user_id, title, message, type, backup_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		platform.NewID(), userID, title, message, kind, backupID, e.now().UTC(),
	)
	if err != nil {
		e.logger.Warn().Err(err).Str("backup_id", backupID).Msg("failed to insert notification")
	}
}

// artifactName derives the deterministic artifact file name from database
// name, timestamp, and format.
func artifactName(database string, ts time.Time, format string) string {
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(ts.Format(time.RFC3339))
	name := fmt.Sprintf("backup_%s_%s", database, stamp)
	if format == model.BackupFormatSQL {
		return name + ".sql"
	}
	return name + ".backup"
}
