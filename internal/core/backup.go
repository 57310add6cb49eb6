package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/edvin/dbvault/internal/model"
)

const backupColumns = `id, user_id, connection_id, schedule_id, status, backup_type, backup_format, file_name, file_path, file_size_bytes, checksum, compression_enabled, encryption_enabled, started_at, completed_at, error_message, tables_backed_up, retry_count, created_at`

// BackupHistoryFilter narrows a history listing.
type BackupHistoryFilter struct {
	ConnectionID string
	ScheduleID   string
	Status       string
}

// BackupService reads and prunes backup history. Execution lives in the
// backup package; this service covers the record side.
type BackupService struct {
	db     DB
	store  ArtifactStore
	logger zerolog.Logger
}

func NewBackupService(db DB, store ArtifactStore, logger zerolog.Logger) *BackupService {
	return &BackupService{db: db, store: store, logger: logger}
}

// GetByID retrieves a backup record scoped to its owner.
func (s *BackupService) GetByID(ctx context.Context, userID, id string) (*model.BackupRecord, error) {
	var b model.BackupRecord
	err := s.db.QueryRow(ctx,
		`SELECT `+backupColumns+` FROM backup_history WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&b.ID, &b.UserID, &b.ConnectionID, &b.ScheduleID, &b.Status, &b.BackupType, &b.BackupFormat,
		&b.FileName, &b.FilePath, &b.FileSizeBytes, &b.Checksum, &b.CompressionEnabled, &b.EncryptionEnabled,
		&b.StartedAt, &b.CompletedAt, &b.ErrorMessage, &b.TablesBackedUp, &b.RetryCount, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get backup %s: %w", id, err)
	}
	return &b, nil
}

// ListByUser retrieves a user's backup history, newest first, with
// cursor-based pagination and optional filters.
func (s *BackupService) ListByUser(ctx context.Context, userID string, limit int, cursor string, filter BackupHistoryFilter) ([]model.BackupRecord, bool, error) {
	query := `SELECT ` + backupColumns + ` FROM backup_history WHERE user_id = $1`
	args := []any{userID}
	argIdx := 2

	if filter.ConnectionID != "" {
		query += fmt.Sprintf(` AND connection_id = $%d`, argIdx)
		args = append(args, filter.ConnectionID)
		argIdx++
	}
	if filter.ScheduleID != "" {
		query += fmt.Sprintf(` AND schedule_id = $%d`, argIdx)
		args = append(args, filter.ScheduleID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, filter.Status)
		argIdx++
	}
	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY created_at DESC`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	var backups []model.BackupRecord
	for rows.Next() {
		var b model.BackupRecord
		if err := rows.Scan(&b.ID, &b.UserID, &b.ConnectionID, &b.ScheduleID, &b.Status, &b.BackupType, &b.BackupFormat,
			&b.FileName, &b.FilePath, &b.FileSizeBytes, &b.Checksum, &b.CompressionEnabled, &b.EncryptionEnabled,
			&b.StartedAt, &b.CompletedAt, &b.ErrorMessage, &b.TablesBackedUp, &b.RetryCount, &b.CreatedAt); err != nil {
			return nil, false, fmt.Errorf("scan backup: %w", err)
		}
		backups = append(backups, b)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate backups: %w", err)
	}

	hasMore := len(backups) > limit
	if hasMore {
		backups = backups[:limit]
	}
	return backups, hasMore, nil
}

// DownloadURL issues a time-limited signed URL for a completed backup's
// artifact. Ownership is checked first; a record another user owns is
// indistinguishable from a missing one.
func (s *BackupService) DownloadURL(ctx context.Context, userID, id string, ttl time.Duration) (string, string, error) {
	b, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return "", "", err
	}
	if b.Status != model.StatusCompleted || b.FilePath == nil || *b.FilePath == "" {
		return "", "", ErrNoArtifact
	}

	url, err := s.store.SignedURL(ctx, *b.FilePath, ttl)
	if err != nil {
		return "", "", fmt.Errorf("sign download url for backup %s: %w", id, err)
	}

	fileName := ""
	if b.FileName != nil {
		fileName = *b.FileName
	}
	return url, fileName, nil
}

// Delete removes a backup record and its stored artifact. The artifact
// delete is best-effort; a missing object must not strand the record.
func (s *BackupService) Delete(ctx context.Context, userID, id string) error {
	b, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}

	if b.FilePath != nil && *b.FilePath != "" {
		if err := s.store.Delete(ctx, *b.FilePath); err != nil {
			s.logger.Warn().Err(err).
				Str("backup_id", id).
				Str("file_path", *b.FilePath).
				Msg("failed to delete artifact, deleting record anyway")
		}
	}

	tag, err := s.db.Exec(ctx,
		`DELETE FROM backup_history WHERE id = $1 AND user_id = $2`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete backup %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Cancel marks a pending or running backup cancelled. The executor does not
// observe the flag mid-run; cancellation takes effect for queued work and
// prevents a stale record from looking alive forever.
func (s *BackupService) Cancel(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE backup_history SET status = $1, completed_at = now()
		 WHERE id = $2 AND user_id = $3 AND status IN ($4, $5)`,
		model.StatusCancelled, id, userID, model.StatusPending, model.StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("cancel backup %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
