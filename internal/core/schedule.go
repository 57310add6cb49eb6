package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/robfig/cron/v3"

	"github.com/edvin/dbvault/internal/backup"
	"github.com/edvin/dbvault/internal/model"
	"github.com/edvin/dbvault/internal/platform"
)

const scheduleColumns = `id, user_id, connection_id, name, frequency, cron_expression, backup_type, backup_format, compression_enabled, encryption_enabled, selected_schemas, selected_tables, retention_days, max_backups, is_active, next_run_at, last_run_at, created_at, updated_at`

var validFrequencies = map[string]bool{
	model.FrequencyManual:  true,
	model.FrequencyHourly:  true,
	model.FrequencyDaily:   true,
	model.FrequencyWeekly:  true,
	model.FrequencyMonthly: true,
	model.FrequencyCustom:  true,
}

// ScheduleService manages backup schedules.
type ScheduleService struct {
	db  DB
	now func() time.Time
}

func NewScheduleService(db DB) *ScheduleService {
	return &ScheduleService{db: db, now: time.Now}
}

// ValidateTiming checks the frequency value and, for custom schedules, the
// cron expression.
func ValidateTiming(frequency string, cronExpression *string) error {
	if !validFrequencies[frequency] {
		return fmt.Errorf("invalid frequency %q", frequency)
	}
	if frequency == model.FrequencyCustom {
		if cronExpression == nil || *cronExpression == "" {
			return fmt.Errorf("custom frequency requires a cron expression")
		}
		if _, err := cron.ParseStandard(*cronExpression); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", *cronExpression, err)
		}
	}
	return nil
}

// Create validates the timing fields, seeds next_run_at, and stores the
// schedule. Manual schedules get no next_run_at and are only run on demand.
func (s *ScheduleService) Create(ctx context.Context, sched *model.Schedule) error {
	if err := ValidateTiming(sched.Frequency, sched.CronExpression); err != nil {
		return err
	}

	sched.ID = platform.NewID()
	now := s.now().UTC()
	sched.CreatedAt = now
	sched.UpdatedAt = now
	sched.IsActive = true
	if sched.Frequency != model.FrequencyManual {
		next := backup.NextRun(sched.Frequency, now)
		sched.NextRunAt = &next
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO backup_schedules (id, user_id, connection_id, name, frequency, cron_expression, backup_type, backup_format, compression_enabled, encryption_enabled, selected_schemas, selected_tables, retention_days, max_backups, is_active, next_run_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		sched.ID, sched.UserID, sched.ConnectionID, sched.Name, sched.Frequency, sched.CronExpression,
		sched.BackupType, sched.BackupFormat, sched.CompressionEnabled, sched.EncryptionEnabled,
		sched.SelectedSchemas, sched.SelectedTables, sched.RetentionDays, sched.MaxBackups,
		sched.IsActive, sched.NextRunAt, sched.CreatedAt, sched.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// GetByID retrieves a schedule scoped to its owner.
func (s *ScheduleService) GetByID(ctx context.Context, userID, id string) (*model.Schedule, error) {
	var sc model.Schedule
	err := s.db.QueryRow(ctx,
		`SELECT `+scheduleColumns+` FROM backup_schedules WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&sc.ID, &sc.UserID, &sc.ConnectionID, &sc.Name, &sc.Frequency, &sc.CronExpression,
		&sc.BackupType, &sc.BackupFormat, &sc.CompressionEnabled, &sc.EncryptionEnabled,
		&sc.SelectedSchemas, &sc.SelectedTables, &sc.RetentionDays, &sc.MaxBackups,
		&sc.IsActive, &sc.NextRunAt, &sc.LastRunAt, &sc.CreatedAt, &sc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule %s: %w", id, err)
	}
	return &sc, nil
}

// ListByUser retrieves a user's schedules with cursor-based pagination.
func (s *ScheduleService) ListByUser(ctx context.Context, userID string, limit int, cursor string) ([]model.Schedule, bool, error) {
	query := `SELECT ` + scheduleColumns + ` FROM backup_schedules WHERE user_id = $1`
	args := []any{userID}
	argIdx := 2

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
		return nil, false, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []model.Schedule
	for rows.Next() {
		var sc model.Schedule
		if err := rows.Scan(&sc.ID, &sc.UserID, &sc.ConnectionID, &sc.Name, &sc.Frequency, &sc.CronExpression,
			&sc.BackupType, &sc.BackupFormat, &sc.CompressionEnabled, &sc.EncryptionEnabled,
			&sc.SelectedSchemas, &sc.SelectedTables, &sc.RetentionDays, &sc.MaxBackups,
			&sc.IsActive, &sc.NextRunAt, &sc.LastRunAt, &sc.CreatedAt, &sc.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate schedules: %w", err)
	}

	hasMore := len(schedules) > limit
	if hasMore {
		schedules = schedules[:limit]
	}
	return schedules, hasMore, nil
}

// Update modifies a schedule's mutable fields. When the frequency changes,
// next_run_at is recomputed from now so the new cadence takes effect
// immediately.
func (s *ScheduleService) Update(ctx context.Context, sched *model.Schedule) error {
	if err := ValidateTiming(sched.Frequency, sched.CronExpression); err != nil {
		return err
	}

	if sched.Frequency == model.FrequencyManual {
		sched.NextRunAt = nil
	} else {
		next := backup.NextRun(sched.Frequency, s.now().UTC())
		sched.NextRunAt = &next
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE backup_schedules
		 SET name = $1, frequency = $2, cron_expression = $3, backup_type = $4, backup_format = $5,
		     compression_enabled = $6, encryption_enabled = $7, selected_schemas = $8, selected_tables = $9,
		     retention_days = $10, max_backups = $11, is_active = $12, next_run_at = $13, updated_at = now()
		 WHERE id = $14 AND user_id = $15`,
		sched.Name, sched.Frequency, sched.CronExpression, sched.BackupType, sched.BackupFormat,
		sched.CompressionEnabled, sched.EncryptionEnabled, sched.SelectedSchemas, sched.SelectedTables,
		sched.RetentionDays, sched.MaxBackups, sched.IsActive, sched.NextRunAt, sched.ID, sched.UserID,
	)
	if err != nil {
		return fmt.Errorf("update schedule %s: %w", sched.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive pauses or resumes a schedule. Resuming a non-manual schedule
// reseeds next_run_at so a long-paused schedule does not fire immediately
// for every missed slot.
func (s *ScheduleService) SetActive(ctx context.Context, userID, id string, active bool) error {
	sched, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}

	var nextRun *time.Time
	if active && sched.Frequency != model.FrequencyManual {
		next := backup.NextRun(sched.Frequency, s.now().UTC())
		nextRun = &next
	} else {
		nextRun = sched.NextRunAt
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE backup_schedules SET is_active = $1, next_run_at = $2, updated_at = now() WHERE id = $3 AND user_id = $4`,
		active, nextRun, id, userID,
	)
	if err != nil {
		return fmt.Errorf("set schedule %s active=%t: %w", id, active, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a schedule. History rows keep their schedule_id via
// ON DELETE SET NULL.
func (s *ScheduleService) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM backup_schedules WHERE id = $1 AND user_id = $2`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete schedule %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
