package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/dbvault/internal/model"
)

// ScheduleResult is the per-schedule outcome of one sweep.
type ScheduleResult struct {
	ScheduleID string              `json:"schedule_id"`
	Name       string              `json:"name"`
	Success    bool                `json:"success"`
	Backup     *model.BackupRecord `json:"backup_data,omitempty"`
	Error      string              `json:"error,omitempty"`
}

// SweepResult aggregates one sweep.
type SweepResult struct {
	Processed int              `json:"processed"`
	Results   []ScheduleResult `json:"results"`
}

// dueSchedule is one active schedule whose next_run_at has passed, joined
// with its connection.
type dueSchedule struct {
	schedule   model.Schedule
	connection model.Connection
}

// Scheduler drives due schedules through the executor and retention
// enforcer. It holds no state of its own; each Sweep is an independent pass.
type Scheduler struct {
	db          DB
	executor    *Executor
	enforcer    *Enforcer
	logger      zerolog.Logger
	concurrency int
	now         func() time.Time
}

func NewScheduler(db DB, executor *Executor, enforcer *Enforcer, logger zerolog.Logger, concurrency int) *Scheduler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Scheduler{
		db:          db,
		executor:    executor,
		enforcer:    enforcer,
		logger:      logger.With().Str("component", "scheduler").Logger(),
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Sweep finds all due active schedules and executes each independently. A
// failure in one schedule never prevents the others from running; the
// failing schedule keeps its next_run_at, so it is retried on the next
// sweep until it succeeds or is deactivated.
func (s *Scheduler) Sweep(ctx context.Context) (*SweepResult, error) {
	start := time.Now()
	defer func() { sweepDuration.Observe(time.Since(start).Seconds()) }()

	now := s.now().UTC()
	due, err := s.dueSchedules(ctx, now)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int("due", len(due)).Msg("sweep started")

	results := make([]ScheduleResult, len(due))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, item := range due {
		g.Go(func() error {
			results[i] = s.process(gctx, item, now)
			// Per-schedule errors are isolated; never fail the group.
			return nil
		})
	}
	_ = g.Wait()

	return &SweepResult{Processed: len(results), Results: results}, nil
}

func (s *Scheduler) process(ctx context.Context, item dueSchedule, now time.Time) ScheduleResult {
	sched := item.schedule
	result := ScheduleResult{ScheduleID: sched.ID, Name: sched.Name}

	record, err := s.executor.Run(ctx, Request{
		Connection:         &item.connection,
		ScheduleID:         &sched.ID,
		BackupType:         sched.BackupType,
		BackupFormat:       sched.BackupFormat,
		CompressionEnabled: sched.CompressionEnabled,
		EncryptionEnabled:  sched.EncryptionEnabled,
		SelectedSchemas:    sched.SelectedSchemas,
		SelectedTables:     sched.SelectedTables,
	})
	if err != nil {
		s.logger.Error().Err(err).
			Str("schedule_id", sched.ID).
			Str("schedule", sched.Name).
			Msg("scheduled backup failed")
		result.Error = err.Error()
		return result
	}

	nextRun := NextRun(sched.Frequency, now)
	if _, err := s.db.Exec(ctx,
		`UPDATE backup_schedules SET last_run_at = $1, next_run_at = $2, updated_at = now() WHERE id = $3`,
		now, nextRun, sched.ID,
	); err != nil {
		s.logger.Error().Err(err).Str("schedule_id", sched.ID).Msg("failed to advance schedule")
		result.Error = fmt.Sprintf("advance schedule: %v", err)
		return result
	}

	// Retention failures are reported but never fail the schedule's run.
	if _, err := s.enforcer.Enforce(ctx, sched.ID, sched.MaxBackups, sched.RetentionDays); err != nil {
		s.logger.Warn().Err(err).Str("schedule_id", sched.ID).Msg("retention enforcement failed")
	}

	result.Success = true
	result.Backup = record
	return result
}

func (s *Scheduler) dueSchedules(ctx context.Context, now time.Time) ([]dueSchedule, error) {
	rows, err := s.db.Query(ctx,
		`SELECT s.id, s.user_id, s.connection_id, s.name, s.frequency, s.backup_type, s.backup_format,
		        s.compression_enabled, s.encryption_enabled, s.selected_schemas, s.selected_tables,
		        s.retention_days, s.max_backups,
		        c.id, c.user_id, c.name, c.host, c.port, c.database_name, c.username,
		        c.password_encrypted, c.ssl_mode
		 FROM backup_schedules s
		 JOIN database_connections c ON c.id = s.connection_id
		 WHERE s.is_active = TRUE AND s.next_run_at <= $1
		 ORDER BY s.next_run_at`,
		now)
	if err != nil {
		return nil, fmt.Errorf("query due schedules: %w", err)
	}
	defer rows.Close()

	var due []dueSchedule
	for rows.Next() {
		var d dueSchedule
		if err := rows.Scan(
			&d.schedule.ID, &d.schedule.UserID, &d.schedule.ConnectionID, &d.schedule.Name,
			&d.schedule.Frequency, &d.schedule.BackupType, &d.schedule.BackupFormat,
			&d.schedule.CompressionEnabled, &d.schedule.EncryptionEnabled,
			&d.schedule.SelectedSchemas, &d.schedule.SelectedTables,
			&d.schedule.RetentionDays, &d.schedule.MaxBackups,
			&d.connection.ID, &d.connection.UserID, &d.connection.Name, &d.connection.Host,
			&d.connection.Port, &d.connection.DatabaseName, &d.connection.Username,
			&d.connection.PasswordEncrypted, &d.connection.SSLMode,
		); err != nil {
			return nil, fmt.Errorf("scan due schedule: %w", err)
		}
		due = append(due, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due schedules: %w", err)
	}

	return due, nil
}
