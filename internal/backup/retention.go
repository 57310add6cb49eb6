package backup

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Enforcer prunes backup records and their artifacts per a schedule's
// retention policy.
type Enforcer struct {
	db     DB
	store  ArtifactStore
	logger zerolog.Logger
	now    func() time.Time
}

func NewEnforcer(db DB, store ArtifactStore, logger zerolog.Logger) *Enforcer {
	return &Enforcer{
		db:     db,
		store:  store,
		logger: logger.With().Str("component", "retention-enforcer").Logger(),
		now:    time.Now,
	}
}

type prunable struct {
	id       string
	filePath *string
}

// Enforce applies both retention policies for one schedule and returns how
// many records were removed. The two policies are independent: the count cap
// keeps the newest maxBackups completed records, and the age cap removes any
// record older than retentionDays. A zero cap disables that policy.
//
// Per-item deletion is best-effort: a failed artifact delete never blocks
// the record delete, and a failed delete never aborts the pass.
func (e *Enforcer) Enforce(ctx context.Context, scheduleID string, maxBackups, retentionDays int) (int, error) {
	seen := make(map[string]bool)
	var victims []prunable

	if maxBackups > 0 {
		over, err := e.queryPrunable(ctx,
			`SELECT id, file_path FROM backup_history
			 WHERE schedule_id = $1 AND status = 'completed'
			 ORDER BY created_at DESC
			 OFFSET $2`,
			scheduleID, maxBackups)
		if err != nil {
			return 0, fmt.Errorf("query count-capped backups: %w", err)
		}
		for _, v := range over {
			if !seen[v.id] {
				seen[v.id] = true
				victims = append(victims, v)
			}
		}
	}

	if retentionDays > 0 {
		cutoff := e.now().UTC().AddDate(0, 0, -retentionDays)
		expired, err := e.queryPrunable(ctx,
			`SELECT id, file_path FROM backup_history
			 WHERE schedule_id = $1 AND created_at < $2`,
			scheduleID, cutoff)
		if err != nil {
			return 0, fmt.Errorf("query expired backups: %w", err)
		}
		for _, v := range expired {
			if !seen[v.id] {
				seen[v.id] = true
				victims = append(victims, v)
			}
		}
	}

	removed := 0
	for _, v := range victims {
		if v.filePath != nil && *v.filePath != "" {
			if err := e.store.Delete(ctx, *v.filePath); err != nil {
				e.logger.Warn().Err(err).
					Str("backup_id", v.id).
					Str("file_path", *v.filePath).
					Msg("failed to delete artifact, deleting record anyway")
			}
		}
		if _, err := e.db.Exec(ctx, `DELETE FROM backup_history WHERE id = $1`, v.id); err != nil {
			e.logger.Warn().Err(err).Str("backup_id", v.id).Msg("failed to delete backup record")
			continue
		}
		removed++
		retentionDeletions.Inc()
	}

	if removed > 0 {
		e.logger.Info().Str("schedule_id", scheduleID).Int("removed", removed).Msg("retention enforced")
	}
	return removed, nil
}

func (e *Enforcer) queryPrunable(ctx context.Context, sql string, args ...any) ([]prunable, error) {
	rows, err := e.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []prunable
	for rows.Next() {
		var v prunable
		if err := rows.Scan(&v.id, &v.filePath); err != nil {
			return nil, fmt.Errorf("scan prunable backup: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prunable backups: %w", err)
	}
	return out, nil
}
