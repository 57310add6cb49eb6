package core

import (
	"context"
	"fmt"

	"github.com/edvin/dbvault/internal/model"
)

// NotificationService reads and acknowledges backup notifications. Rows are
// written by the backup executor.
type NotificationService struct {
	db DB
}

func NewNotificationService(db DB) *NotificationService {
	return &NotificationService{db: db}
}

// ListByUser retrieves a user's notifications, newest first.
func (s *NotificationService) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int, cursor string) ([]model.Notification, bool, error) {
	query := `SELECT id, user_id, title, message, type, is_read, backup_id, created_at FROM notifications WHERE user_id = $1`
	args := []any{userID}
	argIdx := 2

	if unreadOnly {
		query += ` AND is_read = FALSE`
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
		return nil, false, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.BackupID, &n.CreatedAt); err != nil {
			return nil, false, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate notifications: %w", err)
	}

	hasMore := len(notifications) > limit
	if hasMore {
		notifications = notifications[:limit]
	}
	return notifications, hasMore, nil
}

// MarkRead acknowledges one notification.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead acknowledges every unread notification for a user and returns
// how many were affected.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
