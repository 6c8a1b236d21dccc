package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/salaedu/sala-api/internal/models"
)

// NotificationRepository manages persistence for user notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs a NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateManyTx fans one message out to all user IDs in a single insert,
// inside an open transaction. Used by write operations that notify
// affected users atomically with the write itself.
func (r *NotificationRepository) CreateManyTx(ctx context.Context, tx *sqlx.Tx, userIDs []string, typ models.NotificationType, title, message string) error {
	now := time.Now().UTC()
	rows := make([][]interface{}, 0, len(userIDs))
	for _, userID := range userIDs {
		rows = append(rows, []interface{}{uuid.NewString(), userID, typ, title, message, false, now})
	}
	if _, err := BulkInsert(ctx, tx, "notifications",
		[]string{"id", "user_id", "type", "title", "message", "read", "created_at"},
		rows, nil); err != nil {
		return err
	}
	return nil
}

// CreateMany fans one message out to all user IDs outside a transaction.
func (r *NotificationRepository) CreateMany(ctx context.Context, userIDs []string, typ models.NotificationType, title, message string) error {
	now := time.Now().UTC()
	rows := make([][]interface{}, 0, len(userIDs))
	for _, userID := range userIDs {
		rows = append(rows, []interface{}{uuid.NewString(), userID, typ, title, message, false, now})
	}
	if _, err := BulkInsert(ctx, r.db, "notifications",
		[]string{"id", "user_id", "type", "title", "message", "read", "created_at"},
		rows, nil); err != nil {
		return err
	}
	return nil
}

// ListRecent returns a user's newest notifications.
func (r *NotificationRepository) ListRecent(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	const query = `SELECT id, user_id, type, title, message, read, created_at
        FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	notifications := []models.Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// CountUnread returns how many notifications a user has not read.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = false", userID); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flags one notification as read, only for its owner.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("mark notification %s read: %w", id, errNoRowsAffected)
	}
	return nil
}

// MarkAllRead flags all of a user's notifications as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE notifications SET read = true WHERE user_id = $1 AND read = false", userID); err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}
