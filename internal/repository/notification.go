package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vitrine-craques/video-moderation-go/internal/db"
	"github.com/vitrine-craques/video-moderation-go/internal/models"
)

const insertNotificationSQL = `
	INSERT INTO notifications (id, user_id, type, title, message, metadata, dedupe_key, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

// Inserts unless a notification with the same (user_id, type, dedupe_key) exists.
const insertNotificationSkipDuplicateSQL = `
	INSERT INTO notifications (id, user_id, type, title, message, metadata, dedupe_key, created_at)
	SELECT $1, $2, $3, $4, $5, $6, $7, $8
	WHERE NOT EXISTS (
		SELECT 1 FROM notifications
		WHERE user_id = $2 AND type = $3 AND dedupe_key = $7
	)
`

// CreateNotification inserts a single notification.
func (r *Repository) CreateNotification(ctx context.Context, n *models.Notification) error {
	args, err := notificationArgs(n)
	if err != nil {
		return err
	}

	_, err = r.conn(ctx).Exec(ctx, insertNotificationSQL, args...)
	return db.WrapError(err, "create notification")
}

// CreateNotificationsSkipDuplicates inserts notifications in one batch, skipping any
// whose dedupe key is already recorded for the same user and type. It returns the
// notifications that were actually written.
func (r *Repository) CreateNotificationsSkipDuplicates(ctx context.Context, notifications []*models.Notification) ([]*models.Notification, error) {
	if len(notifications) == 0 {
		return nil, nil
	}

	batch := &pgx.Batch{}
	for _, n := range notifications {
		args, err := notificationArgs(n)
		if err != nil {
			return nil, err
		}
		batch.Queue(insertNotificationSkipDuplicateSQL, args...)
	}

	results := r.conn(ctx).SendBatch(ctx, batch)
	defer results.Close()

	created := make([]*models.Notification, 0, len(notifications))
	for _, n := range notifications {
		tag, err := results.Exec()
		if err != nil {
			return nil, db.WrapError(err, "create notifications")
		}
		if tag.RowsAffected() == 1 {
			created = append(created, n)
		}
	}

	if err := results.Close(); err != nil {
		return nil, db.WrapError(err, "close notification batch")
	}

	return created, nil
}

// ListNotifications returns a user's notifications, newest first, with the total count.
func (r *Repository) ListNotifications(ctx context.Context, userID string, limit, offset int) ([]*models.Notification, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, db.WrapError(err, "count notifications")
	}

	query := `
		SELECT id, user_id, type, title, message, metadata, dedupe_key, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.conn(ctx).Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, db.WrapError(err, "list notifications")
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0, limit)
	for rows.Next() {
		var (
			n        models.Notification
			typ      string
			metadata []byte
		)
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message, &metadata, &n.DedupeKey, &n.CreatedAt); err != nil {
			return nil, 0, db.WrapError(err, "scan notification")
		}
		n.Type = models.NotificationType(typ)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
				return nil, 0, fmt.Errorf("decode notification metadata: %w", err)
			}
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.WrapError(err, "iterate notifications")
	}

	return notifications, total, nil
}

func notificationArgs(n *models.Notification) ([]any, error) {
	var metadata []byte
	if n.Metadata != nil {
		var err error
		metadata, err = json.Marshal(n.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode notification metadata: %w", err)
		}
	}

	return []any{
		n.ID,
		n.UserID,
		string(n.Type),
		n.Title,
		n.Message,
		metadata,
		n.DedupeKey,
		n.CreatedAt,
	}, nil
}
