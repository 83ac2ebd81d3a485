package notificationrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/euroclydon611/lmsf-fyp-backend/model"
)

var ErrNotFound = errors.New("notification not found")

// Repo is append-plus-acknowledge only. Notifications are never deleted.
type Repo interface {
	Insert(ctx context.Context, userID int64, message string) (*model.Notification, error)
	ByUser(ctx context.Context, userID int64) ([]model.Notification, error)
	MarkRead(ctx context.Context, id int64) (*model.Notification, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Insert(ctx context.Context, userID int64, message string) (*model.Notification, error) {
	n := &model.Notification{UserID: userID, Message: message, Status: model.NotificationPending}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (user_id, message, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		userID, message, string(n.Status),
	).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *repo) ByUser(ctx context.Context, userID int64) ([]model.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, message, status, created_at, updated_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		var status string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &status, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		n.Status = model.NotificationStatus(status)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *repo) MarkRead(ctx context.Context, id int64) (*model.Notification, error) {
	n := &model.Notification{ID: id, Status: model.NotificationRead}
	var status string
	err := r.db.QueryRowContext(ctx, `
		UPDATE notifications
		SET status = 'Read',
			updated_at = NOW()
		WHERE id = $1
		RETURNING user_id, message, status, created_at, updated_at`, id,
	).Scan(&n.UserID, &n.Message, &status, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	n.Status = model.NotificationStatus(status)
	return n, nil
}
