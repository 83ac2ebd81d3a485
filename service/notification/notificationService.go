package notification

import (
	"context"

	"github.com/euroclydon611/lmsf-fyp-backend/model"
	notificationrepo "github.com/euroclydon611/lmsf-fyp-backend/repository/notification"
)

type Service interface {
	// ByUser lists a user's notifications, newest first.
	ByUser(ctx context.Context, userID int64) ([]model.Notification, error)

	// MarkRead acknowledges a notification. Notifications are never deleted.
	MarkRead(ctx context.Context, id int64) (*model.Notification, error)
}

type service struct{ r notificationrepo.Repo }

func New(r notificationrepo.Repo) Service { return &service{r: r} }

func (s *service) ByUser(ctx context.Context, userID int64) ([]model.Notification, error) {
	return s.r.ByUser(ctx, userID)
}

func (s *service) MarkRead(ctx context.Context, id int64) (*model.Notification, error) {
	return s.r.MarkRead(ctx, id)
}
