// model/notification.go
package model

import "time"

type NotificationStatus string

const (
	NotificationPending NotificationStatus = "Pending"
	NotificationRead    NotificationStatus = "Read"
)

type Notification struct {
	ID        int64              `json:"id"`
	UserID    int64              `json:"user_id"`
	Message   string             `json:"message"`
	Status    NotificationStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
