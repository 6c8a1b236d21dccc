package models

import "time"

// NotificationType classifies what triggered a notification.
type NotificationType string

const (
	NotificationClassAssigned   NotificationType = "class_assigned"
	NotificationClassUpdated    NotificationType = "class_updated"
	NotificationClassCancelled  NotificationType = "class_cancelled"
	NotificationScorePublished  NotificationType = "score_published"
	NotificationAttendanceTaken NotificationType = "attendance_taken"
	NotificationEventCreated    NotificationType = "event_created"
	NotificationGeneral         NotificationType = "general"
)

// Notification is a per-user message created by write operations such as
// class assignment or score publication.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Type      NotificationType `db:"type" json:"type"`
	Title     string           `db:"title" json:"title"`
	Message   string           `db:"message" json:"message"`
	Read      bool             `db:"read" json:"read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// UnreadCount is the cached unread notification counter for a user.
type UnreadCount struct {
	Count int `db:"count" json:"count"`
}
