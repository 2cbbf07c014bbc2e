package model

import "time"

// NotificationKind classifies what a background refresh noticed.
type NotificationKind string

const (
	NotifyAssigned       NotificationKind = "assigned"
	NotifyStatusChanged  NotificationKind = "status"
	NotifyAwaitingReview NotificationKind = "review"
)

// Notification is a local alert about activity seen during a background
// refresh (for example a newly assigned task).
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id"`

	// TaskID links this notification to the originating task.
	TaskID int64 `json:"task_id"`

	Kind NotificationKind `json:"kind"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at"`
}
