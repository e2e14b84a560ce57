package domain

import "time"

// ActivityLog represents a recorded security event.
type ActivityLog struct {
	ID        string
	UserID    string
	Action    string
	Details   string
	IP        string
	CreatedAt time.Time
}
