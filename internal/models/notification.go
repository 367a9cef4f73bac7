package models

import "time"

// Notification is a message addressed to the subject student describing a
// case status change. Exactly one is created per externally visible
// transition, inside the same unit of work as the status write.
type Notification struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NotificationFilter constrains listing queries.
type NotificationFilter struct {
	StudentID string
	Since     *time.Time
	Limit     int
	Offset    int
}
