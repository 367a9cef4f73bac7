package dto

import "time"

// QueueSnapshot summarises one department's live queue.
type QueueSnapshot struct {
	Department string `json:"department"`
	Counseling int    `json:"counseling"`
	Support    int    `json:"support"`
	Admissions int    `json:"admissions"`
	Flagged    bool   `json:"flagged"`
}

// DashboardSummary is the staff landing view payload.
type DashboardSummary struct {
	Queues      []QueueSnapshot `json:"queues"`
	TotalOpen   int             `json:"total_open"`
	GeneratedAt time.Time       `json:"generated_at"`
}
