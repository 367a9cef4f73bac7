package dto

import "time"

// TransitionRequest is the single payload shape for every case transition.
// Which fields matter depends on the requested action; the workflow guard for
// the resolved edge decides whether the payload is sufficient.
type TransitionRequest struct {
	Action       string     `json:"action" validate:"required"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`
	Reason       string     `json:"reason,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	ActionsTaken string     `json:"actions_taken,omitempty"`
	Comments     string     `json:"comments,omitempty"`
	SignatureURI string     `json:"signature_uri,omitempty"`
}

// AvailableAction describes one transition the caller may trigger right now.
type AvailableAction struct {
	Action string `json:"action"`
	To     string `json:"to"`
}

// TransitionResult reports the outcome of an executed transition.
type TransitionResult struct {
	CaseID     string `json:"case_id"`
	Collection string `json:"collection"`
	From       string `json:"from"`
	To         string `json:"to"`
}
