// Package realtime keeps locally cached views of shared case collections
// consistent with concurrent edits: writers publish change events through a
// Redis-backed bus, and every open view runs its own Reconciler over a feed
// of those events. Delivery is at-least-once with no ordering guarantee, so
// reconciliation is idempotent.
package realtime

import "encoding/json"

// Kind classifies a change event.
type Kind string

const (
	KindInserted Kind = "INSERTED"
	KindUpdated  Kind = "UPDATED"
	KindDeleted  Kind = "DELETED"
)

// Event describes one change to a record in a collection. Record carries the
// full row as JSON; its "id" field identifies it for reconciliation.
type Event struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	Collection string          `json:"collection"`
	Record     json.RawMessage `json:"record"`
}

type recordIdentity struct {
	ID string `json:"id"`
}

// RecordID extracts the record identity from the event payload.
func (e Event) RecordID() string {
	var ident recordIdentity
	if err := json.Unmarshal(e.Record, &ident); err != nil {
		return ""
	}
	return ident.ID
}
