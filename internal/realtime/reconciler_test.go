package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedStub struct {
	events chan Event
	closed bool
}

func newFeedStub() *feedStub {
	return &feedStub{events: make(chan Event, 16)}
}

func (f *feedStub) Events() <-chan Event {
	return f.events
}

func (f *feedStub) Close() error {
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

func rawCase(id, department, status string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"id":%q,"department":%q,"status":%q}`, id, department, status))
}

func newTestReconciler(t *testing.T, feed Feed, baseline []json.RawMessage, filter Filter) *Reconciler {
	t.Helper()
	r := NewReconciler(ReconcilerConfig{
		Collection: "counseling_cases",
		Feed:       feed,
		Baseline: func(context.Context) ([]json.RawMessage, error) {
			return baseline, nil
		},
		Filter: filter,
	})
	require.NoError(t, r.Start(context.Background()))
	return r
}

func TestReconcilerBaselineSeedsCache(t *testing.T) {
	feed := newFeedStub()
	r := newTestReconciler(t, feed, []json.RawMessage{
		rawCase("c2", "CAS", "SUBMITTED"),
		rawCase("c1", "CAS", "SCHEDULED"),
	}, nil)
	defer r.Close()

	assert.True(t, r.Ready())
	assert.Equal(t, 2, r.Len())
}

func TestReconcilerInsertPrepends(t *testing.T) {
	feed := newFeedStub()
	r := newTestReconciler(t, feed, []json.RawMessage{rawCase("c1", "CAS", "SUBMITTED")}, nil)
	defer r.Close()

	r.Apply(Event{Kind: KindInserted, Collection: "counseling_cases", Record: rawCase("c2", "CAS", "SUBMITTED")})

	snapshot := r.Snapshot()
	require.Len(t, snapshot, 2)
	assert.JSONEq(t, string(rawCase("c2", "CAS", "SUBMITTED")), string(snapshot[0]))
}

func TestReconcilerUpdateReplacesInPlace(t *testing.T) {
	feed := newFeedStub()
	r := newTestReconciler(t, feed, []json.RawMessage{
		rawCase("c2", "CAS", "SUBMITTED"),
		rawCase("c1", "CAS", "SUBMITTED"),
	}, nil)
	defer r.Close()

	r.Apply(Event{Kind: KindUpdated, Collection: "counseling_cases", Record: rawCase("c1", "CAS", "SCHEDULED")})

	snapshot := r.Snapshot()
	require.Len(t, snapshot, 2)
	// Position preserved: c1 stays second.
	assert.JSONEq(t, string(rawCase("c1", "CAS", "SCHEDULED")), string(snapshot[1]))
}

func TestReconcilerDeleteRemoves(t *testing.T) {
	feed := newFeedStub()
	r := newTestReconciler(t, feed, []json.RawMessage{rawCase("c1", "CAS", "SUBMITTED")}, nil)
	defer r.Close()

	r.Apply(Event{Kind: KindDeleted, Collection: "counseling_cases", Record: rawCase("c1", "CAS", "SUBMITTED")})
	assert.Zero(t, r.Len())
}

func TestReconcilerIdempotentReplay(t *testing.T) {
	feed := newFeedStub()
	r := newTestReconciler(t, feed, nil, nil)
	defer r.Close()

	event := Event{ID: "ev-1", Kind: KindInserted, Collection: "counseling_cases", Record: rawCase("c1", "CAS", "SUBMITTED")}
	r.Apply(event)
	once := r.Snapshot()
	r.Apply(event)
	twice := r.Snapshot()

	assert.Equal(t, once, twice)
	assert.Equal(t, 1, r.Len())
}

func TestReconcilerFilterEvictsOnUpdate(t *testing.T) {
	feed := newFeedStub()
	onlySubmitted := func(raw json.RawMessage) bool {
		var rec struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return false
		}
		return rec.Status == "SUBMITTED"
	}
	r := newTestReconciler(t, feed, []json.RawMessage{rawCase("c1", "CAS", "SUBMITTED")}, onlySubmitted)
	defer r.Close()

	r.Apply(Event{Kind: KindUpdated, Collection: "counseling_cases", Record: rawCase("c1", "CAS", "SCHEDULED")})
	assert.Zero(t, r.Len(), "record leaving the filter must be evicted")
}

func TestReconcilerIgnoresOtherCollections(t *testing.T) {
	feed := newFeedStub()
	r := newTestReconciler(t, feed, nil, nil)
	defer r.Close()

	r.Apply(Event{Kind: KindInserted, Collection: "support_cases", Record: rawCase("p1", "CAS", "FORWARDED")})
	assert.Zero(t, r.Len())
}

func TestReconcilerConsumesFeedAndCloses(t *testing.T) {
	feed := newFeedStub()
	r := newTestReconciler(t, feed, nil, nil)

	feed.events <- Event{Kind: KindInserted, Collection: "counseling_cases", Record: rawCase("c9", "CAS", "SUBMITTED")}

	require.Eventually(t, func() bool { return r.Len() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, r.Close())
	assert.True(t, feed.closed)
}

func TestQueueAlertFlagsOnGrowth(t *testing.T) {
	alert := NewQueueAlert(3)

	assert.False(t, alert.Observe(3))
	assert.True(t, alert.Observe(5))
	assert.True(t, alert.Flagged())

	alert.Acknowledge(5)
	assert.False(t, alert.Flagged())
	assert.Equal(t, 5, alert.LastSeen())
	assert.False(t, alert.Observe(4))
}
