package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-osa/care-desk-api/internal/realtime"
)

type stubFeed struct {
	events chan realtime.Event
}

func newStubFeed() *stubFeed {
	return &stubFeed{events: make(chan realtime.Event, 8)}
}

func (f *stubFeed) Events() <-chan realtime.Event { return f.events }

func (f *stubFeed) Close() error {
	close(f.events)
	return nil
}

func TestLiveViewServiceSnapshot(t *testing.T) {
	feed := newStubFeed()
	view := realtime.NewReconciler(realtime.ReconcilerConfig{
		Collection: "counseling_cases",
		Feed:       feed,
		Baseline: func(ctx context.Context) ([]json.RawMessage, error) {
			return []json.RawMessage{
				json.RawMessage(`{"id":"case-2","status":"SCHEDULED"}`),
				json.RawMessage(`{"id":"case-1","status":"SUBMITTED"}`),
			}, nil
		},
	})

	svc := NewLiveViewService(zap.NewNop())
	svc.Register("counseling_cases", view)
	require.False(t, svc.Ready())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, svc.Start(ctx))
	defer svc.Close()

	require.True(t, svc.Ready())
	records, err := svc.Snapshot("counseling_cases")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestLiveViewServiceUnknownCollection(t *testing.T) {
	svc := NewLiveViewService(zap.NewNop())
	_, err := svc.Snapshot("unknown")
	require.Error(t, err)
}
