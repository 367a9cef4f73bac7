package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-osa/care-desk-api/pkg/config"
)

type publisherStub struct {
	mu       sync.Mutex
	channels []string
	payloads []string
}

func (p *publisherStub) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
	if raw, ok := message.([]byte); ok {
		p.payloads = append(p.payloads, string(raw))
	}
	return redis.NewIntResult(1, nil)
}

func (p *publisherStub) published() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.channels)
}

func TestBusPublishesToCollectionChannel(t *testing.T) {
	stub := &publisherStub{}
	bus := NewBus(stub, config.RealtimeConfig{ChannelPrefix: "events"}, nil)
	bus.Start(context.Background())
	defer bus.Stop()

	err := bus.Publish(Event{
		Kind:       KindUpdated,
		Collection: "counseling_cases",
		Record:     rawCase("c1", "CAS", "SCHEDULED"),
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return stub.published() == 1 }, time.Second, 5*time.Millisecond)

	stub.mu.Lock()
	defer stub.mu.Unlock()
	assert.Equal(t, "events:counseling_cases", stub.channels[0])

	var event Event
	require.NoError(t, json.Unmarshal([]byte(stub.payloads[0]), &event))
	assert.Equal(t, KindUpdated, event.Kind)
	assert.NotEmpty(t, event.ID, "bus assigns an event id when missing")
	assert.Equal(t, "c1", event.RecordID())
}

func TestBusChannelNaming(t *testing.T) {
	bus := NewBus(&publisherStub{}, config.RealtimeConfig{}, nil)
	assert.Equal(t, "events:support_cases", bus.Channel("support_cases"))
}
