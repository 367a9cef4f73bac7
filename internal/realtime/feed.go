package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
)

// Feed delivers change events for one collection to one subscriber. Closing
// the feed is the subscriber's release obligation: afterwards no further
// events are delivered and no goroutine remains.
type Feed interface {
	Events() <-chan Event
	Close() error
}

type redisSubscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

type redisFeed struct {
	pubsub *redis.PubSub
	out    chan Event
	logger *zap.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewRedisFeed subscribes to a collection channel. The returned feed must be
// closed when the view goes away.
func NewRedisFeed(ctx context.Context, client redisSubscriber, channel string, buffer int, logger *zap.Logger) (Feed, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = 64
	}

	pubsub := client.Subscribe(ctx, channel)
	// Force the subscription handshake so failures surface here, not on the
	// first missed event.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, appErrors.Wrap(err, appErrors.ErrSubscriptionFailed.Code, appErrors.ErrSubscriptionFailed.Status,
			"failed to subscribe to "+channel)
	}

	f := &redisFeed{
		pubsub: pubsub,
		out:    make(chan Event, buffer),
		logger: logger,
		done:   make(chan struct{}),
	}
	go f.pump(channel)
	return f, nil
}

func (f *redisFeed) pump(channel string) {
	defer close(f.out)
	for msg := range f.pubsub.Channel() {
		var event Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			f.logger.Warn("discarding malformed change event",
				zap.String("channel", channel), zap.Error(err))
			continue
		}
		select {
		case f.out <- event:
		case <-f.done:
			return
		}
	}
}

func (f *redisFeed) Events() <-chan Event {
	return f.out
}

func (f *redisFeed) Close() error {
	var err error
	f.closeOnce.Do(func() {
		close(f.done)
		err = f.pubsub.Close()
	})
	return err
}
