package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campus-osa/care-desk-api/pkg/config"
	"github.com/campus-osa/care-desk-api/pkg/jobs"
)

// redisPublisher is the slice of *redis.Client the bus needs.
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Bus publishes change events after case writes commit. Publishing is
// asynchronous with bounded retries: change events are an eventual-delivery
// signal, never part of the write's unit of work.
type Bus struct {
	client redisPublisher
	prefix string
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewBus constructs the bus on top of the shared job queue.
func NewBus(client redisPublisher, cfg config.RealtimeConfig, logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := cfg.ChannelPrefix
	if prefix == "" {
		prefix = "events"
	}

	b := &Bus{client: client, prefix: prefix, logger: logger}
	b.queue = jobs.NewQueue("realtime-publish", b.publish, jobs.QueueConfig{
		Workers:    cfg.PublishWorkers,
		BufferSize: cfg.EventBuffer,
		MaxRetries: cfg.PublishRetries,
		RetryDelay: cfg.PublishRetryWait,
		Logger:     logger,
	})
	return b
}

// Start begins background publishing.
func (b *Bus) Start(ctx context.Context) {
	b.queue.Start(ctx)
}

// Stop drains the publish workers.
func (b *Bus) Stop() {
	b.queue.Stop()
}

// Channel returns the pub/sub channel name for a collection.
func (b *Bus) Channel(collection string) string {
	return fmt.Sprintf("%s:%s", b.prefix, collection)
}

// Publish enqueues a change event for delivery.
func (b *Bus) Publish(event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	return b.queue.Enqueue(jobs.Job{
		ID:      event.ID,
		Type:    "change-event",
		Payload: event,
	})
}

func (b *Bus) publish(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(Event)
	if !ok {
		b.logger.Warn("dropping malformed change event job", zap.String("job_id", job.ID))
		return nil
	}
	raw, err := json.Marshal(event)
	if err != nil {
		b.logger.Warn("dropping unmarshalable change event", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}
	if err := b.client.Publish(ctx, b.Channel(event.Collection), raw).Err(); err != nil {
		return fmt.Errorf("publish change event %s: %w", event.ID, err)
	}
	return nil
}
