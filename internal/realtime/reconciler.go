package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
)

// Filter decides whether a record belongs in this view's cache.
type Filter func(record json.RawMessage) bool

// BaselineFunc fetches the authoritative snapshot that seeds the cache
// before incremental events are trusted. Records are expected newest-first.
type BaselineFunc func(ctx context.Context) ([]json.RawMessage, error)

type cachedRecord struct {
	id  string
	raw json.RawMessage
}

// ReconcilerConfig groups constructor dependencies.
type ReconcilerConfig struct {
	Collection string
	Feed       Feed
	Baseline   BaselineFunc
	Filter     Filter
	Logger     *zap.Logger
}

// Reconciler maintains one view's locally cached, recency-ordered copy of a
// collection. Each open view runs its own instance; instances never
// coordinate. Reconciliation is idempotent: replaying an event, or applying
// a record identical to the cached one, leaves the cache unchanged.
type Reconciler struct {
	collection string
	feed       Feed
	baseline   BaselineFunc
	filter     Filter
	logger     *zap.Logger

	mu      sync.RWMutex
	records []cachedRecord
	ready   bool
	started bool

	closeOnce sync.Once
	loopDone  chan struct{}
}

// NewReconciler constructs a reconciler for one view.
func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		collection: cfg.Collection,
		feed:       cfg.Feed,
		baseline:   cfg.Baseline,
		filter:     cfg.Filter,
		logger:     logger,
		loopDone:   make(chan struct{}),
	}
}

// Start seeds the cache from the baseline fetch, then consumes the feed
// until Close or context cancellation. Events observed before the baseline
// is applied are not trusted; the feed buffers them.
func (r *Reconciler) Start(ctx context.Context) error {
	if r.baseline != nil {
		rows, err := r.baseline(ctx)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrSubscriptionFailed.Code, appErrors.ErrSubscriptionFailed.Status,
				"baseline fetch failed for "+r.collection)
		}
		r.seed(rows)
	}

	r.mu.Lock()
	r.ready = true
	r.started = true
	r.mu.Unlock()

	go r.loop(ctx)
	return nil
}

func (r *Reconciler) loop(ctx context.Context) {
	defer close(r.loopDone)
	if r.feed == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-r.feed.Events():
			if !ok {
				return
			}
			r.Apply(event)
		}
	}
}

func (r *Reconciler) seed(rows []json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = r.records[:0]
	for _, raw := range rows {
		if r.filter != nil && !r.filter(raw) {
			continue
		}
		var ident recordIdentity
		if err := json.Unmarshal(raw, &ident); err != nil || ident.ID == "" {
			continue
		}
		r.records = append(r.records, cachedRecord{id: ident.ID, raw: raw})
	}
}

// Apply reconciles one change event into the cache: inserts are prepended,
// updates replace the matching record in place, deletes remove it.
func (r *Reconciler) Apply(event Event) {
	if event.Collection != "" && event.Collection != r.collection {
		return
	}
	id := event.RecordID()
	if id == "" {
		r.logger.Warn("discarding change event without record id",
			zap.String("collection", r.collection), zap.String("event_id", event.ID))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, rec := range r.records {
		if rec.id == id {
			idx = i
			break
		}
	}

	switch event.Kind {
	case KindDeleted:
		if idx >= 0 {
			r.records = append(r.records[:idx], r.records[idx+1:]...)
		}
	case KindInserted, KindUpdated:
		if r.filter != nil && !r.filter(event.Record) {
			// Record no longer matches this view, drop it if cached.
			if idx >= 0 {
				r.records = append(r.records[:idx], r.records[idx+1:]...)
			}
			return
		}
		if idx >= 0 {
			if !bytes.Equal(r.records[idx].raw, event.Record) {
				r.records[idx].raw = event.Record
			}
			return
		}
		r.records = append([]cachedRecord{{id: id, raw: event.Record}}, r.records...)
	}
}

// Snapshot returns the cached records, newest first.
func (r *Reconciler) Snapshot() []json.RawMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]json.RawMessage, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.raw
	}
	return out
}

// Len returns the cached record count.
func (r *Reconciler) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Ready reports whether the baseline has been applied.
func (r *Reconciler) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ready
}

// Close releases the subscription. After Close returns no further
// reconciliation work runs and no goroutine is retained.
func (r *Reconciler) Close() error {
	var err error
	r.closeOnce.Do(func() {
		if r.feed != nil {
			err = r.feed.Close()
		}
		r.mu.RLock()
		started := r.started
		r.mu.RUnlock()
		if started {
			<-r.loopDone
		}
	})
	return err
}
