package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/campus-osa/care-desk-api/internal/realtime"
	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
)

type viewSeedObserver interface {
	ObserveViewSeed(duration time.Duration)
}

// LiveViewService keeps one reconciled view per case collection so the
// dashboard can serve recency-ordered snapshots without hitting the store
// on every poll. Views are seeded from the authoritative baseline and kept
// current by change events.
type LiveViewService struct {
	views   map[string]*realtime.Reconciler
	metrics viewSeedObserver
	logger  *zap.Logger
}

// NewLiveViewService constructs an empty registry. Register views before
// calling Start.
func NewLiveViewService(logger *zap.Logger) *LiveViewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveViewService{views: make(map[string]*realtime.Reconciler), logger: logger}
}

// Register adds a reconciler under its collection name.
func (s *LiveViewService) Register(collection string, view *realtime.Reconciler) {
	s.views[collection] = view
}

// SetMetrics attaches an optional instrumentation sink.
func (s *LiveViewService) SetMetrics(metrics viewSeedObserver) {
	s.metrics = metrics
}

// Start seeds every registered view and begins applying change events.
func (s *LiveViewService) Start(ctx context.Context) error {
	for collection, view := range s.views {
		seedStart := time.Now()
		if err := view.Start(ctx); err != nil {
			return appErrors.Wrap(err, appErrors.ErrSubscriptionFailed.Code, appErrors.ErrSubscriptionFailed.Status,
				"failed to start live view for "+collection)
		}
		if s.metrics != nil {
			s.metrics.ObserveViewSeed(time.Since(seedStart))
		}
		s.logger.Info("live view started", zap.String("collection", collection), zap.Int("records", view.Len()))
	}
	return nil
}

// Close releases every view's feed.
func (s *LiveViewService) Close() {
	for collection, view := range s.views {
		if err := view.Close(); err != nil {
			s.logger.Warn("failed to close live view", zap.String("collection", collection), zap.Error(err))
		}
	}
}

// Snapshot returns the cached records of one collection, newest first.
func (s *LiveViewService) Snapshot(collection string) ([]json.RawMessage, error) {
	view, ok := s.views[collection]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no live view for collection "+collection)
	}
	if !view.Ready() {
		return nil, appErrors.Clone(appErrors.ErrSubscriptionFailed, "live view for "+collection+" is not ready yet")
	}
	return view.Snapshot(), nil
}

// Ready reports whether every registered view has seeded its baseline.
func (s *LiveViewService) Ready() bool {
	for _, view := range s.views {
		if !view.Ready() {
			return false
		}
	}
	return true
}
