package service

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/campus-osa/care-desk-api/internal/dto"
	"github.com/campus-osa/care-desk-api/internal/projection"
	"github.com/campus-osa/care-desk-api/internal/realtime"
)

// queryFacets lifts the course/year-level/section parameters of a list query
// into the projection's refinement facets.
func queryFacets(query dto.CaseQuery) projection.Facets {
	return projection.Facets{
		Course:    query.Course,
		YearLevel: query.YearLevel,
		Section:   query.Section,
	}
}

// publishRecord encodes a row and hands it to the change bus. Publishing is
// best effort: a failure here never rolls back the committed write.
func publishRecord(bus changePublisher, logger *zap.Logger, kind realtime.Kind, collection string, model interface{}) {
	if bus == nil || model == nil {
		return
	}
	raw, err := json.Marshal(model)
	if err != nil {
		logger.Warn("failed to encode change event", zap.String("collection", collection), zap.Error(err))
		return
	}
	if err := bus.Publish(realtime.Event{Kind: kind, Collection: collection, Record: raw}); err != nil {
		logger.Warn("failed to enqueue change event", zap.String("collection", collection), zap.Error(err))
	}
}
