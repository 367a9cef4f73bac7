package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campus-osa/care-desk-api/internal/dto"
	"github.com/campus-osa/care-desk-api/internal/models"
	"github.com/campus-osa/care-desk-api/internal/realtime"
	"github.com/campus-osa/care-desk-api/internal/workflow"
	appErrors "github.com/campus-osa/care-desk-api/pkg/errors"
)

// CaseState is the family-neutral view of a loaded case the executor works
// with. Model carries the full row for the change event; adapters keep it in
// sync with what they wrote.
type CaseState struct {
	ID          string
	StudentID   string
	StudentName string
	Department  string
	Status      workflow.Status
	Model       interface{}

	// Spawned collects records created as side effects of the transition,
	// published as insert events after the unit of work commits.
	Spawned []SpawnedRecord
}

// SpawnedRecord is a row created alongside a transition.
type SpawnedRecord struct {
	Collection string
	Model      interface{}
}

// caseAdapter binds one case family's store and state machine into the
// executor. Resolve and Message are pure; Apply performs the conditional
// write inside the executor's transaction.
type caseAdapter interface {
	Family() workflow.Family
	Load(ctx context.Context, id string) (*CaseState, error)
	Resolve(state *CaseState, action workflow.Action) (workflow.Transition, error)
	LegalTransitions(state *CaseState) []workflow.Transition
	Apply(ctx context.Context, tx sqlx.ExtContext, state *CaseState, tr workflow.Transition, p workflow.Payload) error
	Message(state *CaseState, tr workflow.Transition, p workflow.Payload) string
}

type txBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type notificationWriter interface {
	Create(ctx context.Context, q sqlx.ExtContext, n *models.Notification) error
}

type auditWriter interface {
	Create(ctx context.Context, q sqlx.ExtContext, log *models.AuditLog) error
}

type changePublisher interface {
	Publish(event realtime.Event) error
}

type transitionObserver interface {
	ObserveTransition(collection, action, outcome string)
	ObserveEventPublished(collection string)
}

// TransitionService executes case transitions as a single unit of work: the
// conditional status write, the student notification and the audit record
// commit together or not at all. Change events go out only after commit.
type TransitionService struct {
	db            txBeginner
	adapters      map[workflow.Family]caseAdapter
	notifications notificationWriter
	audits        auditWriter
	bus           changePublisher
	metrics       transitionObserver
	logger        *zap.Logger
}

// NewTransitionService constructs the executor over the given adapters.
func NewTransitionService(db txBeginner, notifications notificationWriter, audits auditWriter, bus changePublisher, logger *zap.Logger, adapters ...caseAdapter) *TransitionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := make(map[workflow.Family]caseAdapter, len(adapters))
	for _, a := range adapters {
		registry[a.Family()] = a
	}
	return &TransitionService{
		db:            db,
		adapters:      registry,
		notifications: notifications,
		audits:        audits,
		bus:           bus,
		logger:        logger,
	}
}

// SetMetrics attaches an optional instrumentation sink.
func (s *TransitionService) SetMetrics(metrics transitionObserver) {
	s.metrics = metrics
}

func (s *TransitionService) observe(family workflow.Family, action, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(string(family), action, outcome)
	}
}

// Execute runs one transition end to end. Authorisation, guard evaluation and
// edge resolution all happen before any write; a zero-row conditional update
// means another actor moved the case first and surfaces as a conflict.
func (s *TransitionService) Execute(ctx context.Context, family workflow.Family, caseID string, actor *models.JWTClaims, req dto.TransitionRequest) (*dto.TransitionResult, error) {
	adapter, ok := s.adapters[family]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown case collection %s", family))
	}

	state, err := adapter.Load(ctx, caseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case")
	}

	tr, err := adapter.Resolve(state, workflow.Action(req.Action))
	if err != nil {
		s.observe(family, req.Action, "rejected")
		return nil, err
	}
	if !tr.Allows(actor.Role) {
		s.observe(family, req.Action, "rejected")
		return nil, appErrors.ErrForbidden
	}
	if actor.Role == models.RoleDepartment && actor.Department != state.Department {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "case belongs to another department's queue")
	}

	payload := workflow.Payload{
		ScheduledAt:  req.ScheduledAt,
		Reason:       req.Reason,
		Notes:        req.Notes,
		ActionsTaken: req.ActionsTaken,
		Comments:     req.Comments,
		ReferredBy:   actor.FullName,
		SignatureURI: req.SignatureURI,
	}
	if tr.Guard != nil {
		if err := tr.Guard(payload); err != nil {
			s.observe(family, req.Action, "rejected")
			return nil, err
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreWrite.Code, appErrors.ErrStoreWrite.Status, appErrors.ErrStoreWrite.Message)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := adapter.Apply(ctx, tx, state, tr, payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.observe(family, req.Action, "conflict")
			return nil, appErrors.ErrConflictDetected
		}
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreWrite.Code, appErrors.ErrStoreWrite.Status, appErrors.ErrStoreWrite.Message)
	}

	notification := &models.Notification{
		StudentID: state.StudentID,
		Message:   adapter.Message(state, tr, payload),
	}
	if err := s.notifications.Create(ctx, tx, notification); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreWrite.Code, appErrors.ErrStoreWrite.Status, "failed to record notification")
	}

	userID := actor.UserID
	auditEntry := &models.AuditLog{
		UserID:   &userID,
		UserName: actor.FullName,
		Action:   models.AuditActionCaseTransition,
		Details:  fmt.Sprintf("%s %s: %s -> %s (%s)", family, caseID, tr.From, tr.To, tr.Action),
	}
	if err := s.audits.Create(ctx, tx, auditEntry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreWrite.Code, appErrors.ErrStoreWrite.Status, "failed to record audit entry")
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreWrite.Code, appErrors.ErrStoreWrite.Status, appErrors.ErrStoreWrite.Message)
	}

	s.observe(family, req.Action, "applied")
	publishRecord(s.bus, s.logger, realtime.KindUpdated, string(family), state.Model)
	if s.metrics != nil {
		s.metrics.ObserveEventPublished(string(family))
	}
	for _, spawned := range state.Spawned {
		publishRecord(s.bus, s.logger, realtime.KindInserted, spawned.Collection, spawned.Model)
		if s.metrics != nil {
			s.metrics.ObserveEventPublished(spawned.Collection)
		}
	}

	return &dto.TransitionResult{
		CaseID:     caseID,
		Collection: string(family),
		From:       string(tr.From),
		To:         string(tr.To),
	}, nil
}

// AvailableActions lists the transitions the actor may trigger on the case in
// its current state, after role and department scoping.
func (s *TransitionService) AvailableActions(ctx context.Context, family workflow.Family, caseID string, actor *models.JWTClaims) ([]dto.AvailableAction, error) {
	adapter, ok := s.adapters[family]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown case collection %s", family))
	}
	state, err := adapter.Load(ctx, caseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load case")
	}
	if actor.Role == models.RoleDepartment && actor.Department != state.Department {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "case belongs to another department's queue")
	}

	actions := make([]dto.AvailableAction, 0, 4)
	for _, tr := range adapter.LegalTransitions(state) {
		if tr.Allows(actor.Role) {
			actions = append(actions, dto.AvailableAction{Action: string(tr.Action), To: string(tr.To)})
		}
	}
	return actions, nil
}
