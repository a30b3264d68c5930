package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/example/logitrack/internal/core/access"
	"github.com/example/logitrack/internal/core/contact"
	"github.com/example/logitrack/internal/core/escalation"
	"github.com/example/logitrack/internal/metrics"
	"github.com/example/logitrack/internal/ports/primary"
	"github.com/example/logitrack/internal/ports/secondary"
)

// EscalationServiceImpl implements the EscalationService interface.
// Transitions run inside one transaction each; notifications are handed to
// the executor after commit and never affect the result.
type EscalationServiceImpl struct {
	transactor secondary.Transactor
	repos      secondary.Repositories
	executor   EffectExecutor
	validate   *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewEscalationService creates a new EscalationService with injected dependencies.
// repos serves the read-only operations outside any transaction.
func NewEscalationService(
	transactor secondary.Transactor,
	repos secondary.Repositories,
	executor EffectExecutor,
	logger *zap.Logger,
) *EscalationServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EscalationServiceImpl{
		transactor: transactor,
		repos:      repos,
		executor:   executor,
		validate:   validator.New(),
		logger:     logger.Named("escalation"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// TriggerEscalation starts a chain at the lowest-position active contact.
func (s *EscalationServiceImpl) TriggerEscalation(ctx context.Context, req primary.TriggerEscalationRequest) (*primary.EscalationLog, error) {
	const op = "trigger"
	req.ShipmentID = strings.TrimSpace(req.ShipmentID)
	req.DeliveryIssueID = strings.TrimSpace(req.DeliveryIssueID)
	req.Reason = strings.TrimSpace(req.Reason)

	if err := validateRequest(s.validate, req); err != nil {
		return nil, s.fail(op, err)
	}
	if err := authorize(req.Actor.Role, access.RoleAdmin, access.RoleManager, access.RoleDispatcher); err != nil {
		return nil, s.fail(op, err)
	}

	var created *secondary.EscalationLogRecord
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		guardCtx := escalation.TriggerContext{
			ShipmentID:      req.ShipmentID,
			DeliveryIssueID: req.DeliveryIssueID,
		}

		_, err := repos.Shipments.GetByID(ctx, req.ShipmentID)
		if guardCtx.ShipmentExists, err = exists(err); err != nil {
			return err
		}

		if req.DeliveryIssueID != "" {
			issue, err := repos.DeliveryIssues.GetByID(ctx, req.DeliveryIssueID)
			if guardCtx.IssueExists, err = exists(err); err != nil {
				return err
			}
			if issue != nil {
				guardCtx.IssueShipmentID = issue.ShipmentID
			}
		}

		_, err = repos.Chains.GetActive(ctx, req.ShipmentID)
		if guardCtx.HasActiveChain, err = exists(err); err != nil {
			return err
		}

		ladder, err := repos.Contacts.List(ctx, secondary.ContactFilters{ActiveOnly: true})
		if err != nil {
			return err
		}
		guardCtx.ActiveContactCount = len(ladder)

		if result := escalation.CanTrigger(guardCtx); !result.Allowed {
			return guardError(result.Kind, result.Reason)
		}

		first := ladder[contact.First(toRungs(ladder))]
		now := s.now()

		chainID, err := repos.Chains.GetNextID(ctx)
		if err != nil {
			return err
		}
		if err := repos.Chains.Create(ctx, &secondary.EscalationChainRecord{
			ID:              chainID,
			ShipmentID:      req.ShipmentID,
			DeliveryIssueID: req.DeliveryIssueID,
			Status:          escalation.ChainActive,
			HeadAttempt:     escalation.InitialAttempt(),
			CreatedAt:       now,
		}); err != nil {
			return err
		}

		logID, err := repos.Logs.GetNextID(ctx)
		if err != nil {
			return err
		}
		if err := repos.Logs.Append(ctx, &secondary.EscalationLogRecord{
			ID:              logID,
			ChainID:         chainID,
			ShipmentID:      req.ShipmentID,
			DeliveryIssueID: req.DeliveryIssueID,
			ContactID:       first.ID,
			AttemptNumber:   escalation.InitialAttempt(),
			EventType:       escalation.EventTypeTriggered,
			Payload:         escalation.TriggerPayload(req.Reason, req.Actor.UserID),
			CreatedAt:       now,
		}); err != nil {
			return err
		}

		created, err = repos.Logs.GetByID(ctx, logID)
		return err
	})
	if err != nil {
		return nil, s.fail(op, s.classify(req.ShipmentID, err))
	}

	log := recordToEscalationLog(created)
	s.committed(ctx, created, log, req.Reason)
	s.logger.Info("escalation triggered",
		zap.String("shipment_id", log.ShipmentID),
		zap.String("log_id", log.ID),
		zap.String("contact_id", log.ContactID),
		zap.String("triggered_by", req.Actor.UserID),
	)
	return log, nil
}

// AdvanceEscalation appends a row addressed to the next contact up the ladder.
// The superseded row is left untouched.
func (s *EscalationServiceImpl) AdvanceEscalation(ctx context.Context, req primary.AdvanceEscalationRequest) (*primary.EscalationLog, error) {
	const op = "advance"
	req.ShipmentID = strings.TrimSpace(req.ShipmentID)

	if err := validateRequest(s.validate, req); err != nil {
		return nil, s.fail(op, err)
	}
	if err := authorize(req.Actor.Role, access.RoleAdmin, access.RoleManager); err != nil {
		return nil, s.fail(op, err)
	}

	var created *secondary.EscalationLogRecord
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		guardCtx := escalation.AdvanceContext{ShipmentID: req.ShipmentID}

		current, err := repos.Logs.Outstanding(ctx, req.ShipmentID)
		if guardCtx.HasOutstanding, err = exists(err); err != nil {
			return err
		}

		var next *secondary.ContactRecord
		if current != nil {
			ladder, err := repos.Contacts.List(ctx, secondary.ContactFilters{ActiveOnly: true})
			if err != nil {
				return err
			}
			if idx := contact.NextAfter(toRungs(ladder), current.Contact.Position); idx >= 0 {
				next = ladder[idx]
				guardCtx.HasNextContact = true
			}
		}

		if result := escalation.CanAdvance(guardCtx); !result.Allowed {
			return guardError(result.Kind, result.Reason)
		}

		attempt := escalation.NextAttempt(current.AttemptNumber)
		logID, err := repos.Logs.GetNextID(ctx)
		if err != nil {
			return err
		}
		if err := repos.Logs.Append(ctx, &secondary.EscalationLogRecord{
			ID:              logID,
			ChainID:         current.ChainID,
			ShipmentID:      req.ShipmentID,
			DeliveryIssueID: current.DeliveryIssueID,
			ContactID:       next.ID,
			AttemptNumber:   attempt,
			EventType:       escalation.EventTypeAdvanced,
			Payload:         escalation.AdvancePayload(current.ContactID, req.Actor.UserID),
			CreatedAt:       s.now(),
		}); err != nil {
			return err
		}
		if err := repos.Chains.SetHead(ctx, current.ChainID, attempt); err != nil {
			return err
		}

		created, err = repos.Logs.GetByID(ctx, logID)
		return err
	})
	if err != nil {
		return nil, s.fail(op, s.classify(req.ShipmentID, err))
	}

	log := recordToEscalationLog(created)
	s.committed(ctx, created, log, escalation.AdvanceReason)
	s.logger.Info("escalation advanced",
		zap.String("shipment_id", log.ShipmentID),
		zap.String("log_id", log.ID),
		zap.String("contact_id", log.ContactID),
		zap.Int("attempt", log.AttemptNumber),
	)
	return log, nil
}

// AcknowledgeEscalation records the addressee's acknowledgment and closes the chain.
func (s *EscalationServiceImpl) AcknowledgeEscalation(ctx context.Context, req primary.AcknowledgeEscalationRequest) (*primary.EscalationLog, error) {
	const op = "acknowledge"
	req.ShipmentID = strings.TrimSpace(req.ShipmentID)
	req.Method = strings.TrimSpace(req.Method)

	if err := validateRequest(s.validate, req); err != nil {
		return nil, s.fail(op, err)
	}
	if err := authorize(req.Actor.Role, access.RoleAdmin, access.RoleManager); err != nil {
		return nil, s.fail(op, err)
	}

	var updated *secondary.EscalationLogRecord
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		guardCtx := escalation.AcknowledgeContext{
			ShipmentID:   req.ShipmentID,
			CallerUserID: req.Actor.UserID,
		}

		current, err := repos.Logs.Outstanding(ctx, req.ShipmentID)
		if guardCtx.HasOutstanding, err = exists(err); err != nil {
			return err
		}
		if current != nil {
			guardCtx.AddresseeUserID = current.Contact.UserID
		}

		if result := escalation.CanAcknowledge(guardCtx); !result.Allowed {
			return guardError(result.Kind, result.Reason)
		}

		now := s.now()
		if err := repos.Logs.MarkAcknowledged(ctx, current.ID, req.Method, now); err != nil {
			return err
		}

		ackID, err := repos.Acknowledgments.GetNextID(ctx)
		if err != nil {
			return err
		}
		if err := repos.Acknowledgments.Create(ctx, &secondary.AcknowledgmentRecord{
			ID:              ackID,
			ShipmentID:      req.ShipmentID,
			DeliveryIssueID: current.DeliveryIssueID,
			UserID:          req.Actor.UserID,
			Method:          req.Method,
			Notes:           req.Notes,
			CreatedAt:       now,
		}); err != nil {
			return err
		}

		if err := repos.Chains.Close(ctx, current.ChainID, now); err != nil {
			return err
		}

		updated, err = repos.Logs.GetByID(ctx, current.ID)
		return err
	})
	if err != nil {
		return nil, s.fail(op, s.classify(req.ShipmentID, err))
	}

	log := recordToEscalationLog(updated)
	s.committedAs(ctx, escalation.EventTypeAcknowledged, updated, log, "")
	s.logger.Info("escalation acknowledged",
		zap.String("shipment_id", log.ShipmentID),
		zap.String("log_id", log.ID),
		zap.String("method", log.AckMethod),
		zap.String("acknowledged_by", req.Actor.UserID),
	)
	return log, nil
}

// GetEscalationHistory returns every log row for a shipment, newest first.
// An unknown shipment has an empty history.
func (s *EscalationServiceImpl) GetEscalationHistory(ctx context.Context, shipmentID string, actor primary.Actor) ([]*primary.EscalationLog, error) {
	const op = "history"
	shipmentID = strings.TrimSpace(shipmentID)
	if shipmentID == "" {
		return nil, s.fail(op, primary.NewError(primary.ErrValidation, "ShipmentID is required"))
	}
	if err := authorize(actor.Role, access.AllRoles...); err != nil {
		return nil, s.fail(op, err)
	}

	records, err := s.repos.Logs.ListByShipment(ctx, shipmentID)
	if err != nil {
		return nil, s.fail(op, fmt.Errorf("failed to list escalation history: %w", err))
	}

	logs := make([]*primary.EscalationLog, len(records))
	for i, r := range records {
		logs[i] = recordToEscalationLog(r)
	}
	return logs, nil
}

// ListActiveEscalations returns every outstanding chain with its timeout status.
func (s *EscalationServiceImpl) ListActiveEscalations(ctx context.Context, actor primary.Actor) ([]*primary.ActiveEscalation, error) {
	const op = "active"
	if err := authorize(actor.Role, access.RoleAdmin, access.RoleManager, access.RoleDispatcher); err != nil {
		return nil, s.fail(op, err)
	}

	records, err := s.repos.Logs.ListOutstanding(ctx)
	if err != nil {
		return nil, s.fail(op, fmt.Errorf("failed to list active escalations: %w", err))
	}

	now := s.now()
	active := make([]*primary.ActiveEscalation, len(records))
	for i, r := range records {
		item := &primary.ActiveEscalation{
			Log:     recordToEscalationLog(r),
			Overdue: escalation.IsOverdue(r.CreatedAt, r.Contact.TimeoutSeconds, now),
		}
		if r.Contact.TimeoutSeconds > 0 {
			due := r.CreatedAt.Add(time.Duration(r.Contact.TimeoutSeconds) * time.Second)
			item.DueAt = &due
		}
		active[i] = item
	}
	metrics.ActiveEscalations.Set(float64(len(active)))
	return active, nil
}

// committed records and fans out a transition whose event matches the row.
func (s *EscalationServiceImpl) committed(ctx context.Context, record *secondary.EscalationLogRecord, log *primary.EscalationLog, reason string) {
	s.committedAs(ctx, record.EventType, record, log, reason)
}

func (s *EscalationServiceImpl) committedAs(ctx context.Context, eventType string, record *secondary.EscalationLogRecord, log *primary.EscalationLog, reason string) {
	metrics.EscalationTransitions.WithLabelValues(eventType).Inc()

	if s.executor == nil {
		return
	}

	plan := escalation.GenerateNotifyPlan(escalation.NotifyPlanInput{
		EventType:      eventType,
		ShipmentID:     record.ShipmentID,
		TrackingNumber: record.Shipment.TrackingNumber,
		AttemptNumber:  record.AttemptNumber,
		Reason:         reason,
		Addressee: escalation.AddresseeInput{
			ContactID:      record.ContactID,
			ContactType:    record.Contact.ContactType,
			TimeoutSeconds: record.Contact.TimeoutSeconds,
			UserID:         record.Contact.UserID,
			UserName:       record.Contact.UserName,
			Email:          record.Contact.UserEmail,
			PushToken:      record.Contact.UserPushToken,
		},
		Payload: log,
	})

	// Emission is best effort; the transition has already committed.
	if err := s.executor.Execute(ctx, plan.Effects()); err != nil {
		s.logger.Warn("failed to dispatch escalation notifications",
			zap.String("shipment_id", record.ShipmentID),
			zap.String("event", escalation.EventName(eventType)),
			zap.Error(err),
		)
	}
}

// classify maps storage-level failures that escaped the guards onto the
// error taxonomy. A uniqueness violation means a concurrent transition won.
func (s *EscalationServiceImpl) classify(shipmentID string, err error) error {
	var classified *primary.Error
	if errors.As(err, &classified) {
		return err
	}
	if errors.Is(err, secondary.ErrDuplicate) {
		return primary.NewError(primary.ErrConflict, "escalation already active for shipment %s", shipmentID)
	}
	if errors.Is(err, secondary.ErrNotFound) {
		return primary.NewError(primary.ErrNotFound, "no active escalation found for shipment %s", shipmentID)
	}
	return err
}

func (s *EscalationServiceImpl) fail(op string, err error) error {
	kind := primary.KindOf(err)
	metrics.EscalationErrors.WithLabelValues(op, kind).Inc()
	if kind == "internal" {
		s.logger.Error("escalation operation failed", zap.String("operation", op), zap.Error(err))
	}
	return err
}

func toRungs(contacts []*secondary.ContactRecord) []contact.Rung {
	rungs := make([]contact.Rung, len(contacts))
	for i, c := range contacts {
		rungs[i] = contact.Rung{ContactID: c.ID, Position: c.Position, IsActive: c.IsActive}
	}
	return rungs
}

// Helper methods

func recordToEscalationLog(r *secondary.EscalationLogRecord) *primary.EscalationLog {
	log := &primary.EscalationLog{
		ID:              r.ID,
		ChainID:         r.ChainID,
		ShipmentID:      r.ShipmentID,
		DeliveryIssueID: r.DeliveryIssueID,
		ContactID:       r.ContactID,
		AttemptNumber:   r.AttemptNumber,
		EventType:       r.EventType,
		Payload:         r.Payload,
		AckReceived:     r.AckReceived,
		AckMethod:       r.AckMethod,
		AcknowledgedAt:  r.AcknowledgedAt,
		CreatedAt:       r.CreatedAt,
	}
	if r.Contact != nil {
		log.Contact = recordToContact(r.Contact)
	}
	if r.Shipment != nil {
		log.Shipment = &primary.ShipmentSummary{
			ID:             r.Shipment.ID,
			TrackingNumber: r.Shipment.TrackingNumber,
			Status:         r.Shipment.Status,
		}
	}
	if r.DeliveryIssue != nil {
		log.DeliveryIssue = &primary.DeliveryIssueSummary{
			ID:          r.DeliveryIssue.ID,
			IssueType:   r.DeliveryIssue.IssueType,
			Status:      r.DeliveryIssue.Status,
			Description: r.DeliveryIssue.Description,
		}
	}
	return log
}

func recordToContact(r *secondary.ContactRecord) *primary.EscalationContact {
	return &primary.EscalationContact{
		ID:             r.ID,
		UserID:         r.UserID,
		Position:       r.Position,
		ContactType:    r.ContactType,
		TimeoutSeconds: r.TimeoutSeconds,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt,
		User: &primary.UserSummary{
			ID:    r.UserID,
			Name:  r.UserName,
			Email: r.UserEmail,
		},
	}
}

var _ primary.EscalationService = (*EscalationServiceImpl)(nil)
