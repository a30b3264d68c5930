package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/example/logitrack/internal/core/access"
	"github.com/example/logitrack/internal/core/contact"
	"github.com/example/logitrack/internal/ports/primary"
	"github.com/example/logitrack/internal/ports/secondary"
)

// ContactServiceImpl implements the ContactService interface.
type ContactServiceImpl struct {
	transactor secondary.Transactor
	repos      secondary.Repositories
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewContactService creates a new ContactService with injected dependencies.
func NewContactService(transactor secondary.Transactor, repos secondary.Repositories, logger *zap.Logger) *ContactServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactServiceImpl{
		transactor: transactor,
		repos:      repos,
		validate:   validator.New(),
		logger:     logger.Named("contacts"),
	}
}

// ListActive returns the active ladder ordered by ascending position.
func (s *ContactServiceImpl) ListActive(ctx context.Context) ([]*primary.EscalationContact, error) {
	return s.ListContacts(ctx, primary.ContactFilters{ActiveOnly: true})
}

// NextAfter returns the lowest-position active contact strictly above position.
func (s *ContactServiceImpl) NextAfter(ctx context.Context, position int) (*primary.EscalationContact, error) {
	records, err := s.repos.Contacts.List(ctx, secondary.ContactFilters{ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	idx := contact.NextAfter(toRungs(records), position)
	if idx < 0 {
		return nil, primary.NewError(primary.ErrNotFound, "no higher level escalation contact available")
	}
	return recordToContact(records[idx]), nil
}

// ListContacts lists contacts ordered by ascending position.
func (s *ContactServiceImpl) ListContacts(ctx context.Context, filters primary.ContactFilters) ([]*primary.EscalationContact, error) {
	records, err := s.repos.Contacts.List(ctx, secondary.ContactFilters{ActiveOnly: filters.ActiveOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	contacts := make([]*primary.EscalationContact, len(records))
	for i, r := range records {
		contacts[i] = recordToContact(r)
	}
	return contacts, nil
}

// CreateContact adds a rung to the ladder. Admin only.
func (s *ContactServiceImpl) CreateContact(ctx context.Context, req primary.CreateContactRequest) (*primary.EscalationContact, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.ContactType = strings.ToLower(strings.TrimSpace(req.ContactType))

	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}
	if err := authorize(req.Actor.Role, access.RoleAdmin); err != nil {
		return nil, err
	}

	var created *secondary.ContactRecord
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		guardCtx := contact.CreateContactContext{
			UserID:         req.UserID,
			Position:       req.Position,
			ContactType:    req.ContactType,
			TimeoutSeconds: req.TimeoutSeconds,
		}

		_, err := repos.Users.GetByID(ctx, req.UserID)
		if guardCtx.UserExists, err = exists(err); err != nil {
			return err
		}

		if req.Position > 0 {
			if guardCtx.PositionTaken, err = repos.Contacts.PositionTaken(ctx, req.Position); err != nil {
				return err
			}
		}

		if result := contact.CanCreateContact(guardCtx); !result.Allowed {
			return guardError(result.Kind, result.Reason)
		}

		id, err := repos.Contacts.GetNextID(ctx)
		if err != nil {
			return err
		}
		if err := repos.Contacts.Create(ctx, &secondary.ContactRecord{
			ID:             id,
			UserID:         req.UserID,
			Position:       req.Position,
			ContactType:    req.ContactType,
			TimeoutSeconds: req.TimeoutSeconds,
			IsActive:       true,
			CreatedAt:      time.Now().UTC(),
		}); err != nil {
			return err
		}

		created, err = repos.Contacts.GetByID(ctx, id)
		return err
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, primary.NewError(primary.ErrConflict, "position %d is already taken", req.Position)
		}
		return nil, err
	}

	s.logger.Info("escalation contact created",
		zap.String("contact_id", created.ID),
		zap.String("user_id", created.UserID),
		zap.Int("position", created.Position),
		zap.String("contact_type", created.ContactType),
	)
	return recordToContact(created), nil
}

// SetContactActive activates or deactivates a rung. Admin only.
// Positions are never edited; history keeps referencing inactive contacts.
func (s *ContactServiceImpl) SetContactActive(ctx context.Context, req primary.SetContactActiveRequest) (*primary.EscalationContact, error) {
	req.ContactID = strings.TrimSpace(req.ContactID)

	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}
	if err := authorize(req.Actor.Role, access.RoleAdmin); err != nil {
		return nil, err
	}

	var updated *secondary.ContactRecord
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, repos secondary.Repositories) error {
		guardCtx := contact.SetActiveContext{ContactID: req.ContactID}

		_, err := repos.Contacts.GetByID(ctx, req.ContactID)
		if guardCtx.ContactExists, err = exists(err); err != nil {
			return err
		}

		if result := contact.CanSetActive(guardCtx); !result.Allowed {
			return guardError(result.Kind, result.Reason)
		}

		if err := repos.Contacts.SetActive(ctx, req.ContactID, req.Active); err != nil {
			return err
		}

		updated, err = repos.Contacts.GetByID(ctx, req.ContactID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("escalation contact updated",
		zap.String("contact_id", updated.ID),
		zap.Bool("active", updated.IsActive),
	)
	return recordToContact(updated), nil
}

var _ primary.ContactService = (*ContactServiceImpl)(nil)
