package interaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/networking/internal/domain/entities"
	"github.com/johnquangdev/networking/internal/domain/repositories"
	ucErrors "github.com/johnquangdev/networking/internal/usecase/errors"
)

const (
	TouchpointTitle       = "Interaction"
	TouchpointDescription = "..."
)

// Enqueuer schedules the analysis of an interaction
type Enqueuer interface {
	Enqueue(ctx context.Context, interactionID uuid.UUID) (*entities.AnalysisJob, error)
}

// Service manages interactions
type Service struct {
	interactionRepo repositories.InteractionRepository
	contactRepo     repositories.ContactRepository
	analysis        Enqueuer
	logger          *zap.Logger
	now             func() time.Time
}

// NewService creates a new interaction service. analysis may be nil, in
// which case no analysis is scheduled.
func NewService(
	interactionRepo repositories.InteractionRepository,
	contactRepo repositories.ContactRepository,
	analysis Enqueuer,
	logger *zap.Logger,
) *Service {
	return &Service{
		interactionRepo: interactionRepo,
		contactRepo:     contactRepo,
		analysis:        analysis,
		logger:          logger,
		now:             time.Now,
	}
}

// CreateInput holds the fields of a new interaction
type CreateInput struct {
	Title       string
	Description string
	WasAt       time.Time
	ContactIDs  []uuid.UUID
	TypeID      *uuid.UUID
}

// CreateResult is a saved interaction. AnalysisErr is set when the
// interaction was stored but its analysis could not be scheduled.
type CreateResult struct {
	Interaction *entities.Interaction
	AnalysisErr error
}

// List returns the user's past interactions with selected contacts, newest first
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*entities.Interaction, error) {
	return s.interactionRepo.ListPastOfSelectedContacts(ctx, userID, s.now())
}

// ListTypes returns the interaction types offered on the form
func (s *Service) ListTypes(ctx context.Context) ([]*entities.InteractionType, error) {
	return s.interactionRepo.ListTypes(ctx)
}

// Get returns an interaction owned by userID with its analysis if any
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*entities.Interaction, error) {
	return s.interactionRepo.FindByID(ctx, userID, id)
}

// Create stores an interaction with its contacts and schedules its analysis.
// Every contact must belong to userID.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*CreateResult, error) {
	contacts, err := s.ownedContacts(ctx, userID, in.ContactIDs)
	if err != nil {
		return nil, err
	}

	i := entities.NewInteraction(userID, strings.TrimSpace(in.Title), in.Description, in.WasAt)
	i.TypeID = in.TypeID
	if err := i.Validate(); err != nil {
		return nil, err
	}

	if err := s.interactionRepo.Create(ctx, i, contacts); err != nil {
		return nil, err
	}
	i.Contacts = contacts

	if s.logger != nil {
		s.logger.Info("interaction created",
			zap.String("interaction_id", i.ID.String()),
			zap.Int("contacts", len(contacts)),
		)
	}

	return &CreateResult{Interaction: i, AnalysisErr: s.scheduleAnalysis(ctx, i.ID)}, nil
}

// AddTouchpoint records a quick interaction with one contact now. A contact
// the user does not own yields ErrForbidden.
func (s *Service) AddTouchpoint(ctx context.Context, userID, contactID uuid.UUID) (*entities.Interaction, error) {
	c, err := s.contactRepo.FindByID(ctx, userID, contactID)
	if errors.Is(err, entities.ErrContactNotFound) {
		return nil, ucErrors.ErrForbidden
	}
	if err != nil {
		return nil, err
	}

	i := entities.NewInteraction(userID, TouchpointTitle, TouchpointDescription, s.now().UTC())
	if err := s.interactionRepo.Create(ctx, i, []*entities.Contact{c}); err != nil {
		return nil, err
	}
	i.Contacts = []*entities.Contact{c}

	if err := s.scheduleAnalysis(ctx, i.ID); err != nil && s.logger != nil {
		s.logger.Warn("touchpoint analysis not scheduled", zap.String("interaction_id", i.ID.String()), zap.Error(err))
	}
	return i, nil
}

func (s *Service) ownedContacts(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]*entities.Contact, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return nil, ucErrors.ErrNoContactsSelected
	}

	contacts, err := s.contactRepo.FindByIDs(ctx, userID, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}
	if len(contacts) != len(unique) {
		return nil, ucErrors.ErrUnknownContacts
	}
	return contacts, nil
}

// scheduleAnalysis returns nil when analysis is disabled or already exists
func (s *Service) scheduleAnalysis(ctx context.Context, interactionID uuid.UUID) error {
	if s.analysis == nil {
		return nil
	}
	if _, err := s.analysis.Enqueue(ctx, interactionID); err != nil && !errors.Is(err, ucErrors.ErrAnalysisExists) {
		return err
	}
	return nil
}
