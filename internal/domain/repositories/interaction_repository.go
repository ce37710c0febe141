package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/johnquangdev/networking/internal/domain/entities"
)

// InteractionRepository defines the interface for interaction data access
type InteractionRepository interface {
	// Create creates an interaction and attaches the given contacts
	Create(ctx context.Context, interaction *entities.Interaction, contacts []*entities.Contact) error

	// Update updates the interaction fields and replaces its contacts
	Update(ctx context.Context, interaction *entities.Interaction, contacts []*entities.Contact) error

	// Delete deletes an interaction
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByID finds an interaction owned by userID with contacts, type and analysis preloaded
	FindByID(ctx context.Context, userID, id uuid.UUID) (*entities.Interaction, error)

	// Get finds an interaction regardless of owner, contacts preloaded
	Get(ctx context.Context, id uuid.UUID) (*entities.Interaction, error)

	// ListPastOfSelectedContacts lists interactions before t that involve at
	// least one contact with a frequency, newest first
	ListPastOfSelectedContacts(ctx context.Context, userID uuid.UUID, before time.Time) ([]*entities.Interaction, error)

	// ListByContact lists a contact's interactions newest first; limit <= 0 means all
	ListByContact(ctx context.Context, contactID uuid.UUID, limit int) ([]*entities.Interaction, error)

	// ListTypes lists the known interaction types
	ListTypes(ctx context.Context) ([]*entities.InteractionType, error)
}

// AnalysisRepository defines the interface for interaction analysis data access
type AnalysisRepository interface {
	// Create stores an analysis
	Create(ctx context.Context, analysis *entities.InteractionAnalysis) error

	// FindByInteractionID finds the analysis of an interaction
	FindByInteractionID(ctx context.Context, interactionID uuid.UUID) (*entities.InteractionAnalysis, error)

	// ExistsForInteraction reports whether an interaction was already analysed
	ExistsForInteraction(ctx context.Context, interactionID uuid.UUID) (bool, error)
}

// AnalysisJobRepository defines the interface for analysis job data access
type AnalysisJobRepository interface {
	// Create creates a job
	Create(ctx context.Context, job *entities.AnalysisJob) error

	// FindByID finds a job
	FindByID(ctx context.Context, id uuid.UUID) (*entities.AnalysisJob, error)

	// FindLatestByInteraction finds the newest job of an interaction
	FindLatestByInteraction(ctx context.Context, interactionID uuid.UUID) (*entities.AnalysisJob, error)

	// Claim moves a pending or retryable job to processing. It returns false
	// when another worker already claimed it.
	Claim(ctx context.Context, id uuid.UUID) (bool, error)

	// MarkCompleted marks a job completed, recording where the raw response was archived
	MarkCompleted(ctx context.Context, id uuid.UUID, archiveKey string) error

	// MarkSkipped marks a job whose interaction already had an analysis
	MarkSkipped(ctx context.Context, id uuid.UUID) error

	// MarkFailed records a failed attempt
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error

	// ListStale lists pending or processing jobs not updated since before
	ListStale(ctx context.Context, before time.Time, limit int) ([]*entities.AnalysisJob, error)

	// Touch sets updated_at of a job to now
	Touch(ctx context.Context, id uuid.UUID) error
}
