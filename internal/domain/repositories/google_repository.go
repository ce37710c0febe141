package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/networking/internal/domain/entities"
)

// GoogleRepository defines the interface for synced Google data access
type GoogleRepository interface {
	// KnownMessageIDs returns which of ids are already stored for userID
	KnownMessageIDs(ctx context.Context, userID uuid.UUID, ids []string) (map[string]bool, error)

	// SaveEmail inserts or updates a Gmail message
	SaveEmail(ctx context.Context, email *entities.GoogleEmail) error

	// ListUnlinkedEmails lists the stored messages of userID without an interaction
	ListUnlinkedEmails(ctx context.Context, userID uuid.UUID) ([]*entities.GoogleEmail, error)

	// FindEvent finds a stored calendar event by Google id; nil without error when absent
	FindEvent(ctx context.Context, userID uuid.UUID, googleID string) (*entities.GoogleCalendarEvent, error)

	// SaveEvent inserts or updates a calendar event
	SaveEvent(ctx context.Context, event *entities.GoogleCalendarEvent) error
}
