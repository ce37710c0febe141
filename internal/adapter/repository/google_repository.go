package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/networking/internal/domain/entities"
)

// GoogleRepository implements the google repository interface using GORM
type GoogleRepository struct {
	db *gorm.DB
}

// NewGoogleRepository creates a new google repository
func NewGoogleRepository(db *gorm.DB) *GoogleRepository {
	return &GoogleRepository{db: db}
}

// KnownMessageIDs returns which of ids are already stored for userID
func (r *GoogleRepository) KnownMessageIDs(ctx context.Context, userID uuid.UUID, ids []string) (map[string]bool, error) {
	known := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return known, nil
	}
	var found []string
	if err := r.db.WithContext(ctx).
		Model(&entities.GoogleEmail{}).
		Where("user_id = ? AND gmail_message_id IN ?", userID, ids).
		Pluck("gmail_message_id", &found).Error; err != nil {
		return nil, fmt.Errorf("failed to look up gmail messages: %w", err)
	}
	for _, id := range found {
		known[id] = true
	}
	return known, nil
}

// SaveEmail inserts or updates a Gmail message
func (r *GoogleRepository) SaveEmail(ctx context.Context, email *entities.GoogleEmail) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "gmail_message_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "interaction_id"}),
		}).
		Create(email).Error; err != nil {
		return fmt.Errorf("failed to save gmail message: %w", err)
	}
	return nil
}

// ListUnlinkedEmails lists the stored messages of userID without an interaction, oldest first
func (r *GoogleRepository) ListUnlinkedEmails(ctx context.Context, userID uuid.UUID) ([]*entities.GoogleEmail, error) {
	var emails []*entities.GoogleEmail
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND interaction_id IS NULL", userID).
		Order("created_at ASC").
		Find(&emails).Error; err != nil {
		return nil, fmt.Errorf("failed to list unlinked gmail messages: %w", err)
	}
	return emails, nil
}

// FindEvent finds a stored calendar event by Google id; nil without error when absent
func (r *GoogleRepository) FindEvent(ctx context.Context, userID uuid.UUID, googleID string) (*entities.GoogleCalendarEvent, error) {
	var event entities.GoogleCalendarEvent
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND google_calendar_id = ?", userID, googleID).
		First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find calendar event: %w", err)
	}
	return &event, nil
}

// SaveEvent inserts or updates a calendar event
func (r *GoogleRepository) SaveEvent(ctx context.Context, event *entities.GoogleCalendarEvent) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "google_calendar_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "interaction_id", "updated_at"}),
		}).
		Create(event).Error; err != nil {
		return fmt.Errorf("failed to save calendar event: %w", err)
	}
	return nil
}
