package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/networking/internal/domain/entities"
)

// InteractionRepository implements the interaction repository interface using GORM
type InteractionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository creates a new interaction repository
func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

// Create creates an interaction and attaches the given contacts
func (r *InteractionRepository) Create(ctx context.Context, interaction *entities.Interaction, contacts []*entities.Contact) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Contacts", "Analysis", "Type").Create(interaction).Error; err != nil {
			return err
		}
		if len(contacts) == 0 {
			return nil
		}
		return tx.Model(interaction).Omit("Contacts.*").Association("Contacts").Append(contacts)
	})
	if err != nil {
		return fmt.Errorf("failed to create interaction: %w", err)
	}
	interaction.Contacts = contacts
	return nil
}

// Update updates the interaction fields and replaces its contacts
func (r *InteractionRepository) Update(ctx context.Context, interaction *entities.Interaction, contacts []*entities.Contact) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entities.Interaction{}).
			Where("id = ?", interaction.ID).
			Updates(map[string]interface{}{
				"title":       interaction.Title,
				"description": interaction.Description,
				"was_at":      interaction.WasAt,
				"type_id":     interaction.TypeID,
				"updated_at":  time.Now(),
			}).Error; err != nil {
			return err
		}
		return tx.Model(interaction).Omit("Contacts.*").Association("Contacts").Replace(contacts)
	})
	if err != nil {
		return fmt.Errorf("failed to update interaction: %w", err)
	}
	interaction.Contacts = contacts
	return nil
}

// Delete deletes an interaction
func (r *InteractionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		interaction := &entities.Interaction{ID: id}
		if err := tx.Model(interaction).Association("Contacts").Clear(); err != nil {
			return err
		}
		return tx.Delete(interaction).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete interaction: %w", err)
	}
	return nil
}

// FindByID finds an interaction owned by userID with contacts, type and analysis preloaded
func (r *InteractionRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*entities.Interaction, error) {
	var interaction entities.Interaction
	if err := r.db.WithContext(ctx).
		Preload("Contacts", func(db *gorm.DB) *gorm.DB {
			return db.Order("contacts.name ASC")
		}).
		Preload("Type").
		Preload("Analysis").
		Where("id = ? AND user_id = ?", id, userID).
		First(&interaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrInteractionNotFound
		}
		return nil, fmt.Errorf("failed to find interaction: %w", err)
	}
	return &interaction, nil
}

// Get finds an interaction regardless of owner, contacts preloaded
func (r *InteractionRepository) Get(ctx context.Context, id uuid.UUID) (*entities.Interaction, error) {
	var interaction entities.Interaction
	if err := r.db.WithContext(ctx).
		Preload("Contacts").
		Where("id = ?", id).
		First(&interaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrInteractionNotFound
		}
		return nil, fmt.Errorf("failed to get interaction: %w", err)
	}
	return &interaction, nil
}

// ListPastOfSelectedContacts lists interactions before t that involve at
// least one contact with a frequency, newest first. Any stored frequency
// selects a contact here, zero included.
func (r *InteractionRepository) ListPastOfSelectedContacts(ctx context.Context, userID uuid.UUID, before time.Time) ([]*entities.Interaction, error) {
	selected := r.db.Table("interaction_contacts").
		Select("interaction_contacts.interaction_id").
		Joins("JOIN contacts ON contacts.id = interaction_contacts.contact_id").
		Where("contacts.frequency_in_days IS NOT NULL")

	var interactions []*entities.Interaction
	if err := r.db.WithContext(ctx).
		Preload("Contacts", func(db *gorm.DB) *gorm.DB {
			return db.Order("contacts.name ASC")
		}).
		Preload("Analysis").
		Where("user_id = ? AND was_at < ? AND id IN (?)", userID, before, selected).
		Order("was_at DESC").
		Find(&interactions).Error; err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	return interactions, nil
}

// ListByContact lists a contact's interactions newest first; limit <= 0 means all
func (r *InteractionRepository) ListByContact(ctx context.Context, contactID uuid.UUID, limit int) ([]*entities.Interaction, error) {
	q := r.db.WithContext(ctx).
		Joins("JOIN interaction_contacts ON interaction_contacts.interaction_id = interactions.id").
		Where("interaction_contacts.contact_id = ?", contactID).
		Order("interactions.was_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var interactions []*entities.Interaction
	if err := q.Find(&interactions).Error; err != nil {
		return nil, fmt.Errorf("failed to list contact interactions: %w", err)
	}
	return interactions, nil
}

// ListTypes lists the known interaction types
func (r *InteractionRepository) ListTypes(ctx context.Context) ([]*entities.InteractionType, error) {
	var types []*entities.InteractionType
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&types).Error; err != nil {
		return nil, fmt.Errorf("failed to list interaction types: %w", err)
	}
	return types, nil
}
