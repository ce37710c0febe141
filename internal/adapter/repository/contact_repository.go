package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/networking/internal/domain/entities"
	"github.com/johnquangdev/networking/internal/domain/repositories"
)

// ContactRepository implements the contact repository interface using GORM
type ContactRepository struct {
	db *gorm.DB
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create creates a new contact
func (r *ContactRepository) Create(ctx context.Context, contact *entities.Contact) error {
	if err := r.db.WithContext(ctx).Omit("Interactions").Create(contact).Error; err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// CreateWithEmail creates a contact and its first email address atomically
func (r *ContactRepository) CreateWithEmail(ctx context.Context, contact *entities.Contact, email *entities.EmailAddress) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Interactions", "EmailAddresses").Create(contact).Error; err != nil {
			return err
		}
		email.ContactID = contact.ID
		return tx.Omit("Contact").Create(email).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create contact with email: %w", err)
	}
	return nil
}

// Update updates the editable fields of a contact
func (r *ContactRepository) Update(ctx context.Context, contact *entities.Contact) error {
	res := r.db.WithContext(ctx).
		Model(&entities.Contact{}).
		Where("id = ? AND user_id = ?", contact.ID, contact.UserID).
		Updates(map[string]interface{}{
			"name":              contact.Name,
			"frequency_in_days": contact.FrequencyInDays,
			"description":       contact.Description,
			"linkedin_url":      contact.LinkedinURL,
			"twitter_url":       contact.TwitterURL,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update contact: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return entities.ErrContactNotFound
	}
	return nil
}

// Delete deletes a contact owned by userID together with its interaction links
func (r *ContactRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contact := entities.Contact{ID: id}
		res := tx.Where("id = ? AND user_id = ?", id, userID).Limit(1).Find(&contact)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return entities.ErrContactNotFound
		}
		if err := tx.Model(&contact).Association("Interactions").Clear(); err != nil {
			return err
		}
		return tx.Delete(&contact).Error
	})
	if errors.Is(err, entities.ErrContactNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil
}

// FindByID finds a contact owned by userID, with interactions and emails preloaded
func (r *ContactRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*entities.Contact, error) {
	var contact entities.Contact
	if err := r.db.WithContext(ctx).
		Preload("Interactions", func(db *gorm.DB) *gorm.DB {
			return db.Order("was_at DESC")
		}).
		Preload("EmailAddresses").
		Preload("PhoneNumbers").
		Where("id = ? AND user_id = ?", id, userID).
		First(&contact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to find contact: %w", err)
	}
	return &contact, nil
}

// FindByIDs returns the subset of ids owned by userID
func (r *ContactRepository) FindByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]*entities.Contact, error) {
	var contacts []*entities.Contact
	if len(ids) == 0 {
		return contacts, nil
	}
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Order("name ASC").
		Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to find contacts: %w", err)
	}
	return contacts, nil
}

// ListByUser lists all of a user's contacts ordered by name, interactions preloaded
func (r *ContactRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Contact, error) {
	var contacts []*entities.Contact
	if err := r.db.WithContext(ctx).
		Preload("Interactions").
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

type contactCountRow struct {
	ID    uuid.UUID
	Count int64
}

// ListFrequent lists contacts ordered by total interaction count
func (r *ContactRepository) ListFrequent(ctx context.Context, userID uuid.UUID, limit int) ([]repositories.ContactCount, error) {
	var rows []contactCountRow
	if err := r.db.WithContext(ctx).
		Table("contacts").
		Select("contacts.id AS id, COUNT(interaction_contacts.interaction_id) AS count").
		Joins("LEFT JOIN interaction_contacts ON interaction_contacts.contact_id = contacts.id").
		Where("contacts.user_id = ?", userID).
		Group("contacts.id, contacts.name").
		Order("count DESC, contacts.name ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list frequent contacts: %w", err)
	}
	return r.hydrateCounts(ctx, rows)
}

// ListRecent lists contacts ordered by interaction count after since.
// Contacts without such interactions are left out.
func (r *ContactRepository) ListRecent(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]repositories.ContactCount, error) {
	var rows []contactCountRow
	if err := r.db.WithContext(ctx).
		Table("contacts").
		Select("contacts.id AS id, COUNT(interactions.id) AS count").
		Joins("JOIN interaction_contacts ON interaction_contacts.contact_id = contacts.id").
		Joins("JOIN interactions ON interactions.id = interaction_contacts.interaction_id").
		Where("contacts.user_id = ? AND interactions.was_at > ?", userID, since).
		Group("contacts.id, contacts.name").
		Order("count DESC, contacts.name ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list recent contacts: %w", err)
	}
	return r.hydrateCounts(ctx, rows)
}

// hydrateCounts loads the contacts of rows keeping the row order
func (r *ContactRepository) hydrateCounts(ctx context.Context, rows []contactCountRow) ([]repositories.ContactCount, error) {
	result := make([]repositories.ContactCount, 0, len(rows))
	if len(rows) == 0 {
		return result, nil
	}
	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	var contacts []*entities.Contact
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to load contacts: %w", err)
	}
	byID := make(map[uuid.UUID]*entities.Contact, len(contacts))
	for _, c := range contacts {
		byID[c.ID] = c
	}
	for _, row := range rows {
		if c, ok := byID[row.ID]; ok {
			result = append(result, repositories.ContactCount{Contact: c, Count: row.Count})
		}
	}
	return result, nil
}

// EmailAddressRepository implements the email address repository interface using GORM
type EmailAddressRepository struct {
	db *gorm.DB
}

// NewEmailAddressRepository creates a new email address repository
func NewEmailAddressRepository(db *gorm.DB) *EmailAddressRepository {
	return &EmailAddressRepository{db: db}
}

// ownedEmails scopes email address queries to contacts of userID
func ownedEmails(db *gorm.DB, userID uuid.UUID) *gorm.DB {
	return db.Joins("JOIN contacts ON contacts.id = email_addresses.contact_id").
		Where("contacts.user_id = ?", userID)
}

// Create adds an email address to a contact
func (r *EmailAddressRepository) Create(ctx context.Context, email *entities.EmailAddress) error {
	if err := r.db.WithContext(ctx).Omit("Contact").Create(email).Error; err != nil {
		return fmt.Errorf("failed to create email address: %w", err)
	}
	return nil
}

// FindByID finds an email address whose contact is owned by userID
func (r *EmailAddressRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*entities.EmailAddress, error) {
	var email entities.EmailAddress
	if err := ownedEmails(r.db.WithContext(ctx), userID).
		Preload("Contact").
		Where("email_addresses.id = ?", id).
		First(&email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrEmailAddressNotFound
		}
		return nil, fmt.Errorf("failed to find email address: %w", err)
	}
	return &email, nil
}

// FindByAddress finds a cleaned address among userID's contacts
func (r *EmailAddressRepository) FindByAddress(ctx context.Context, userID uuid.UUID, address string) (*entities.EmailAddress, error) {
	var email entities.EmailAddress
	if err := ownedEmails(r.db.WithContext(ctx), userID).
		Preload("Contact").
		Where("email_addresses.email = ?", address).
		Order("email_addresses.id").
		First(&email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrEmailAddressNotFound
		}
		return nil, fmt.Errorf("failed to find email address: %w", err)
	}
	return &email, nil
}

// ListByContact lists the email addresses of a contact owned by userID
func (r *EmailAddressRepository) ListByContact(ctx context.Context, userID, contactID uuid.UUID) ([]*entities.EmailAddress, error) {
	var emails []*entities.EmailAddress
	if err := ownedEmails(r.db.WithContext(ctx), userID).
		Where("email_addresses.contact_id = ?", contactID).
		Order("email_addresses.email ASC").
		Find(&emails).Error; err != nil {
		return nil, fmt.Errorf("failed to list email addresses: %w", err)
	}
	return emails, nil
}

// ListByUser lists every email address of userID's contacts
func (r *EmailAddressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.EmailAddress, error) {
	var emails []*entities.EmailAddress
	if err := ownedEmails(r.db.WithContext(ctx), userID).
		Find(&emails).Error; err != nil {
		return nil, fmt.Errorf("failed to list email addresses: %w", err)
	}
	return emails, nil
}

// Delete deletes an email address whose contact is owned by userID
func (r *EmailAddressRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND contact_id IN (?)", id,
			r.db.Model(&entities.Contact{}).Select("id").Where("user_id = ?", userID)).
		Delete(&entities.EmailAddress{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete email address: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return entities.ErrEmailAddressNotFound
	}
	return nil
}

// DuplicateRepository implements the duplicate repository interface using GORM
type DuplicateRepository struct {
	db *gorm.DB
}

// NewDuplicateRepository creates a new duplicate repository
func NewDuplicateRepository(db *gorm.DB) *DuplicateRepository {
	return &DuplicateRepository{db: db}
}

// ListByContact lists duplicates of a contact ordered by similarity (desc)
func (r *DuplicateRepository) ListByContact(ctx context.Context, contactID uuid.UUID) ([]*entities.ContactDuplicate, error) {
	var dups []*entities.ContactDuplicate
	if err := r.db.WithContext(ctx).
		Preload("OtherContact").
		Where("contact_id = ?", contactID).
		Order("similarity DESC").
		Find(&dups).Error; err != nil {
		return nil, fmt.Errorf("failed to list duplicates: %w", err)
	}
	return dups, nil
}

// ReplaceForUser replaces every duplicate row of userID's contacts
func (r *DuplicateRepository) ReplaceForUser(ctx context.Context, userID uuid.UUID, duplicates []*entities.ContactDuplicate) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&entities.Contact{}).Select("id").Where("user_id = ?", userID)
		if err := tx.Where("contact_id IN (?)", owned).Delete(&entities.ContactDuplicate{}).Error; err != nil {
			return err
		}
		if len(duplicates) == 0 {
			return nil
		}
		return tx.Omit("OtherContact").CreateInBatches(duplicates, 100).Error
	})
	if err != nil {
		return fmt.Errorf("failed to replace duplicates: %w", err)
	}
	return nil
}
