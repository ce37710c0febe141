package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/johnquangdev/networking/internal/domain/entities"
)

// ContactCount pairs a contact with a number of interactions
type ContactCount struct {
	Contact *entities.Contact
	Count   int64
}

// ContactRepository defines the interface for contact data access.
// Every lookup is scoped to the owning user.
type ContactRepository interface {
	// Create creates a new contact
	Create(ctx context.Context, contact *entities.Contact) error

	// CreateWithEmail creates a contact and its first email address atomically
	CreateWithEmail(ctx context.Context, contact *entities.Contact, email *entities.EmailAddress) error

	// Update updates the editable fields of a contact
	Update(ctx context.Context, contact *entities.Contact) error

	// Delete deletes a contact owned by userID
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// FindByID finds a contact owned by userID, with interactions and emails preloaded
	FindByID(ctx context.Context, userID, id uuid.UUID) (*entities.Contact, error)

	// FindByIDs returns the subset of ids owned by userID
	FindByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]*entities.Contact, error)

	// ListByUser lists all of a user's contacts ordered by name, interactions preloaded
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.Contact, error)

	// ListFrequent lists contacts ordered by total interaction count
	ListFrequent(ctx context.Context, userID uuid.UUID, limit int) ([]ContactCount, error)

	// ListRecent lists contacts ordered by interaction count after since
	ListRecent(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]ContactCount, error)
}

// EmailAddressRepository defines the interface for contact email data access
type EmailAddressRepository interface {
	// Create adds an email address to a contact
	Create(ctx context.Context, email *entities.EmailAddress) error

	// FindByID finds an email address whose contact is owned by userID
	FindByID(ctx context.Context, userID, id uuid.UUID) (*entities.EmailAddress, error)

	// FindByAddress finds a cleaned address among userID's contacts
	FindByAddress(ctx context.Context, userID uuid.UUID, email string) (*entities.EmailAddress, error)

	// ListByContact lists the email addresses of a contact owned by userID
	ListByContact(ctx context.Context, userID, contactID uuid.UUID) ([]*entities.EmailAddress, error)

	// ListByUser lists every email address of userID's contacts
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.EmailAddress, error)

	// Delete deletes an email address whose contact is owned by userID
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// DuplicateRepository defines the interface for potential duplicate data access
type DuplicateRepository interface {
	// ListByContact lists duplicates of a contact ordered by similarity (desc)
	ListByContact(ctx context.Context, contactID uuid.UUID) ([]*entities.ContactDuplicate, error)

	// ReplaceForUser replaces every duplicate row of userID's contacts
	ReplaceForUser(ctx context.Context, userID uuid.UUID, duplicates []*entities.ContactDuplicate) error
}
