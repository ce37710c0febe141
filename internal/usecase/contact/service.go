package contact

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/networking/internal/domain/entities"
	"github.com/johnquangdev/networking/internal/domain/repositories"
	ucErrors "github.com/johnquangdev/networking/internal/usecase/errors"
)

const (
	// DashboardLimit bounds the frequent and recent dashboard lists
	DashboardLimit = 5
	// RecentWindow defines "recent" for the dashboard
	RecentWindow = 14 * 24 * time.Hour

	MaxNameLength = 50
)

// Service manages contacts and their email addresses
type Service struct {
	contactRepo   repositories.ContactRepository
	emailRepo     repositories.EmailAddressRepository
	duplicateRepo repositories.DuplicateRepository
	logger        *zap.Logger
	now           func() time.Time
}

// NewService creates a new contact service
func NewService(
	contactRepo repositories.ContactRepository,
	emailRepo repositories.EmailAddressRepository,
	duplicateRepo repositories.DuplicateRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		contactRepo:   contactRepo,
		emailRepo:     emailRepo,
		duplicateRepo: duplicateRepo,
		logger:        logger,
		now:           time.Now,
	}
}

// Input holds the editable contact fields
type Input struct {
	Name            string
	FrequencyInDays *int
	Description     *string
	LinkedinURL     *string
	TwitterURL      *string
}

func (in Input) validate() error {
	n := utf8.RuneCountInString(strings.TrimSpace(in.Name))
	if n == 0 || n > MaxNameLength {
		return fmt.Errorf("%w: name must be between 1 and %d characters", ucErrors.ErrInvalidInput, MaxNameLength)
	}
	if in.FrequencyInDays != nil && *in.FrequencyInDays < 0 {
		return fmt.Errorf("%w: frequency must not be negative", ucErrors.ErrInvalidInput)
	}
	return nil
}

func (in Input) apply(c *entities.Contact) {
	c.Name = strings.TrimSpace(in.Name)
	c.FrequencyInDays = in.FrequencyInDays
	c.Description = in.Description
	c.LinkedinURL = in.LinkedinURL
	c.TwitterURL = in.TwitterURL
}

// Dashboard groups the contacts shown on the start page
type Dashboard struct {
	Due      []*entities.Contact
	Frequent []repositories.ContactCount
	Recent   []repositories.ContactCount
}

// Dashboard returns due contacts by urgency and the most frequent and recent contacts
func (s *Service) Dashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	now := s.now()

	due, err := s.DueContacts(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	frequent, err := s.contactRepo.ListFrequent(ctx, userID, DashboardLimit)
	if err != nil {
		return nil, err
	}
	recent, err := s.contactRepo.ListRecent(ctx, userID, now.Add(-RecentWindow), DashboardLimit)
	if err != nil {
		return nil, err
	}

	return &Dashboard{Due: due, Frequent: frequent, Recent: recent}, nil
}

// DueContacts returns contacts with a positive urgency at now, most urgent first
func (s *Service) DueContacts(ctx context.Context, userID uuid.UUID, now time.Time) ([]*entities.Contact, error) {
	contacts, err := s.contactRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	due := make([]*entities.Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.UrgencyAt(now) > 0 {
			due = append(due, c)
		}
	}
	// stable keeps the name order for equal urgency
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].UrgencyAt(now) > due[j].UrgencyAt(now)
	})
	return due, nil
}

// StatusCounts counts contacts per derived status
type StatusCounts struct {
	Selected   int
	OutOfTouch int
	InTouch    int
	Hidden     int
}

// List is a filtered contact overview
type List struct {
	Contacts []*entities.Contact
	Counts   StatusCounts
	Status   *entities.ContactStatus
	Now      time.Time
}

// List returns the user's contacts ordered by name. With an empty rawStatus
// only contacts with a frequency are returned, otherwise those whose status
// matches. Counts always cover every contact.
func (s *Service) List(ctx context.Context, userID uuid.UUID, rawStatus string) (*List, error) {
	var filter *entities.ContactStatus
	if rawStatus != "" {
		st, err := entities.ParseContactStatus(rawStatus)
		if err != nil {
			return nil, err
		}
		filter = &st
	}

	contacts, err := s.contactRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := &List{Contacts: make([]*entities.Contact, 0, len(contacts)), Status: filter, Now: now}
	for _, c := range contacts {
		status := c.StatusAt(now)
		switch status {
		case entities.ContactStatusOutOfTouch:
			out.Counts.OutOfTouch++
		case entities.ContactStatusInTouch:
			out.Counts.InTouch++
		case entities.ContactStatusHidden:
			out.Counts.Hidden++
		}
		if c.HasFrequency() {
			out.Counts.Selected++
		}

		if filter == nil && c.HasFrequency() || filter != nil && status == *filter {
			out.Contacts = append(out.Contacts, c)
		}
	}
	return out, nil
}

// All returns every contact of the user ordered by name
func (s *Service) All(ctx context.Context, userID uuid.UUID) ([]*entities.Contact, error) {
	return s.contactRepo.ListByUser(ctx, userID)
}

// Detail is a contact with its history and potential duplicates
type Detail struct {
	Contact      *entities.Contact
	Interactions []*entities.Interaction
	Duplicates   []*entities.ContactDuplicate
	Now          time.Time
}

// Get returns a contact owned by userID with its interactions newest first
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Detail, error) {
	c, err := s.contactRepo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	interactions := append([]*entities.Interaction(nil), c.Interactions...)
	sort.SliceStable(interactions, func(i, j int) bool {
		return interactions[i].WasAt.After(interactions[j].WasAt)
	})

	dups, err := s.duplicateRepo.ListByContact(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &Detail{Contact: c, Interactions: interactions, Duplicates: dups, Now: s.now()}, nil
}

// Create creates a contact for userID
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in Input) (*entities.Contact, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := entities.NewContact(userID, "", nil)
	in.apply(c)
	if err := s.contactRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("contact created", zap.String("contact_id", c.ID.String()), zap.String("user_id", userID.String()))
	}
	return c, nil
}

// Update updates a contact owned by userID
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, in Input) (*entities.Contact, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	c, err := s.contactRepo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	in.apply(c)
	if err := s.contactRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete deletes a contact owned by userID
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.contactRepo.Delete(ctx, userID, id); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("contact deleted", zap.String("contact_id", id.String()), zap.String("user_id", userID.String()))
	}
	return nil
}

// FindByID returns a contact owned by userID
func (s *Service) FindByID(ctx context.Context, userID, id uuid.UUID) (*entities.Contact, error) {
	return s.contactRepo.FindByID(ctx, userID, id)
}

// ListEmails returns a contact owned by userID and its email addresses
func (s *Service) ListEmails(ctx context.Context, userID, contactID uuid.UUID) (*entities.Contact, []*entities.EmailAddress, error) {
	c, err := s.contactRepo.FindByID(ctx, userID, contactID)
	if err != nil {
		return nil, nil, err
	}
	emails, err := s.emailRepo.ListByContact(ctx, userID, contactID)
	if err != nil {
		return nil, nil, err
	}
	return c, emails, nil
}

// GetEmail returns an email address whose contact is owned by userID
func (s *Service) GetEmail(ctx context.Context, userID, id uuid.UUID) (*entities.EmailAddress, error) {
	return s.emailRepo.FindByID(ctx, userID, id)
}

// DeleteEmail deletes an owned email address and returns its contact id
func (s *Service) DeleteEmail(ctx context.Context, userID, id uuid.UUID) (uuid.UUID, error) {
	ea, err := s.emailRepo.FindByID(ctx, userID, id)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.emailRepo.Delete(ctx, userID, id); err != nil {
		return uuid.Nil, err
	}
	return ea.ContactID, nil
}

// GetOrCreateContactEmail finds the user's contact email matching email.
// Unknown addresses get a new contact named after the raw address, without
// a frequency.
func (s *Service) GetOrCreateContactEmail(ctx context.Context, userID uuid.UUID, email string) (*entities.EmailAddress, error) {
	clean := entities.CleanEmail(email)
	ea, err := s.emailRepo.FindByAddress(ctx, userID, clean)
	if err == nil {
		return ea, nil
	}
	if !errors.Is(err, entities.ErrEmailAddressNotFound) {
		return nil, err
	}

	c := entities.NewContact(userID, truncate(email, MaxNameLength), nil)
	ea = &entities.EmailAddress{ID: uuid.New(), ContactID: c.ID, Email: clean}
	if err := s.contactRepo.CreateWithEmail(ctx, c, ea); err != nil {
		return nil, err
	}
	ea.Contact = c

	if s.logger != nil {
		s.logger.Info("contact created from email",
			zap.String("contact_id", c.ID.String()),
			zap.String("user_id", userID.String()),
		)
	}
	return ea, nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
