package entities

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LastInteractionDefaultAge is assumed as the age of the last interaction
// for contacts that have never been interacted with.
const LastInteractionDefaultAge = 365 * 24 * time.Hour

// ContactStatus is the derived keep-in-touch state of a contact
type ContactStatus int

const (
	ContactStatusHidden     ContactStatus = -1
	ContactStatusInTouch    ContactStatus = 1
	ContactStatusOutOfTouch ContactStatus = 2
)

// ParseContactStatus parses the numeric query representation of a status
func ParseContactStatus(raw string) (ContactStatus, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrInvalidContactStatus
	}
	s := ContactStatus(v)
	if !s.IsValid() {
		return 0, ErrInvalidContactStatus
	}
	return s, nil
}

// IsValid checks if the status is one of the known values
func (s ContactStatus) IsValid() bool {
	switch s {
	case ContactStatusHidden, ContactStatusInTouch, ContactStatusOutOfTouch:
		return true
	}
	return false
}

// String returns the machine name of the status
func (s ContactStatus) String() string {
	switch s {
	case ContactStatusHidden:
		return "hidden"
	case ContactStatusInTouch:
		return "in_touch"
	case ContactStatusOutOfTouch:
		return "out_of_touch"
	}
	return "unknown"
}

// Contact is a person the user keeps in touch with
type Contact struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID          uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Name            string    `json:"name" gorm:"type:varchar(50);not null"`
	FrequencyInDays *int      `json:"frequency_in_days,omitempty" gorm:"type:integer"`

	Description *string `json:"description,omitempty" gorm:"type:text"`
	LinkedinURL *string `json:"linkedin_url,omitempty" gorm:"column:linkedin_url;type:varchar(100)"`
	TwitterURL  *string `json:"twitter_url,omitempty" gorm:"column:twitter_url;type:varchar(100)"`

	EmailAddresses []*EmailAddress `json:"email_addresses,omitempty" gorm:"foreignKey:ContactID;constraint:OnDelete:CASCADE"`
	PhoneNumbers   []*PhoneNumber  `json:"phone_numbers,omitempty" gorm:"foreignKey:ContactID;constraint:OnDelete:CASCADE"`
	Interactions   []*Interaction  `json:"-" gorm:"many2many:interaction_contacts;"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewContact creates a contact owned by userID
func NewContact(userID uuid.UUID, name string, frequencyInDays *int) *Contact {
	now := time.Now()
	return &Contact{
		ID:              uuid.New(),
		UserID:          userID,
		Name:            name,
		FrequencyInDays: frequencyInDays,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// HasFrequency reports whether the user selected this contact to keep in touch with.
// A zero frequency counts as unset.
func (c *Contact) HasFrequency() bool {
	return c.FrequencyInDays != nil && *c.FrequencyInDays != 0
}

// LastInteraction returns the most recent loaded interaction, or nil
func (c *Contact) LastInteraction() *Interaction {
	var last *Interaction
	for _, i := range c.Interactions {
		if i == nil {
			continue
		}
		if last == nil || i.WasAt.After(last.WasAt) {
			last = i
		}
	}
	return last
}

// LastInteractionDateOrDefault returns the date of the last interaction or
// now minus LastInteractionDefaultAge when there is none.
func (c *Contact) LastInteractionDateOrDefault(now time.Time) time.Time {
	if li := c.LastInteraction(); li != nil {
		return li.WasAt
	}
	return now.Add(-LastInteractionDefaultAge)
}

// UrgencyAt is the number of days the contact is overdue at now. Higher is more urgent.
func (c *Contact) UrgencyAt(now time.Time) int {
	if !c.HasFrequency() {
		return 0
	}
	since := now.Sub(c.LastInteractionDateOrDefault(now))
	return floorDays(since) - *c.FrequencyInDays
}

// Urgency is UrgencyAt the current time
func (c *Contact) Urgency() int {
	return c.UrgencyAt(time.Now())
}

// DueDateAt returns when the contact becomes due, or nil without a frequency
func (c *Contact) DueDateAt(now time.Time) *time.Time {
	if !c.HasFrequency() {
		return nil
	}
	due := c.LastInteractionDateOrDefault(now).Add(time.Duration(*c.FrequencyInDays) * 24 * time.Hour)
	return &due
}

// StatusAt derives the contact status at now
func (c *Contact) StatusAt(now time.Time) ContactStatus {
	if !c.HasFrequency() {
		return ContactStatusHidden
	}
	if c.UrgencyAt(now) > 0 {
		return ContactStatusOutOfTouch
	}
	return ContactStatusInTouch
}

// Status is StatusAt the current time
func (c *Contact) Status() ContactStatus {
	return c.StatusAt(time.Now())
}

// floorDays truncates a duration to whole days towards negative infinity
func floorDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}

// EmailAddress is one of a contact's email addresses
type EmailAddress struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ContactID uuid.UUID `json:"contact_id" gorm:"type:uuid;not null;uniqueIndex:idx_contact_email"`
	Email     string    `json:"email" gorm:"type:varchar(100);not null;uniqueIndex:idx_contact_email"`
	Contact   *Contact  `json:"-" gorm:"foreignKey:ContactID"`
}

// CleanEmail normalises an email address for storage and lookup
func CleanEmail(email string) string {
	return strings.ToLower(email)
}

// PhoneNumber is one of a contact's phone numbers
type PhoneNumber struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ContactID   uuid.UUID `json:"contact_id" gorm:"type:uuid;not null;index"`
	PhoneNumber string    `json:"phone_number" gorm:"type:varchar(50);not null"`
}

// ContactDuplicate links a contact to a potential duplicate of it
type ContactDuplicate struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ContactID      uuid.UUID `json:"contact_id" gorm:"type:uuid;not null;index"`
	OtherContactID uuid.UUID `json:"other_contact_id" gorm:"type:uuid;not null"`
	Similarity     float64   `json:"similarity" gorm:"not null"`
	OtherContact   *Contact  `json:"other_contact,omitempty" gorm:"foreignKey:OtherContactID"`
}

// TableName specifies the table name for GORM
func (ContactDuplicate) TableName() string {
	return "contact_duplicates"
}
