package entities

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxInteractionTitleLength is the maximum title length in characters
const MaxInteractionTitleLength = 100

// InteractionType classifies interactions (call, meeting, email, ...)
type InteractionType struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Slug        string    `json:"slug" gorm:"type:varchar(50);uniqueIndex;not null"`
	Name        string    `json:"name" gorm:"type:varchar(50);not null"`
	Description string    `json:"description" gorm:"type:varchar(250)"`
}

// Interaction is a recorded touchpoint with one or more contacts
type Interaction struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID      uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	TypeID      *uuid.UUID `json:"type_id,omitempty" gorm:"type:uuid;index"`
	Title       string     `json:"title" gorm:"type:varchar(100);not null"`
	Description string     `json:"description" gorm:"type:text;not null;default:''"`
	WasAt       time.Time  `json:"was_at" gorm:"type:timestamptz;not null;index"`

	Type     *InteractionType     `json:"type,omitempty" gorm:"foreignKey:TypeID;constraint:OnDelete:SET NULL"`
	Contacts []*Contact           `json:"contacts,omitempty" gorm:"many2many:interaction_contacts;"`
	Analysis *InteractionAnalysis `json:"analysis,omitempty" gorm:"foreignKey:InteractionID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewInteraction creates an interaction owned by userID
func NewInteraction(userID uuid.UUID, title, description string, wasAt time.Time) *Interaction {
	now := time.Now()
	return &Interaction{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		WasAt:       wasAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate validates interaction data
func (i *Interaction) Validate() error {
	n := utf8.RuneCountInString(i.Title)
	if n == 0 || n > MaxInteractionTitleLength {
		return ErrInvalidTitle
	}
	return nil
}

// ContactNames returns the names of the attached contacts in order
func (i *Interaction) ContactNames() []string {
	names := make([]string, 0, len(i.Contacts))
	for _, c := range i.Contacts {
		names = append(names, c.Name)
	}
	return names
}

// HasAnalysis reports whether an analysis has been stored for the interaction
func (i *Interaction) HasAnalysis() bool {
	return i.Analysis != nil
}
