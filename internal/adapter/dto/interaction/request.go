package interaction

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	interactionUsecase "github.com/johnquangdev/networking/internal/usecase/interaction"
)

// WasAtLayout is the value format of a datetime-local input
const WasAtLayout = "2006-01-02T15:04"

// InteractionForm is the create form of an interaction
type InteractionForm struct {
	Title       string   `form:"title" validate:"required,max=100"`
	Description string   `form:"description"`
	WasAt       string   `form:"was_at" validate:"required"`
	ContactIDs  []string `form:"contacts" validate:"min=1,dive,uuid"`
	TypeID      string   `form:"type" validate:"omitempty,uuid"`
}

// ToInput converts the validated form, reading was_at in loc
func (f *InteractionForm) ToInput(loc *time.Location) (interactionUsecase.CreateInput, error) {
	wasAt, err := time.ParseInLocation(WasAtLayout, strings.TrimSpace(f.WasAt), loc)
	if err != nil {
		return interactionUsecase.CreateInput{}, fmt.Errorf("invalid was_at %q: %w", f.WasAt, err)
	}

	in := interactionUsecase.CreateInput{
		Title:       strings.TrimSpace(f.Title),
		Description: f.Description,
		WasAt:       wasAt,
		ContactIDs:  make([]uuid.UUID, 0, len(f.ContactIDs)),
	}
	for _, raw := range f.ContactIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return interactionUsecase.CreateInput{}, fmt.Errorf("invalid contact id %q: %w", raw, err)
		}
		in.ContactIDs = append(in.ContactIDs, id)
	}
	if f.TypeID != "" {
		id, err := uuid.Parse(f.TypeID)
		if err != nil {
			return interactionUsecase.CreateInput{}, fmt.Errorf("invalid type %q: %w", f.TypeID, err)
		}
		in.TypeID = &id
	}
	return in, nil
}

// Selected reports whether a contact id was ticked, used to re-render the form
func (f *InteractionForm) Selected(id string) bool {
	for _, c := range f.ContactIDs {
		if c == id {
			return true
		}
	}
	return false
}
