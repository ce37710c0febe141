package contact

import (
	"strconv"
	"strings"

	"github.com/johnquangdev/networking/internal/domain/entities"
	contactUsecase "github.com/johnquangdev/networking/internal/usecase/contact"
)

// ContactForm is the create and edit form of a contact
type ContactForm struct {
	Name            string `form:"name" validate:"required,max=50"`
	FrequencyInDays string `form:"frequency_in_days" validate:"omitempty,number,max=5"`
	Description     string `form:"description"`
	LinkedinURL     string `form:"linkedin_url" validate:"omitempty,url,max=100"`
	TwitterURL      string `form:"twitter_url" validate:"omitempty,url,max=100"`
}

// ToInput converts the validated form. Empty optional fields become nil.
func (f *ContactForm) ToInput() (contactUsecase.Input, error) {
	in := contactUsecase.Input{
		Name:        strings.TrimSpace(f.Name),
		Description: optional(f.Description),
		LinkedinURL: optional(f.LinkedinURL),
		TwitterURL:  optional(f.TwitterURL),
	}
	if raw := strings.TrimSpace(f.FrequencyInDays); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return in, err
		}
		in.FrequencyInDays = &n
	}
	return in, nil
}

// FormFromContact pre-fills the edit form
func FormFromContact(c *entities.Contact) ContactForm {
	f := ContactForm{Name: c.Name}
	if c.FrequencyInDays != nil {
		f.FrequencyInDays = strconv.Itoa(*c.FrequencyInDays)
	}
	if c.Description != nil {
		f.Description = *c.Description
	}
	if c.LinkedinURL != nil {
		f.LinkedinURL = *c.LinkedinURL
	}
	if c.TwitterURL != nil {
		f.TwitterURL = *c.TwitterURL
	}
	return f
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
