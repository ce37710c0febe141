package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contactForm struct {
	Name      string `form:"name" validate:"required,max=50"`
	Frequency *int   `form:"frequency_in_days" validate:"omitempty,min=1"`
	Linkedin  string `form:"linkedin_url" validate:"omitempty,url,max=100"`
}

func TestFieldErrors(t *testing.T) {
	v := New()
	zero := 0
	err := v.Validate(contactForm{Frequency: &zero, Linkedin: "not a url"})
	require.Error(t, err)

	fields := FieldErrors(err)
	assert.Equal(t, "This field is required.", fields["name"])
	assert.Equal(t, "Ensure this value is greater than or equal to 1.", fields["frequency_in_days"])
	assert.Equal(t, "Enter a valid URL.", fields["linkedin_url"])
}

func TestFieldErrors_NotValidation(t *testing.T) {
	assert.Nil(t, FieldErrors(errors.New("boom")))
	assert.NoError(t, New().Validate(contactForm{Name: "Ada"}))
}
