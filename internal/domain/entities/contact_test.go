package entities

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func days(n int) *int { return &n }

func contactWith(freq *int, lastAt ...time.Time) *Contact {
	c := NewContact(uuid.New(), "Ada", freq)
	for _, at := range lastAt {
		c.Interactions = append(c.Interactions, &Interaction{ID: uuid.New(), WasAt: at})
	}
	return c
}

func TestContact_WithoutFrequencyIsHidden(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for _, c := range []*Contact{contactWith(nil), contactWith(days(0))} {
		assert.Equal(t, 0, c.UrgencyAt(now))
		assert.Nil(t, c.DueDateAt(now))
		assert.Equal(t, ContactStatusHidden, c.StatusAt(now))
	}
}

func TestContact_UrgencyFromLastInteraction(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := contactWith(days(7), now.AddDate(0, 0, -20), now.AddDate(0, 0, -10))

	assert.Equal(t, 3, c.UrgencyAt(now))
	assert.Equal(t, ContactStatusOutOfTouch, c.StatusAt(now))

	due := c.DueDateAt(now)
	require.NotNil(t, due)
	assert.True(t, due.Equal(now.AddDate(0, 0, -3)))
}

func TestContact_PartialDaysAreFloored(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := contactWith(days(7), now.Add(-(7*24*time.Hour + 23*time.Hour)))

	assert.Equal(t, 0, c.UrgencyAt(now))
	assert.Equal(t, ContactStatusInTouch, c.StatusAt(now))
}

func TestContact_NoInteractionsUsesDefaultAge(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := contactWith(days(30))

	assert.Equal(t, 365-30, c.UrgencyAt(now))
	assert.True(t, c.LastInteractionDateOrDefault(now).Equal(now.Add(-LastInteractionDefaultAge)))
}

func TestContact_FutureInteractionKeepsInTouch(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := contactWith(days(7), now.AddDate(0, 0, 2))

	assert.Less(t, c.UrgencyAt(now), 0)
	assert.Equal(t, ContactStatusInTouch, c.StatusAt(now))
}

func TestParseContactStatus(t *testing.T) {
	s, err := ParseContactStatus("2")
	require.NoError(t, err)
	assert.Equal(t, ContactStatusOutOfTouch, s)

	s, err = ParseContactStatus("-1")
	require.NoError(t, err)
	assert.Equal(t, ContactStatusHidden, s)

	_, err = ParseContactStatus("3")
	assert.ErrorIs(t, err, ErrInvalidContactStatus)
	_, err = ParseContactStatus("abc")
	assert.ErrorIs(t, err, ErrInvalidContactStatus)
}

func TestCleanEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", CleanEmail("Ada@Example.COM"))
}

func TestInteraction_Validate(t *testing.T) {
	i := NewInteraction(uuid.New(), "", "", time.Now())
	assert.ErrorIs(t, i.Validate(), ErrInvalidTitle)

	long := make([]rune, MaxInteractionTitleLength+1)
	for k := range long {
		long[k] = 'ä'
	}
	i.Title = string(long)
	assert.ErrorIs(t, i.Validate(), ErrInvalidTitle)

	i.Title = string(long[:MaxInteractionTitleLength])
	assert.NoError(t, i.Validate())
}
