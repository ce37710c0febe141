package presenter

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/johnquangdev/networking/internal/domain/entities"
)

func score(v float64) *float64 { return &v }

func TestToSentimentView(t *testing.T) {
	v := ToSentimentView(score(-0.3))
	assert.Equal(t, "35", v.Value)
	assert.Equal(t, "negative", v.Category)
	assert.Equal(t, "Needs Attention", v.Label)
	assert.True(t, v.NeedsAttention)

	v = ToSentimentView(score(0.3))
	assert.Equal(t, "65", v.Value)
	assert.Equal(t, "Positive", v.Label)
	assert.False(t, v.NeedsAttention)

	v = ToSentimentView(score(0.2))
	assert.Equal(t, "60", v.Value)
	assert.Equal(t, "Neutral", v.Label)

	v = ToSentimentView(nil)
	assert.Equal(t, "50", v.Value)
	assert.Equal(t, "neutral", v.Category)
}

func TestToInteractionView(t *testing.T) {
	user := uuid.New()
	ada := entities.NewContact(user, "Ada", nil)
	i := entities.NewInteraction(user, "Lunch", "Talked about work", time.Date(2024, 5, 2, 13, 30, 0, 0, time.UTC))
	i.Contacts = []*entities.Contact{ada}

	v := ToInteractionView(i, time.UTC)
	assert.Equal(t, "May 2, 2024, 1:30 PM", v.WasAt)
	require.Len(t, v.Contacts, 1)
	assert.Equal(t, "/contacts/"+ada.ID.String(), v.Contacts[0].URL)
	assert.Nil(t, v.Analysis)

	follow := time.Date(2024, 5, 9, 13, 30, 0, 0, time.UTC)
	i.Analysis = &entities.InteractionAnalysis{
		InteractionID:         i.ID,
		ActionItems:           datatypes.JSONSlice[string]{"Send slides", "Book dinner"},
		SentimentScore:        score(-1),
		FollowUpNeeded:        true,
		SuggestedFollowUpDate: &follow,
		PersonalInfoMentioned: datatypes.NewJSONType(map[string]string{"pets": "cat", "family": "two kids"}),
	}

	v = ToInteractionView(i, time.UTC)
	require.NotNil(t, v.Analysis)
	assert.Equal(t, []ActionItem{{ID: "action-1", Text: "Send slides"}, {ID: "action-2", Text: "Book dinner"}}, v.Analysis.ActionItems)
	assert.Equal(t, "May 9, 2024", v.Analysis.FollowUpDate)
	assert.True(t, v.Analysis.Sentiment.NeedsAttention)
	assert.Equal(t, []KeyValue{{"family", "two kids"}, {"pets", "cat"}}, v.Analysis.PersonalInfo)
}

func TestToAnalysisResponse_EmptyListsAreNotNull(t *testing.T) {
	r := ToAnalysisResponse(&entities.InteractionAnalysis{InteractionID: uuid.New()})
	assert.Equal(t, []string{}, r.KeyInsights)
	assert.Equal(t, map[string]string{}, r.PersonalInfoMentioned)
	assert.InDelta(t, 50.0, r.Sentiment.Percentage, 1e-9)
	assert.Nil(t, r.Sentiment.Score)
}

func TestToContactRow(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	freq := 7
	c := entities.NewContact(uuid.New(), "Ada", &freq)
	c.Interactions = []*entities.Interaction{{ID: uuid.New(), WasAt: now.AddDate(0, 0, -10)}}

	row := ToContactRow(c, now, time.UTC)
	assert.Equal(t, "Out of touch", row.Status)
	assert.Equal(t, "out_of_touch", row.StatusClass)
	assert.Equal(t, 3, row.Urgency)
	assert.Equal(t, "May 29, 2024", row.DueDate)
	assert.Equal(t, "May 22, 2024", row.LastInteraction)

	s := ToStatusResponse(c, now)
	assert.Equal(t, 2, s.StatusCode)
	require.NotNil(t, s.LastInteraction)
}
