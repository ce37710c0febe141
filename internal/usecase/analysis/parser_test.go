package analysis

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/networking/internal/domain/entities"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "Here:\n```json\n{\"a\":1}\n```\nBye", "\n{\"a\":1}\n"},
		{"bare fence", "```\n{\"a\":1}\n```", "\n{\"a\":1}\n"},
		{"raw", `{"a":1}`, `{"a":1}`},
		{"unterminated fence", "```json{\"a\":1}", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}

func TestParseResponse_Defaults(t *testing.T) {
	res, err := ParseResponse(`{"topics_discussed": ["golf"]}`)
	require.NoError(t, err)

	assert.Equal(t, []string{"golf"}, res.TopicsDiscussed)
	assert.Empty(t, res.ActionItems)
	assert.NotNil(t, res.ActionItems)
	assert.Empty(t, res.KeyInsights)
	require.NotNil(t, res.SentimentScore)
	assert.Equal(t, 0.0, *res.SentimentScore)
	require.NotNil(t, res.FollowUpNeeded)
	assert.False(t, *res.FollowUpNeeded)
	assert.Empty(t, res.PersonalInfoMentioned)
	assert.Equal(t, "", res.ConversationContext)
}

func TestParseResponse_NullScoreStaysUnscored(t *testing.T) {
	res, err := ParseResponse("```json\n{\"sentiment_score\": null}\n```")
	require.NoError(t, err)
	assert.Nil(t, res.SentimentScore)
	assert.Equal(t, entities.SentimentNeutral, entities.NewSentiment(res.SentimentScore).Category)
}

func TestParseResponse_InvalidJSON(t *testing.T) {
	_, err := ParseResponse("I could not analyse that.")
	assert.Error(t, err)
}

func TestParseFollowUpDate(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	base := time.Date(2024, 5, 1, 14, 30, 15, 0, loc)

	got, err := ParseFollowUpDate("2024-05-20", base)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 5, 20, 14, 30, 15, 0, loc)))
	assert.Equal(t, loc, got.Location())

	for _, bad := range []string{"", "next week", "2024/05/20"} {
		got, err = ParseFollowUpDate(bad, base)
		assert.Error(t, err, bad)
		assert.True(t, got.Equal(base.AddDate(0, 0, 7)), bad)
	}
}

func TestNewAnalysis(t *testing.T) {
	score := 0.4
	follow := true
	res := &entities.AnalysisResult{
		TopicsDiscussed:       []string{"kids"},
		ActionItems:           []string{"send photos"},
		KeyInsights:           []string{},
		SentimentScore:        &score,
		FollowUpNeeded:        &follow,
		PersonalInfoMentioned: map[string]any{"family": "two kids", "age": 42.0},
		ConversationContext:   "catching up",
	}
	id := uuid.New()
	when := time.Date(2024, 5, 8, 9, 0, 0, 0, time.UTC)

	a := NewAnalysis(id, res, when, "test-model")

	assert.Equal(t, id, a.InteractionID)
	assert.Equal(t, []string{"send photos"}, []string(a.ActionItems))
	assert.True(t, a.FollowUpNeeded)
	assert.Equal(t, map[string]string{"family": "two kids", "age": "42"}, a.PersonalInfo())
	assert.Equal(t, "catching up", a.Context())
	assert.Equal(t, "test-model", a.AnalysisVersion)
	assert.Equal(t, entities.SentimentPositive, a.Sentiment().Category)
}
