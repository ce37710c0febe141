package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/johnquangdev/networking/internal/domain/entities"
)

// DefaultFollowUpDelay is used when the suggested follow-up date cannot be parsed
const DefaultFollowUpDelay = 7 * 24 * time.Hour

// ExtractJSON returns the JSON payload of a reply that may wrap it in a
// markdown code fence.
func ExtractJSON(text string) string {
	for _, fence := range []string{"```json", "```"} {
		if _, after, ok := strings.Cut(text, fence); ok {
			body, _, _ := strings.Cut(after, "```")
			return body
		}
	}
	return text
}

// ParseResponse decodes the LLM reply and fills in defaults for missing fields
func ParseResponse(text string) (*entities.AnalysisResult, error) {
	payload := []byte(ExtractJSON(text))

	var result entities.AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, err
	}

	// an explicit null score is kept as "not scored"
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}
	if _, ok := fields["sentiment_score"]; !ok {
		zero := 0.0
		result.SentimentScore = &zero
	}

	if result.TopicsDiscussed == nil {
		result.TopicsDiscussed = []string{}
	}
	if result.ActionItems == nil {
		result.ActionItems = []string{}
	}
	if result.KeyInsights == nil {
		result.KeyInsights = []string{}
	}
	if result.FollowUpNeeded == nil {
		f := false
		result.FollowUpNeeded = &f
	}
	if result.PersonalInfoMentioned == nil {
		result.PersonalInfoMentioned = map[string]any{}
	}
	return &result, nil
}

// ParseFollowUpDate combines a YYYY-MM-DD date with the clock and zone of
// base. On failure it returns base plus DefaultFollowUpDelay and the parse error.
func ParseFollowUpDate(date string, base time.Time) (time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return base.Add(DefaultFollowUpDelay), fmt.Errorf("failed to parse follow-up date %q: %w", date, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(),
		base.Hour(), base.Minute(), base.Second(), base.Nanosecond(), base.Location()), nil
}

// NewAnalysis builds the stored analysis of an interaction from a parsed result
func NewAnalysis(interactionID uuid.UUID, result *entities.AnalysisResult, followUp time.Time, version string) *entities.InteractionAnalysis {
	info := make(map[string]string, len(result.PersonalInfoMentioned))
	for k, v := range result.PersonalInfoMentioned {
		if s, ok := v.(string); ok {
			info[k] = s
			continue
		}
		info[k] = fmt.Sprint(v)
	}

	conversation := result.ConversationContext
	now := time.Now()
	return &entities.InteractionAnalysis{
		ID:                    uuid.New(),
		InteractionID:         interactionID,
		TopicsDiscussed:       datatypes.JSONSlice[string](result.TopicsDiscussed),
		ActionItems:           datatypes.JSONSlice[string](result.ActionItems),
		KeyInsights:           datatypes.JSONSlice[string](result.KeyInsights),
		SentimentScore:        result.SentimentScore,
		FollowUpNeeded:        result.FollowUpNeeded != nil && *result.FollowUpNeeded,
		SuggestedFollowUpDate: &followUp,
		PersonalInfoMentioned: datatypes.NewJSONType(info),
		ConversationContext:   &conversation,
		CreatedAt:             now,
		LastUpdated:           now,
		AnalysisVersion:       version,
	}
}
