package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AnalysisResult is the structured JSON object requested from the LLM.
// Pointer fields distinguish "absent" from zero values so defaults can be applied.
type AnalysisResult struct {
	TopicsDiscussed       []string       `json:"topics_discussed"`
	ActionItems           []string       `json:"action_items"`
	KeyInsights           []string       `json:"key_insights"`
	SentimentScore        *float64       `json:"sentiment_score"`
	FollowUpNeeded        *bool          `json:"follow_up_needed"`
	SuggestedFollowUpDate string         `json:"suggested_follow_up_date"`
	PersonalInfoMentioned map[string]any `json:"personal_info_mentioned"`
	ConversationContext   string         `json:"conversation_context"`
}

// InteractionAnalysis is the stored LLM analysis of one interaction
type InteractionAnalysis struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	InteractionID uuid.UUID `json:"interaction_id" gorm:"type:uuid;not null;uniqueIndex"`

	TopicsDiscussed datatypes.JSONSlice[string] `json:"topics_discussed" gorm:"type:jsonb;not null;default:'[]'"`
	ActionItems     datatypes.JSONSlice[string] `json:"action_items" gorm:"type:jsonb;not null;default:'[]'"`
	KeyInsights     datatypes.JSONSlice[string] `json:"key_insights" gorm:"type:jsonb;not null;default:'[]'"`

	// SentimentScore is nominally in [-1, 1]; nil means not scored.
	SentimentScore        *float64   `json:"sentiment_score" gorm:"index:analysis_sentiment_idx"`
	FollowUpNeeded        bool       `json:"follow_up_needed" gorm:"not null;default:false;index:analysis_needsfollowup_idx"`
	SuggestedFollowUpDate *time.Time `json:"suggested_follow_up_date,omitempty" gorm:"type:timestamptz;index:analysis_followup_idx"`

	PersonalInfoMentioned datatypes.JSONType[map[string]string] `json:"personal_info_mentioned" gorm:"type:jsonb;not null;default:'{}'"`
	ConversationContext   *string                               `json:"conversation_context,omitempty" gorm:"type:text"`

	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime;index:analysis_dates_idx,priority:1"`
	LastUpdated     time.Time `json:"last_updated" gorm:"autoUpdateTime;index:analysis_dates_idx,priority:2"`
	AnalysisVersion string    `json:"analysis_version" gorm:"type:varchar(50);not null"`
}

// TableName specifies the table name for GORM
func (InteractionAnalysis) TableName() string {
	return "interaction_analyses"
}

// PersonalInfo returns the personal information map, never nil
func (a *InteractionAnalysis) PersonalInfo() map[string]string {
	m := a.PersonalInfoMentioned.Data()
	if m == nil {
		return map[string]string{}
	}
	return m
}

// Context returns the conversation context or an empty string
func (a *InteractionAnalysis) Context() string {
	if a.ConversationContext == nil {
		return ""
	}
	return *a.ConversationContext
}

// Sentiment returns the display classification of the stored score
func (a *InteractionAnalysis) Sentiment() Sentiment {
	return NewSentiment(a.SentimentScore)
}
