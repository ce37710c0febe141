package analysis

import "time"

// SentimentResponse is the display classification of a sentiment score
type SentimentResponse struct {
	Score          *float64 `json:"score"`
	Percentage     float64  `json:"percentage"`
	Category       string   `json:"category"`
	Label          string   `json:"label"`
	NeedsAttention bool     `json:"needs_attention"`
}

// AnalysisResponse represents the stored analysis of an interaction
type AnalysisResponse struct {
	InteractionID         string            `json:"interaction_id"`
	Sentiment             SentimentResponse `json:"sentiment"`
	KeyInsights           []string          `json:"key_insights"`
	ActionItems           []string          `json:"action_items"`
	TopicsDiscussed       []string          `json:"topics_discussed"`
	FollowUpNeeded        bool              `json:"follow_up_needed"`
	SuggestedFollowUpDate *time.Time        `json:"suggested_follow_up_date,omitempty"`
	ConversationContext   string            `json:"conversation_context"`
	PersonalInfoMentioned map[string]string `json:"personal_info_mentioned"`
	AnalysisVersion       string            `json:"analysis_version"`
	CreatedAt             time.Time         `json:"created_at"`
}

// JobResponse reports the state of the latest analysis job
type JobResponse struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	Attempts  int        `json:"attempts"`
	LastError string     `json:"last_error,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}
