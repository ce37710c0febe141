package entities

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisJobStatus represents the status of an analysis job
type AnalysisJobStatus string

const (
	AnalysisJobStatusPending    AnalysisJobStatus = "pending"
	AnalysisJobStatusProcessing AnalysisJobStatus = "processing"
	AnalysisJobStatusCompleted  AnalysisJobStatus = "completed"
	AnalysisJobStatusFailed     AnalysisJobStatus = "failed"
	AnalysisJobStatusSkipped    AnalysisJobStatus = "skipped" // analysis already existed
)

// AnalysisJob tracks one queued analysis of an interaction
type AnalysisJob struct {
	ID            uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	InteractionID uuid.UUID         `json:"interaction_id" gorm:"type:uuid;not null;index"`
	Status        AnalysisJobStatus `json:"status" gorm:"type:varchar(20);not null;index;default:'pending'"`
	Attempts      int               `json:"attempts" gorm:"type:integer;not null;default:0"`
	MaxAttempts   int               `json:"max_attempts" gorm:"type:integer;not null;default:3"`
	LastError     *string           `json:"last_error,omitempty" gorm:"type:text"`
	ArchiveKey    *string           `json:"archive_key,omitempty" gorm:"type:varchar(255)"`

	StartedAt   *time.Time `json:"started_at,omitempty" gorm:"type:timestamptz"`
	CompletedAt *time.Time `json:"completed_at,omitempty" gorm:"type:timestamptz"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewAnalysisJob creates a pending job for interactionID
func NewAnalysisJob(interactionID uuid.UUID, maxAttempts int) *AnalysisJob {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	now := time.Now()
	return &AnalysisJob{
		ID:            uuid.New(),
		InteractionID: interactionID,
		Status:        AnalysisJobStatusPending,
		MaxAttempts:   maxAttempts,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsRetryable checks if a failed job may be attempted again
func (j *AnalysisJob) IsRetryable() bool {
	return j.Status == AnalysisJobStatusFailed && j.Attempts < j.MaxAttempts
}

// IsFinished reports whether the job reached a terminal state
func (j *AnalysisJob) IsFinished() bool {
	switch j.Status {
	case AnalysisJobStatusCompleted, AnalysisJobStatusSkipped:
		return true
	case AnalysisJobStatusFailed:
		return !j.IsRetryable()
	}
	return false
}

// TableName specifies the table name for GORM
func (AnalysisJob) TableName() string {
	return "analysis_jobs"
}
