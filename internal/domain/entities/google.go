package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GoogleEmail is a Gmail message fetched during sync, kept as raw metadata
type GoogleEmail struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID         uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_gmail_message"`
	InteractionID  *uuid.UUID     `json:"interaction_id,omitempty" gorm:"type:uuid;index"`
	GmailMessageID string         `json:"gmail_message_id" gorm:"type:varchar(100);not null;uniqueIndex:idx_user_gmail_message"`
	Data           datatypes.JSON `json:"data" gorm:"type:jsonb;not null"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

// GoogleCalendarEvent is a calendar event fetched during sync, kept as raw data
type GoogleCalendarEvent struct {
	ID               uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID           uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_calendar_event"`
	InteractionID    *uuid.UUID     `json:"interaction_id,omitempty" gorm:"type:uuid;index"`
	GoogleCalendarID string         `json:"google_calendar_id" gorm:"type:varchar(100);not null;uniqueIndex:idx_user_calendar_event"`
	Data             datatypes.JSON `json:"data" gorm:"type:jsonb;not null"`
	CreatedAt        time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}
