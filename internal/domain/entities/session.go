package entities

import (
	"time"

	"github.com/google/uuid"
)

// Session is a refresh-token backed browser session
type Session struct {
	ID               uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID           uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	RefreshTokenHash string     `json:"-" gorm:"column:refresh_token_hash;type:varchar(64);uniqueIndex;not null"`
	CreatedAt        time.Time  `json:"created_at" gorm:"autoCreateTime"`
	ExpiresAt        time.Time  `json:"expires_at" gorm:"type:timestamptz;not null;index"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty" gorm:"type:timestamptz"`
	LastUsedAt       *time.Time `json:"last_used_at,omitempty" gorm:"type:timestamptz"`
	UserAgent        *string    `json:"user_agent,omitempty" gorm:"type:text"`
}

// NewSession creates a new session for a hashed refresh token
func NewSession(userID uuid.UUID, refreshTokenHash string, expiresAt time.Time) *Session {
	return &Session{
		ID:               uuid.New(),
		UserID:           userID,
		RefreshTokenHash: refreshTokenHash,
		ExpiresAt:        expiresAt,
		CreatedAt:        time.Now(),
	}
}

// IsExpired checks if session is expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsValid checks if session is valid (not expired and not revoked)
func (s *Session) IsValid() bool {
	if s == nil {
		return false
	}
	return !s.IsExpired() && s.RevokedAt == nil
}

// WithUserAgent records the client that opened the session
func (s *Session) WithUserAgent(userAgent string) *Session {
	if userAgent != "" {
		s.UserAgent = &userAgent
	}
	return s
}
