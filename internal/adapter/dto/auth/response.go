package auth

import "time"

// UserResponse represents user information in responses
type UserResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	OAuthProvider string     `json:"oauth_provider"`
	GoogleSync    bool       `json:"google_sync"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	LastSyncedAt  *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// SessionResponse represents a new or refreshed session
type SessionResponse struct {
	AccessToken string        `json:"access_token"`
	ExpiresIn   int           `json:"expires_in"` // seconds
	TokenType   string        `json:"token_type"` // "Bearer"
	User        *UserResponse `json:"user,omitempty"`
}
