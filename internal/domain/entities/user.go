package entities

import (
	"time"

	"github.com/google/uuid"
)

// User is the owner of contacts and interactions
type User struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email    string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Name     string    `json:"name" gorm:"type:varchar(255);not null"`
	Role     UserRole  `json:"role" gorm:"type:varchar(50);default:'member';not null"`
	IsActive bool      `json:"is_active" gorm:"default:true;not null"`

	// OAuth fields. The Google token is reused by the Gmail and Calendar sync.
	OAuthProvider     *string    `json:"oauth_provider,omitempty" gorm:"column:oauth_provider;type:varchar(50);index:idx_oauth"`
	OAuthID           *string    `json:"oauth_id,omitempty" gorm:"column:oauth_id;type:varchar(255);index:idx_oauth"`
	OAuthAccessToken  *string    `json:"-" gorm:"column:oauth_access_token;type:text"`
	OAuthRefreshToken *string    `json:"-" gorm:"column:oauth_refresh_token;type:text"`
	OAuthTokenExpiry  *time.Time `json:"-" gorm:"column:oauth_token_expiry;type:timestamptz"`

	AvatarURL *string `json:"avatar_url,omitempty" gorm:"type:varchar(500)"`
	Timezone  string  `json:"timezone" gorm:"type:varchar(50);default:'UTC';not null"`

	LastLoginAt  *time.Time `json:"last_login_at,omitempty" gorm:"type:timestamptz"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty" gorm:"type:timestamptz"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// UserRole defines user roles
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "member"
)

// IsValid checks if the user role is valid
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleMember:
		return true
	}
	return false
}

// NewUser creates a new user with default values
func NewUser(email, name string) *User {
	now := time.Now()
	return &User{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		Role:      RoleMember,
		IsActive:  true,
		Timezone:  "UTC",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewOAuthUser creates a new user from OAuth provider
func NewOAuthUser(email, name, provider, oauthID string) *User {
	user := NewUser(email, name)
	user.OAuthProvider = &provider
	user.OAuthID = &oauthID
	return user
}

// UpdateLastLogin updates the last login timestamp
func (u *User) UpdateLastLogin() {
	now := time.Now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// HasGoogleToken reports whether the user granted offline Google access
func (u *User) HasGoogleToken() bool {
	return u.OAuthRefreshToken != nil && *u.OAuthRefreshToken != ""
}

// Validate validates user data
func (u *User) Validate() error {
	if u.Email == "" {
		return ErrInvalidEmail
	}
	if u.Name == "" {
		return ErrInvalidName
	}
	if !u.Role.IsValid() {
		return ErrInvalidRole
	}
	return nil
}

// PublicUser returns a user with sensitive fields removed
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic converts User to PublicUser
func (u *User) ToPublic() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}
