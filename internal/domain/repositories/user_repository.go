package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/johnquangdev/networking/internal/domain/entities"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *entities.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*entities.User, error)

	// FindByOAuth finds a user by OAuth provider and ID
	FindByOAuth(ctx context.Context, provider, oauthID string) (*entities.User, error)

	// Update updates a user
	Update(ctx context.Context, user *entities.User) error

	// UpdateOAuthToken stores a refreshed Google token
	UpdateOAuthToken(ctx context.Context, userID uuid.UUID, accessToken, refreshToken string, expiry time.Time) error

	// ListWithGoogleToken returns active users that granted offline Google access
	ListWithGoogleToken(ctx context.Context) ([]*entities.User, error)

	// ListActive returns all active users
	ListActive(ctx context.Context) ([]*entities.User, error)
}
