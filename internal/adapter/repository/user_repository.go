package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/networking/internal/domain/entities"
)

// UserRepository implements the user repository interface using GORM
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return &user, nil
}

// FindByOAuth finds a user by OAuth provider and ID
func (r *UserRepository) FindByOAuth(ctx context.Context, provider, oauthID string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).
		Where("oauth_provider = ? AND oauth_id = ?", provider, oauthID).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by OAuth: %w", err)
	}
	return &user, nil
}

// Update updates a user
func (r *UserRepository) Update(ctx context.Context, user *entities.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// UpdateOAuthToken stores a refreshed Google token. An empty refresh token
// keeps the stored one, Google only returns it on first consent.
func (r *UserRepository) UpdateOAuthToken(ctx context.Context, userID uuid.UUID, accessToken, refreshToken string, expiry time.Time) error {
	updates := map[string]interface{}{
		"oauth_access_token": accessToken,
		"oauth_token_expiry": expiry,
		"updated_at":         time.Now(),
	}
	if refreshToken != "" {
		updates["oauth_refresh_token"] = refreshToken
	}
	if err := r.db.WithContext(ctx).
		Model(&entities.User{}).
		Where("id = ?", userID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update OAuth token: %w", err)
	}
	return nil
}

// ListWithGoogleToken returns active users that granted offline Google access
func (r *UserRepository) ListWithGoogleToken(ctx context.Context) ([]*entities.User, error) {
	var users []*entities.User
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND oauth_refresh_token IS NOT NULL AND oauth_refresh_token <> ''", true).
		Order("created_at ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users with google token: %w", err)
	}
	return users, nil
}

// ListActive returns all active users
func (r *UserRepository) ListActive(ctx context.Context) ([]*entities.User, error) {
	var users []*entities.User
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	return users, nil
}
