package presenter

import (
	"time"

	authDTO "github.com/johnquangdev/networking/internal/adapter/dto/auth"
	"github.com/johnquangdev/networking/internal/domain/entities"
	"github.com/johnquangdev/networking/internal/usecase/auth"
)

// ToUserResponse converts a User entity to UserResponse DTO
func ToUserResponse(u *entities.User) *authDTO.UserResponse {
	if u == nil {
		return nil
	}

	response := &authDTO.UserResponse{
		ID:           u.ID.String(),
		Email:        u.Email,
		Name:         u.Name,
		GoogleSync:   u.HasGoogleToken(),
		LastLoginAt:  u.LastLoginAt,
		LastSyncedAt: u.LastSyncedAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}

	// Set optional fields
	if u.AvatarURL != nil {
		response.AvatarURL = *u.AvatarURL
	}
	if u.OAuthProvider != nil {
		response.OAuthProvider = *u.OAuthProvider
	}

	return response
}

// ToSessionResponse converts a usecase AuthResult to the session DTO
func ToSessionResponse(result *auth.AuthResult, now time.Time) *authDTO.SessionResponse {
	if result == nil {
		return nil
	}
	return &authDTO.SessionResponse{
		AccessToken: result.AccessToken,
		ExpiresIn:   int(result.AccessExpiresAt.Sub(now).Seconds()),
		TokenType:   "Bearer",
		User:        ToUserResponse(result.User),
	}
}
