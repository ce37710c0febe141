package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/johnquangdev/networking/internal/domain/entities"
)

// SessionRepository defines the interface for session data access
type SessionRepository interface {
	// Create creates a new session
	Create(ctx context.Context, session *entities.Session) error

	// FindByID finds a session by ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Session, error)

	// FindByTokenHash finds an unrevoked session by refresh token hash
	FindByTokenHash(ctx context.Context, tokenHash string) (*entities.Session, error)

	// UpdateLastUsed updates the last used timestamp
	UpdateLastUsed(ctx context.Context, sessionID uuid.UUID) error

	// Revoke revokes a session
	Revoke(ctx context.Context, sessionID uuid.UUID) error

	// DeleteExpired deletes sessions that expired before the given time
	DeleteExpired(ctx context.Context, before time.Time) error
}
