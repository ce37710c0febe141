package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/johnquangdev/networking/internal/domain/entities"
	"github.com/johnquangdev/networking/internal/domain/repositories"
	"github.com/johnquangdev/networking/internal/infrastructure/external/oauth"
	ucErrors "github.com/johnquangdev/networking/internal/usecase/errors"
	"github.com/johnquangdev/networking/pkg/jwt"
)

const providerGoogle = "google"

// GoogleProvider is the part of the Google OAuth provider used for login
type GoogleProvider interface {
	GetAuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
	GetUserInfo(ctx context.Context, token *oauth2.Token) (*oauth.GoogleUserInfo, error)
}

// StateManager issues and consumes OAuth state tokens
type StateManager interface {
	GenerateState() (string, error)
	ValidateState(state string) bool
}

// OAuthService handles Google login and cookie sessions
type OAuthService struct {
	userRepo     repositories.UserRepository
	sessionRepo  repositories.SessionRepository
	google       GoogleProvider
	stateManager StateManager
	jwtManager   *jwt.Manager
	logger       *zap.Logger
	now          func() time.Time
}

// NewOAuthService creates a new OAuth service. google may be nil when
// Google login is disabled.
func NewOAuthService(
	userRepo repositories.UserRepository,
	sessionRepo repositories.SessionRepository,
	google GoogleProvider,
	stateManager StateManager,
	jwtManager *jwt.Manager,
	logger *zap.Logger,
) *OAuthService {
	return &OAuthService{
		userRepo:     userRepo,
		sessionRepo:  sessionRepo,
		google:       google,
		stateManager: stateManager,
		jwtManager:   jwtManager,
		logger:       logger,
		now:          time.Now,
	}
}

// AuthResult carries the tokens of a new or refreshed session
type AuthResult struct {
	User             *entities.User
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	SessionID        string
}

// GetGoogleAuthURL generates the Google consent URL and its state token
func (s *OAuthService) GetGoogleAuthURL() (url, state string, err error) {
	if s.google == nil {
		return "", "", ucErrors.ErrOAuthDisabled
	}
	state, err = s.stateManager.GenerateState()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate state: %w", err)
	}
	return s.google.GetAuthURL(state), state, nil
}

// HandleGoogleCallback completes the OAuth flow: it validates the state,
// exchanges the code, upserts the user with their Google tokens and opens a session.
func (s *OAuthService) HandleGoogleCallback(ctx context.Context, code, state, userAgent string) (*AuthResult, error) {
	if s.google == nil {
		return nil, ucErrors.ErrOAuthDisabled
	}
	if !s.stateManager.ValidateState(state) {
		return nil, entities.ErrOAuthStateMismatch
	}

	token, err := s.google.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	info, err := s.google.GetUserInfo(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}

	user, err := s.upsertGoogleUser(ctx, info, token)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ucErrors.ErrUserNotActive
	}

	if s.logger != nil {
		s.logger.Info("user logged in",
			zap.String("user_id", user.ID.String()),
			zap.String("provider", providerGoogle),
		)
	}
	return s.openSession(ctx, user, userAgent)
}

func (s *OAuthService) upsertGoogleUser(ctx context.Context, info *oauth.GoogleUserInfo, token *oauth2.Token) (*entities.User, error) {
	user, err := s.userRepo.FindByOAuth(ctx, providerGoogle, info.ID)
	switch {
	case err == nil:
	case errors.Is(err, entities.ErrUserNotFound):
		// link an account created with the same email, otherwise register
		user, err = s.userRepo.FindByEmail(ctx, info.Email)
		if errors.Is(err, entities.ErrUserNotFound) {
			user = entities.NewOAuthUser(info.Email, displayName(info), providerGoogle, info.ID)
			applyGoogleToken(user, info, token)
			user.UpdateLastLogin()
			if err := s.userRepo.Create(ctx, user); err != nil {
				return nil, fmt.Errorf("failed to create user: %w", err)
			}
			return user, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to find user: %w", err)
		}
		provider := providerGoogle
		user.OAuthProvider = &provider
		user.OAuthID = &info.ID
	default:
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	applyGoogleToken(user, info, token)
	user.UpdateLastLogin()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func displayName(info *oauth.GoogleUserInfo) string {
	if info.Name != "" {
		return info.Name
	}
	return info.Email
}

// applyGoogleToken keeps the stored refresh token when Google sends none
func applyGoogleToken(user *entities.User, info *oauth.GoogleUserInfo, token *oauth2.Token) {
	if info.Picture != "" {
		user.AvatarURL = &info.Picture
	}
	if token == nil {
		return
	}
	access := token.AccessToken
	user.OAuthAccessToken = &access
	if token.RefreshToken != "" {
		refresh := token.RefreshToken
		user.OAuthRefreshToken = &refresh
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		user.OAuthTokenExpiry = &expiry
	}
}

func (s *OAuthService) openSession(ctx context.Context, user *entities.User, userAgent string) (*AuthResult, error) {
	now := s.now()
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Name, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	hash, err := jwt.HashToken(refreshToken)
	if err != nil {
		return nil, err
	}

	refreshExpiresAt := now.Add(s.jwtManager.GetRefreshExpiry())
	session := entities.NewSession(user.ID, hash, refreshExpiresAt)
	if userAgent != "" {
		session.WithUserAgent(userAgent)
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &AuthResult{
		User:             user,
		AccessToken:      accessToken,
		AccessExpiresAt:  now.Add(s.jwtManager.GetAccessExpiry()),
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
		SessionID:        session.ID.String(),
	}, nil
}

// ValidateSession validates an access token and loads its user
func (s *OAuthService) ValidateSession(ctx context.Context, accessToken string) (*entities.User, error) {
	claims, err := s.jwtManager.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, entities.ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, entities.ErrUnauthorized
	}
	return user, nil
}

// Refresh issues a new access token for a valid, unrevoked refresh token
func (s *OAuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	userID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, entities.ErrInvalidToken
	}

	session, err := s.findSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, entities.ErrInvalidToken
	}
	if !session.IsValid() {
		return nil, entities.ErrSessionExpired
	}

	if err := s.sessionRepo.UpdateLastUsed(ctx, session.ID); err != nil && s.logger != nil {
		s.logger.Warn("failed to update session last used", zap.String("session_id", session.ID.String()), zap.Error(err))
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, entities.ErrUnauthorized
	}

	now := s.now()
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Name, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return &AuthResult{
		User:             user,
		AccessToken:      accessToken,
		AccessExpiresAt:  now.Add(s.jwtManager.GetAccessExpiry()),
		RefreshToken:     refreshToken,
		RefreshExpiresAt: session.ExpiresAt,
		SessionID:        session.ID.String(),
	}, nil
}

// Logout revokes the session of a refresh token. Unknown tokens are ignored.
func (s *OAuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	session, err := s.findSession(ctx, refreshToken)
	if errors.Is(err, entities.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.sessionRepo.Revoke(ctx, session.ID)
}

func (s *OAuthService) findSession(ctx context.Context, refreshToken string) (*entities.Session, error) {
	hash, err := jwt.HashToken(refreshToken)
	if err != nil {
		return nil, entities.ErrInvalidToken
	}
	session, err := s.sessionRepo.FindByTokenHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	return session, nil
}
