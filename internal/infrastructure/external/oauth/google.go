package oauth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const (
	ScopeGmailReadonly    = "https://www.googleapis.com/auth/gmail.readonly"
	ScopeCalendarReadonly = "https://www.googleapis.com/auth/calendar.readonly"
)

// GoogleProvider handles Google OAuth2 login and hands out API clients for sync
type GoogleProvider struct {
	config  *oauth2.Config
	apiOpts []option.ClientOption
}

// GoogleUserInfo represents the user information from Google
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale"`
}

// NewGoogleProvider creates a new Google OAuth provider. Besides the profile
// it asks for read-only Gmail and Calendar access used by the sync.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
				ScopeGmailReadonly,
				ScopeCalendarReadonly,
			},
			Endpoint: google.Endpoint,
		},
	}
}

// GetAuthURL returns the OAuth authorization URL
func (g *GoogleProvider) GetAuthURL(state string) string {
	return g.config.AuthCodeURL(
		state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// ExchangeCode exchanges the authorization code for tokens
func (g *GoogleProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return token, nil
}

// GetUserInfo retrieves user information from Google using the access token
func (g *GoogleProvider) GetUserInfo(ctx context.Context, token *oauth2.Token) (*GoogleUserInfo, error) {
	opts := append([]option.ClientOption{option.WithTokenSource(g.config.TokenSource(ctx, token))}, g.apiOpts...)
	svc, err := googleoauth.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}

	userInfo := &GoogleUserInfo{
		ID:      info.Id,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
		Locale:  info.Locale,
	}
	if info.VerifiedEmail != nil {
		userInfo.VerifiedEmail = *info.VerifiedEmail
	}
	return userInfo, nil
}

// TokenSource returns a source that refreshes token when it expires
func (g *GoogleProvider) TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource {
	return g.config.TokenSource(ctx, token)
}
