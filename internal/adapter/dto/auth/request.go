package auth

// RefreshTokenRequest represents the request to refresh access token.
// Browsers may omit it and rely on the refresh cookie.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}
