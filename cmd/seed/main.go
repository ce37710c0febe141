package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/networking/internal/bootstrap"
	"github.com/johnquangdev/networking/internal/domain/entities"
	"github.com/johnquangdev/networking/pkg/config"
	pkgjwt "github.com/johnquangdev/networking/pkg/jwt"
)

// seed creates local development users with a few contacts and prints
// session tokens for them, so the app can be used without Google login.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatalf("Refusing to seed a production database")
	}

	logger, err := bootstrap.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	infra, err := bootstrap.Open(ctx, cfg, false, logger)
	if err != nil {
		logger.Fatal("failed to initialize infrastructure", zap.Error(err))
	}
	defer infra.Close(logger)
	repos := infra.Repos

	jwtManager := pkgjwt.NewManager(
		cfg.AccessSecret(),
		cfg.RefreshSecret(),
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)

	testUsers := []struct {
		Email    string
		Name     string
		Contacts []string
	}{
		{Email: "alice@test.local", Name: "Alice", Contacts: []string{"bob@test.local", "charlie@test.local"}},
		{Email: "bob@test.local", Name: "Bob", Contacts: []string{"alice@test.local", "diana@test.local"}},
	}

	for i, tu := range testUsers {
		user, err := repos.Users.FindByEmail(ctx, tu.Email)
		switch {
		case errors.Is(err, entities.ErrUserNotFound):
			user = entities.NewUser(tu.Email, tu.Name)
			if err := repos.Users.Create(ctx, user); err != nil {
				logger.Error("failed to create user", zap.String("email", tu.Email), zap.Error(err))
				continue
			}
			for _, email := range tu.Contacts {
				if err := createContact(ctx, repos, user.ID, email); err != nil {
					logger.Error("failed to create contact", zap.String("email", email), zap.Error(err))
				}
			}
		case err != nil:
			logger.Error("failed to look up user", zap.String("email", tu.Email), zap.Error(err))
			continue
		}

		accessToken, err := jwtManager.GenerateAccessToken(user.ID, user.Email, user.Name, string(user.Role))
		if err != nil {
			logger.Error("failed to generate access token", zap.String("email", tu.Email), zap.Error(err))
			continue
		}
		refreshToken, err := jwtManager.GenerateRefreshToken(user.ID)
		if err != nil {
			logger.Error("failed to generate refresh token", zap.String("email", tu.Email), zap.Error(err))
			continue
		}
		hash, err := pkgjwt.HashToken(refreshToken)
		if err != nil {
			logger.Error("failed to hash refresh token", zap.Error(err))
			continue
		}
		session := entities.NewSession(user.ID, hash, time.Now().Add(cfg.JWT.RefreshExpiry))
		if err := repos.Sessions.Create(ctx, session); err != nil {
			logger.Error("failed to create session", zap.String("email", tu.Email), zap.Error(err))
			continue
		}

		fmt.Printf("═══════════════════════════════════════════════════════════════\n")
		fmt.Printf("User %d: %s\n", i+1, user.Name)
		fmt.Printf("═══════════════════════════════════════════════════════════════\n")
		fmt.Printf("Email:        %s\n", user.Email)
		fmt.Printf("User ID:      %s\n", user.ID)
		fmt.Printf("\nAccess Token (cookie access_token or Authorization: Bearer, expires in %v):\n", cfg.JWT.AccessExpiry)
		fmt.Printf("%s\n", accessToken)
		fmt.Printf("\nRefresh Token (cookie refresh_token):\n")
		fmt.Printf("%s\n", refreshToken)
		fmt.Printf("───────────────────────────────────────────────────────────────\n\n")
	}

	fmt.Println("To clean up: DELETE FROM users WHERE email LIKE '%@test.local'")
}

func createContact(ctx context.Context, repos *bootstrap.Repositories, userID uuid.UUID, email string) error {
	frequency := 14
	name := strings.TrimSuffix(email, "@test.local")
	contact := entities.NewContact(userID, name, &frequency)
	return repos.Contacts.CreateWithEmail(ctx, contact, &entities.EmailAddress{
		ID:    uuid.New(),
		Email: entities.CleanEmail(email),
	})
}
