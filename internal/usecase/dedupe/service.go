package dedupe

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/networking/internal/domain/entities"
	"github.com/johnquangdev/networking/internal/domain/repositories"
)

// DefaultThreshold is the minimum name similarity of a potential duplicate
const DefaultThreshold = 0.8

// Service finds contacts of a user that probably describe the same person
type Service struct {
	userRepo      repositories.UserRepository
	contactRepo   repositories.ContactRepository
	emailRepo     repositories.EmailAddressRepository
	duplicateRepo repositories.DuplicateRepository
	threshold     float64
	logger        *zap.Logger
}

// NewService creates a new duplicate detection service. A threshold outside
// (0, 1] falls back to DefaultThreshold.
func NewService(
	userRepo repositories.UserRepository,
	contactRepo repositories.ContactRepository,
	emailRepo repositories.EmailAddressRepository,
	duplicateRepo repositories.DuplicateRepository,
	threshold float64,
	logger *zap.Logger,
) *Service {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Service{
		userRepo:      userRepo,
		contactRepo:   contactRepo,
		emailRepo:     emailRepo,
		duplicateRepo: duplicateRepo,
		threshold:     threshold,
		logger:        logger,
	}
}

// Similarity returns 1 - levenshtein(a, b) / max(len(a), len(b)), ignoring
// case and surrounding space. Two empty names are identical.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// Find returns the duplicate pairs among contacts, in both directions.
// sharedEmails maps a cleaned address to the contacts carrying it; a shared
// address makes two contacts duplicates with similarity 1.
func (s *Service) Find(contacts []*entities.Contact, sharedEmails map[string][]uuid.UUID) []*entities.ContactDuplicate {
	type pair struct{ a, b uuid.UUID }
	shared := make(map[pair]bool)
	for _, ids := range sharedEmails {
		for i := range ids {
			for j := i + 1; j < len(ids); j++ {
				if ids[i] != ids[j] {
					shared[pair{ids[i], ids[j]}] = true
					shared[pair{ids[j], ids[i]}] = true
				}
			}
		}
	}

	var out []*entities.ContactDuplicate
	for i := range contacts {
		for j := i + 1; j < len(contacts); j++ {
			a, b := contacts[i], contacts[j]
			sim := Similarity(a.Name, b.Name)
			if shared[pair{a.ID, b.ID}] {
				sim = 1
			}
			if sim < s.threshold {
				continue
			}
			out = append(out,
				&entities.ContactDuplicate{ID: uuid.New(), ContactID: a.ID, OtherContactID: b.ID, Similarity: sim},
				&entities.ContactDuplicate{ID: uuid.New(), ContactID: b.ID, OtherContactID: a.ID, Similarity: sim},
			)
		}
	}
	return out
}

// RunForUser recomputes and replaces the duplicates of one user's contacts.
// It returns the number of stored rows.
func (s *Service) RunForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	contacts, err := s.contactRepo.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list contacts: %w", err)
	}
	emails, err := s.emailRepo.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list email addresses: %w", err)
	}

	byAddress := make(map[string][]uuid.UUID)
	for _, e := range emails {
		addr := entities.CleanEmail(e.Email)
		byAddress[addr] = append(byAddress[addr], e.ContactID)
	}

	dups := s.Find(contacts, byAddress)
	if err := s.duplicateRepo.ReplaceForUser(ctx, userID, dups); err != nil {
		return 0, err
	}

	if s.logger != nil {
		s.logger.Info("duplicates recomputed",
			zap.String("user_id", userID.String()),
			zap.Int("contacts", len(contacts)),
			zap.Int("duplicates", len(dups)),
		)
	}
	return len(dups), nil
}

// RunAll recomputes duplicates for every active user. A failing user is
// logged and skipped; the first error is returned after all users ran.
func (s *Service) RunAll(ctx context.Context) error {
	users, err := s.userRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	var firstErr error
	for _, u := range users {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.RunForUser(ctx, u.ID); err != nil {
			if s.logger != nil {
				s.logger.Error("duplicate detection failed", zap.String("user_id", u.ID.String()), zap.Error(err))
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
