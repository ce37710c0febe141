package googlesync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/datatypes"

	"github.com/johnquangdev/networking/internal/domain/entities"
	"github.com/johnquangdev/networking/internal/domain/repositories"
	"github.com/johnquangdev/networking/internal/infrastructure/external/google"
	"github.com/johnquangdev/networking/internal/infrastructure/metrics"
	ucErrors "github.com/johnquangdev/networking/internal/usecase/errors"
)

const (
	DefaultPageSize = 100

	CalendarDescription = "Google Calendar Event"

	sourceGmail    = "gmail"
	sourceCalendar = "calendar"
)

// API is the part of the Google client the sync reads from
type API interface {
	ListMessages(ctx context.Context, pageToken string, maxResults int) (*google.MessageList, error)
	GetMessageMetadata(ctx context.Context, id string) (json.RawMessage, error)
	ListEvents(ctx context.Context, pageToken string, maxResults int) (*google.EventList, error)
}

// APIFactory builds an API client authorised by src
type APIFactory func(ctx context.Context, src oauth2.TokenSource) (API, error)

// NewGoogleAPI is the production APIFactory
func NewGoogleAPI(ctx context.Context, src oauth2.TokenSource) (API, error) {
	c, err := google.NewClient(ctx, src)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// TokenSourcer refreshes stored OAuth tokens
type TokenSourcer interface {
	TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource
}

// ContactResolver maps an email address to a contact, creating it when unknown
type ContactResolver interface {
	GetOrCreateContactEmail(ctx context.Context, userID uuid.UUID, email string) (*entities.EmailAddress, error)
}

// Enqueuer schedules the analysis of an interaction
type Enqueuer interface {
	Enqueue(ctx context.Context, interactionID uuid.UUID) (*entities.AnalysisJob, error)
}

// Result counts what one user's sync did
type Result struct {
	Events       int
	Emails       int
	Interactions int
	TokenUpdated bool
}

// Service mirrors Gmail messages and calendar events into interactions
type Service struct {
	userRepo        repositories.UserRepository
	googleRepo      repositories.GoogleRepository
	interactionRepo repositories.InteractionRepository
	contactRepo     repositories.ContactRepository
	contacts        ContactResolver
	analysis        Enqueuer
	tokens          TokenSourcer
	newAPI          APIFactory
	pageSize        int
	logger          *zap.Logger
	now             func() time.Time
}

// Deps groups the collaborators of a Service
type Deps struct {
	Users        repositories.UserRepository
	Google       repositories.GoogleRepository
	Interactions repositories.InteractionRepository
	Contacts     repositories.ContactRepository
	Resolver     ContactResolver
	Analysis     Enqueuer
	Tokens       TokenSourcer
	NewAPI       APIFactory
}

// NewService creates a sync service. A nil NewAPI uses NewGoogleAPI and a
// non-positive pageSize uses DefaultPageSize.
func NewService(deps Deps, pageSize int, logger *zap.Logger) *Service {
	if deps.NewAPI == nil {
		deps.NewAPI = NewGoogleAPI
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{
		userRepo:        deps.Users,
		googleRepo:      deps.Google,
		interactionRepo: deps.Interactions,
		contactRepo:     deps.Contacts,
		contacts:        deps.Resolver,
		analysis:        deps.Analysis,
		tokens:          deps.Tokens,
		newAPI:          deps.NewAPI,
		pageSize:        pageSize,
		logger:          logger,
		now:             time.Now,
	}
}

// SyncAll syncs every user that granted Google access. Failures are logged
// per user; the first one is returned once all users ran.
func (s *Service) SyncAll(ctx context.Context) error {
	users, err := s.userRepo.ListWithGoogleToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	var firstErr error
	for _, u := range users {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res, err := s.SyncUser(ctx, u)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("google sync failed", zap.String("user_id", u.ID.String()), zap.Error(err))
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if s.logger != nil {
			s.logger.Info("google sync finished",
				zap.String("user_id", u.ID.String()),
				zap.Int("events", res.Events),
				zap.Int("emails", res.Emails),
				zap.Int("interactions", res.Interactions),
				zap.Bool("token_updated", res.TokenUpdated),
			)
		}
	}
	return firstErr
}

// SyncUser pulls the calendar and then Gmail of one user
func (s *Service) SyncUser(ctx context.Context, user *entities.User) (*Result, error) {
	if !user.HasGoogleToken() {
		return nil, ucErrors.ErrNoGoogleAccount
	}

	stored := storedToken(user)
	src := oauth2.ReuseTokenSource(stored, s.tokens.TokenSource(ctx, stored))
	api, err := s.newAPI(ctx, src)
	if err != nil {
		return nil, err
	}
	res := &Result{}

	if err := s.syncCalendar(ctx, api, user.ID, res); err != nil {
		return res, err
	}
	if err := s.syncGmail(ctx, api, user.ID, res); err != nil {
		return res, err
	}

	updated, err := s.persistToken(ctx, user, stored, src)
	if err != nil {
		return res, err
	}
	res.TokenUpdated = updated

	now := s.now()
	user.LastSyncedAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return res, err
	}
	return res, nil
}

func storedToken(user *entities.User) *oauth2.Token {
	t := &oauth2.Token{TokenType: "Bearer", RefreshToken: *user.OAuthRefreshToken}
	if user.OAuthAccessToken != nil {
		t.AccessToken = *user.OAuthAccessToken
	}
	if user.OAuthTokenExpiry != nil {
		t.Expiry = *user.OAuthTokenExpiry
	}
	return t
}

// persistToken stores the access token when the source refreshed it
func (s *Service) persistToken(ctx context.Context, user *entities.User, stored *oauth2.Token, src oauth2.TokenSource) (bool, error) {
	current, err := src.Token()
	if err != nil {
		return false, fmt.Errorf("failed to read oauth token: %w", err)
	}
	if current.AccessToken == stored.AccessToken {
		return false, nil
	}

	refresh := current.RefreshToken
	if refresh == "" {
		refresh = stored.RefreshToken
	}
	if err := s.userRepo.UpdateOAuthToken(ctx, user.ID, current.AccessToken, refresh, current.Expiry); err != nil {
		return false, err
	}
	user.OAuthAccessToken = &current.AccessToken
	user.OAuthRefreshToken = &refresh
	user.OAuthTokenExpiry = &current.Expiry

	if s.logger != nil {
		s.logger.Info("google token refreshed", zap.String("user_id", user.ID.String()))
	}
	return true, nil
}

func (s *Service) syncCalendar(ctx context.Context, api API, userID uuid.UUID, res *Result) error {
	pageToken := ""
	for {
		page, err := api.ListEvents(ctx, pageToken, s.pageSize)
		if err != nil {
			return err
		}
		for _, item := range page.Items {
			created, err := s.saveEvent(ctx, userID, item)
			if err != nil {
				metrics.SyncItems.WithLabelValues(sourceCalendar, "failed").Inc()
				if errors.Is(err, google.ErrNotCalendarEvent) {
					if s.logger != nil {
						s.logger.Warn("skipping calendar item", zap.Error(err))
					}
					continue
				}
				return err
			}
			metrics.SyncItems.WithLabelValues(sourceCalendar, "saved").Inc()
			res.Events++
			if created {
				res.Interactions++
			}
		}
		if page.NextPageToken == "" {
			return nil
		}
		pageToken = page.NextPageToken
	}
}

// saveEvent upserts an event and reconciles its interaction. It reports
// whether a new interaction was created.
func (s *Service) saveEvent(ctx context.Context, userID uuid.UUID, item json.RawMessage) (bool, error) {
	ev, err := google.NewCalendarEvent(item)
	if err != nil {
		return false, err
	}

	stored, err := s.googleRepo.FindEvent(ctx, userID, ev.ID())
	if err != nil {
		return false, err
	}
	if stored == nil {
		stored = &entities.GoogleCalendarEvent{ID: uuid.New(), UserID: userID, GoogleCalendarID: ev.ID()}
	}
	stored.Data = datatypes.JSON(item)

	if !ev.NeedsInteraction() {
		if stored.InteractionID != nil {
			if err := s.interactionRepo.Delete(ctx, *stored.InteractionID); err != nil {
				return false, err
			}
			stored.InteractionID = nil
		}
		return false, s.googleRepo.SaveEvent(ctx, stored)
	}

	if err := s.googleRepo.SaveEvent(ctx, stored); err != nil {
		return false, err
	}
	return s.reconcileEvent(ctx, userID, stored, ev)
}

// reconcileEvent creates or updates the interaction mirroring a stored event
func (s *Service) reconcileEvent(ctx context.Context, userID uuid.UUID, stored *entities.GoogleCalendarEvent, ev *google.CalendarEvent) (bool, error) {
	end, err := ev.End()
	if err != nil {
		return false, fmt.Errorf("invalid end of event %s: %w", ev.ID(), err)
	}
	contacts, err := s.resolveContacts(ctx, userID, ev.AttendeeEmails())
	if err != nil {
		return false, err
	}

	var existing *entities.Interaction
	if stored.InteractionID != nil {
		existing, err = s.interactionRepo.Get(ctx, *stored.InteractionID)
		if err != nil && !errors.Is(err, entities.ErrInteractionNotFound) {
			return false, err
		}
	}

	title := ev.Summary()
	if title == "" {
		title = google.EventTitleDefault
	}

	if existing != nil {
		existing.Title = truncateTitle(title)
		existing.Description = CalendarDescription
		existing.WasAt = end
		existing.TypeID = nil
		return false, s.interactionRepo.Update(ctx, existing, contacts)
	}

	i := entities.NewInteraction(userID, truncateTitle(title), CalendarDescription, end)
	err = s.createLinked(ctx, i, contacts, func() error {
		stored.InteractionID = &i.ID
		if err := s.googleRepo.SaveEvent(ctx, stored); err != nil {
			stored.InteractionID = nil
			return err
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// syncGmail stores unseen messages, then creates the interactions of every
// stored message that has none yet.
func (s *Service) syncGmail(ctx context.Context, api API, userID uuid.UUID, res *Result) error {
	pageToken := ""
	for {
		page, err := api.ListMessages(ctx, pageToken, s.pageSize)
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(page.Messages))
		for _, m := range page.Messages {
			ids = append(ids, m.ID)
		}
		known, err := s.googleRepo.KnownMessageIDs(ctx, userID, ids)
		if err != nil {
			return err
		}

		for _, id := range ids {
			if known[id] {
				metrics.SyncItems.WithLabelValues(sourceGmail, "known").Inc()
				continue
			}
			if err := s.saveEmail(ctx, api, userID, id); err != nil {
				metrics.SyncItems.WithLabelValues(sourceGmail, "failed").Inc()
				return err
			}
			metrics.SyncItems.WithLabelValues(sourceGmail, "saved").Inc()
			res.Emails++
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	return s.linkEmails(ctx, userID, res)
}

// saveEmail fetches one message and stores it without an interaction
func (s *Service) saveEmail(ctx context.Context, api API, userID uuid.UUID, id string) error {
	raw, err := api.GetMessageMetadata(ctx, id)
	if err != nil {
		return err
	}
	stored := &entities.GoogleEmail{ID: uuid.New(), UserID: userID, GmailMessageID: id, Data: datatypes.JSON(raw)}
	return s.googleRepo.SaveEmail(ctx, stored)
}

// linkEmails creates the interaction of each stored message lacking one.
// Messages whose headers carry no address stay unlinked.
func (s *Service) linkEmails(ctx context.Context, userID uuid.UUID, res *Result) error {
	pending, err := s.googleRepo.ListUnlinkedEmails(ctx, userID)
	if err != nil {
		return err
	}

	for _, stored := range pending {
		err := s.linkEmail(ctx, userID, stored)
		switch {
		case errors.Is(err, google.ErrHeaderParsing):
			if s.logger != nil {
				s.logger.Debug("email left without interaction",
					zap.String("gmail_message_id", stored.GmailMessageID), zap.Error(err))
			}
		case err != nil:
			return err
		default:
			res.Interactions++
		}
	}
	return nil
}

func (s *Service) linkEmail(ctx context.Context, userID uuid.UUID, stored *entities.GoogleEmail) error {
	email, err := google.NewGmailEmail(stored.Data)
	if err != nil {
		return err
	}
	participants, err := email.Participants()
	if err != nil {
		return err
	}
	date, err := email.Date()
	if err != nil {
		return err
	}
	contacts, err := s.resolveContacts(ctx, userID, participants)
	if err != nil {
		return err
	}

	title := email.Subject()
	if title == "" {
		title = google.EmailTitleDefault
	}
	i := entities.NewInteraction(userID, truncateTitle(title), email.Snippet(), date)
	return s.createLinked(ctx, i, contacts, func() error {
		stored.InteractionID = &i.ID
		if err := s.googleRepo.SaveEmail(ctx, stored); err != nil {
			stored.InteractionID = nil
			return err
		}
		return nil
	})
}

func (s *Service) resolveContacts(ctx context.Context, userID uuid.UUID, emails []string) ([]*entities.Contact, error) {
	ids := make([]uuid.UUID, 0, len(emails))
	seen := make(map[uuid.UUID]bool, len(emails))
	for _, e := range emails {
		ea, err := s.contacts.GetOrCreateContactEmail(ctx, userID, e)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve contact %s: %w", e, err)
		}
		if !seen[ea.ContactID] {
			seen[ea.ContactID] = true
			ids = append(ids, ea.ContactID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.contactRepo.FindByIDs(ctx, userID, ids)
}

// createLinked creates i, records the link to its Google row through link
// and then schedules the analysis. i is removed again when link fails, so
// the next sync starts from an unlinked row.
func (s *Service) createLinked(ctx context.Context, i *entities.Interaction, contacts []*entities.Contact, link func() error) error {
	if err := s.interactionRepo.Create(ctx, i, contacts); err != nil {
		return err
	}
	if err := link(); err != nil {
		if derr := s.interactionRepo.Delete(ctx, i.ID); derr != nil && s.logger != nil {
			s.logger.Error("failed to remove unlinked interaction", zap.String("interaction_id", i.ID.String()), zap.Error(derr))
		}
		return err
	}

	if s.analysis == nil || len(contacts) == 0 {
		return nil
	}
	if _, err := s.analysis.Enqueue(ctx, i.ID); err != nil && !errors.Is(err, ucErrors.ErrAnalysisExists) && s.logger != nil {
		s.logger.Warn("analysis not scheduled", zap.String("interaction_id", i.ID.String()), zap.Error(err))
	}
	return nil
}

func truncateTitle(title string) string {
	if utf8.RuneCountInString(title) <= entities.MaxInteractionTitleLength {
		return title
	}
	return string([]rune(title)[:entities.MaxInteractionTitleLength])
}
