package googlesync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/oauth2"

	"github.com/johnquangdev/networking/internal/domain/entities"
	"github.com/johnquangdev/networking/internal/domain/repositories"
	"github.com/johnquangdev/networking/internal/infrastructure/external/google"
	ucErrors "github.com/johnquangdev/networking/internal/usecase/errors"
)

type fakeUsers struct {
	repositories.UserRepository
	users   []*entities.User
	updated []string
	saved   int
}

func (f *fakeUsers) ListWithGoogleToken(context.Context) ([]*entities.User, error) {
	return f.users, nil
}

func (f *fakeUsers) UpdateOAuthToken(_ context.Context, _ uuid.UUID, access, _ string, _ time.Time) error {
	f.updated = append(f.updated, access)
	return nil
}

func (f *fakeUsers) Update(context.Context, *entities.User) error {
	f.saved++
	return nil
}

// fakeGoogle keeps copies of saved rows. emailErrs and eventErrs are
// returned by successive saves, a nil entry lets the save through.
type fakeGoogle struct {
	emails    map[string]*entities.GoogleEmail
	events    map[string]*entities.GoogleCalendarEvent
	emailErrs []error
	eventErrs []error
}

func nextErr(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (f *fakeGoogle) KnownMessageIDs(_ context.Context, _ uuid.UUID, ids []string) (map[string]bool, error) {
	known := map[string]bool{}
	for _, id := range ids {
		if _, ok := f.emails[id]; ok {
			known[id] = true
		}
	}
	return known, nil
}

func (f *fakeGoogle) SaveEmail(_ context.Context, e *entities.GoogleEmail) error {
	if err := nextErr(&f.emailErrs); err != nil {
		return err
	}
	cp := *e
	f.emails[e.GmailMessageID] = &cp
	return nil
}

func (f *fakeGoogle) ListUnlinkedEmails(context.Context, uuid.UUID) ([]*entities.GoogleEmail, error) {
	var out []*entities.GoogleEmail
	for _, e := range f.emails {
		if e.InteractionID == nil {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeGoogle) FindEvent(_ context.Context, _ uuid.UUID, googleID string) (*entities.GoogleCalendarEvent, error) {
	ev, ok := f.events[googleID]
	if !ok {
		return nil, nil
	}
	cp := *ev
	return &cp, nil
}

func (f *fakeGoogle) SaveEvent(_ context.Context, e *entities.GoogleCalendarEvent) error {
	if err := nextErr(&f.eventErrs); err != nil {
		return err
	}
	cp := *e
	f.events[e.GoogleCalendarID] = &cp
	return nil
}

type fakeInteractions struct {
	repositories.InteractionRepository
	byID     map[uuid.UUID]*entities.Interaction
	contacts map[uuid.UUID][]*entities.Contact
}

func (f *fakeInteractions) Create(_ context.Context, i *entities.Interaction, contacts []*entities.Contact) error {
	f.byID[i.ID] = i
	f.contacts[i.ID] = contacts
	return nil
}

func (f *fakeInteractions) Update(_ context.Context, i *entities.Interaction, contacts []*entities.Contact) error {
	f.byID[i.ID] = i
	f.contacts[i.ID] = contacts
	return nil
}

func (f *fakeInteractions) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeInteractions) Get(_ context.Context, id uuid.UUID) (*entities.Interaction, error) {
	i, ok := f.byID[id]
	if !ok {
		return nil, entities.ErrInteractionNotFound
	}
	return i, nil
}

// fakeContacts implements both the resolver and the contact lookup
type fakeContacts struct {
	repositories.ContactRepository
	byEmail map[string]*entities.Contact
	byID    map[uuid.UUID]*entities.Contact
}

func (f *fakeContacts) GetOrCreateContactEmail(_ context.Context, userID uuid.UUID, email string) (*entities.EmailAddress, error) {
	c, ok := f.byEmail[email]
	if !ok {
		c = entities.NewContact(userID, email, nil)
		f.byEmail[email] = c
		f.byID[c.ID] = c
	}
	return &entities.EmailAddress{ID: uuid.New(), ContactID: c.ID, Email: email, Contact: c}, nil
}

func (f *fakeContacts) FindByIDs(_ context.Context, _ uuid.UUID, ids []uuid.UUID) ([]*entities.Contact, error) {
	out := make([]*entities.Contact, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.byID[id])
	}
	return out, nil
}

type fakeEnqueuer struct{ ids []uuid.UUID }

func (f *fakeEnqueuer) Enqueue(_ context.Context, id uuid.UUID) (*entities.AnalysisJob, error) {
	f.ids = append(f.ids, id)
	return entities.NewAnalysisJob(id, 1), nil
}

type staticTokens struct{ token *oauth2.Token }

func (s staticTokens) TokenSource(context.Context, *oauth2.Token) oauth2.TokenSource {
	return oauth2.StaticTokenSource(s.token)
}

const (
	confirmedEvent = `{"kind":"calendar#event","id":"e1","status":"confirmed","summary":"Standup",
		"end":{"dateTime":"2024-05-02T10:30:00Z"},"attendees":[{"email":"Ada@Example.com"},{"email":"bob@example.com"}]}`
	untitledEvent = `{"kind":"calendar#event","id":"e1","status":"confirmed",
		"end":{"dateTime":"2024-05-02T10:30:00Z"},"attendees":[{"email":"ada@example.com"}]}`
	cancelledEvent = `{"kind":"calendar#event","id":"e1","status":"cancelled","summary":"Standup",
		"end":{"dateTime":"2024-05-02T10:30:00Z"},"attendees":[{"email":"ada@example.com"}]}`
	emailMessage = `{"id":"m1","snippet":"see you soon","internalDate":"1714645800000",
		"payload":{"headers":[{"name":"From","value":"Ada <ada@example.com>"},{"name":"To","value":"me@example.com"}]}}`
	brokenMessage = `{"id":"m2","snippet":"?","internalDate":"1714645800000",
		"payload":{"headers":[{"name":"From","value":"undisclosed"}]}}`
)

type fixture struct {
	svc          *Service
	users        *fakeUsers
	google       *fakeGoogle
	interactions *fakeInteractions
	contacts     *fakeContacts
	enqueuer     *fakeEnqueuer
	user         *entities.User
	event        string
}

func newFixture(t *testing.T, token *oauth2.Token) *fixture {
	access, refresh := "old", "refresh"
	user := entities.NewUser("me@example.com", "Me")
	user.OAuthAccessToken = &access
	user.OAuthRefreshToken = &refresh

	f := &fixture{
		users:        &fakeUsers{users: []*entities.User{user}},
		google:       &fakeGoogle{emails: map[string]*entities.GoogleEmail{}, events: map[string]*entities.GoogleCalendarEvent{}},
		interactions: &fakeInteractions{byID: map[uuid.UUID]*entities.Interaction{}, contacts: map[uuid.UUID][]*entities.Contact{}},
		contacts:     &fakeContacts{byEmail: map[string]*entities.Contact{}, byID: map[uuid.UUID]*entities.Contact{}},
		enqueuer:     &fakeEnqueuer{},
		user:         user,
		event:        confirmedEvent,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/calendar/v3/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[` + f.event + `,{"kind":"calendar#calendar","id":"x"}]}`))
	})
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("pageToken") == "" {
			_, _ = w.Write([]byte(`{"messages":[{"id":"m1"}],"nextPageToken":"p2"}`))
			return
		}
		_, _ = w.Write([]byte(`{"messages":[{"id":"m1"},{"id":"m2"}]}`))
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/m1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(emailMessage))
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/m2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(brokenMessage))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	f.svc = NewService(Deps{
		Users:        f.users,
		Google:       f.google,
		Interactions: f.interactions,
		Contacts:     f.contacts,
		Resolver:     f.contacts,
		Analysis:     f.enqueuer,
		Tokens:       staticTokens{token: token},
		NewAPI: func(ctx context.Context, src oauth2.TokenSource) (API, error) {
			return google.NewClient(ctx, src,
				google.WithHTTPClient(ts.Client()),
				google.WithEndpoints(ts.URL+"/", ts.URL+"/calendar/v3/"),
			)
		},
	}, 10, zaptest.NewLogger(t))
	return f
}

// described returns the interactions whose description is desc
func (f *fixture) described(desc string) []*entities.Interaction {
	var out []*entities.Interaction
	for _, i := range f.interactions.byID {
		if i.Description == desc {
			out = append(out, i)
		}
	}
	return out
}

func TestSyncUser_CreatesInteractions(t *testing.T) {
	f := newFixture(t, &oauth2.Token{AccessToken: "old"})

	res, err := f.svc.SyncUser(context.Background(), f.user)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Events)
	assert.Equal(t, 2, res.Emails)
	assert.Equal(t, 2, res.Interactions)
	assert.False(t, res.TokenUpdated)
	assert.Empty(t, f.users.updated)
	assert.Equal(t, 1, f.users.saved)
	assert.NotNil(t, f.user.LastSyncedAt)

	ev := f.google.events["e1"]
	require.NotNil(t, ev)
	require.NotNil(t, ev.InteractionID)
	meeting := f.interactions.byID[*ev.InteractionID]
	assert.Equal(t, "Standup", meeting.Title)
	assert.Equal(t, CalendarDescription, meeting.Description)
	assert.True(t, meeting.WasAt.Equal(time.Date(2024, 5, 2, 10, 30, 0, 0, time.UTC)))
	assert.Len(t, f.interactions.contacts[meeting.ID], 2)

	mail := f.google.emails["m1"]
	require.NotNil(t, mail.InteractionID)
	email := f.interactions.byID[*mail.InteractionID]
	assert.Equal(t, google.EmailTitleDefault, email.Title)
	assert.Equal(t, "see you soon", email.Description)
	assert.Len(t, f.interactions.contacts[email.ID], 2)

	require.Contains(t, f.google.emails, "m2")
	assert.Nil(t, f.google.emails["m2"].InteractionID)

	assert.Len(t, f.contacts.byEmail, 3)
	assert.ElementsMatch(t, []uuid.UUID{meeting.ID, email.ID}, f.enqueuer.ids)
}

func TestSyncUser_UpdatesThenDeletesEventInteraction(t *testing.T) {
	f := newFixture(t, &oauth2.Token{AccessToken: "old"})
	ctx := context.Background()

	_, err := f.svc.SyncUser(ctx, f.user)
	require.NoError(t, err)
	first := *f.google.events["e1"].InteractionID

	res, err := f.svc.SyncUser(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Emails)
	assert.Equal(t, 0, res.Interactions)
	assert.Equal(t, first, *f.google.events["e1"].InteractionID)

	f.event = cancelledEvent
	_, err = f.svc.SyncUser(ctx, f.user)
	require.NoError(t, err)
	assert.Nil(t, f.google.events["e1"].InteractionID)
	assert.NotContains(t, f.interactions.byID, first)
}

func TestSyncUser_EmailSaveFailureLeavesNoDuplicate(t *testing.T) {
	errSave := errors.New("connection reset")
	cases := []struct {
		name      string
		emailErrs []error
	}{
		{name: "storing the message fails", emailErrs: []error{errSave}},
		// m1 and m2 are stored, then linking m1 fails
		{name: "linking the message fails", emailErrs: []error{nil, nil, errSave}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, &oauth2.Token{AccessToken: "old"})
			f.google.emailErrs = tc.emailErrs
			ctx := context.Background()

			_, err := f.svc.SyncUser(ctx, f.user)
			require.ErrorIs(t, err, errSave)
			assert.Empty(t, f.described("see you soon"))

			_, err = f.svc.SyncUser(ctx, f.user)
			require.NoError(t, err)

			emails := f.described("see you soon")
			require.Len(t, emails, 1)
			require.NotNil(t, f.google.emails["m1"].InteractionID)
			assert.Equal(t, emails[0].ID, *f.google.emails["m1"].InteractionID)
			assert.Contains(t, f.enqueuer.ids, emails[0].ID)
			assert.Len(t, f.enqueuer.ids, 2)
		})
	}
}

func TestSyncUser_EventSaveFailureLeavesNoDuplicate(t *testing.T) {
	errSave := errors.New("connection reset")
	cases := []struct {
		name      string
		eventErrs []error
	}{
		{name: "storing the event fails", eventErrs: []error{errSave}},
		{name: "linking the event fails", eventErrs: []error{nil, errSave}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, &oauth2.Token{AccessToken: "old"})
			f.google.eventErrs = tc.eventErrs
			ctx := context.Background()

			_, err := f.svc.SyncUser(ctx, f.user)
			require.ErrorIs(t, err, errSave)
			assert.Empty(t, f.described(CalendarDescription))
			assert.Empty(t, f.enqueuer.ids)

			_, err = f.svc.SyncUser(ctx, f.user)
			require.NoError(t, err)

			meetings := f.described(CalendarDescription)
			require.Len(t, meetings, 1)
			require.NotNil(t, f.google.events["e1"].InteractionID)
			assert.Equal(t, meetings[0].ID, *f.google.events["e1"].InteractionID)
		})
	}
}

func TestSyncUser_UntitledEventGetsDefaultTitle(t *testing.T) {
	f := newFixture(t, &oauth2.Token{AccessToken: "old"})
	f.event = untitledEvent

	_, err := f.svc.SyncUser(context.Background(), f.user)
	require.NoError(t, err)

	meetings := f.described(CalendarDescription)
	require.Len(t, meetings, 1)
	assert.Equal(t, google.EventTitleDefault, meetings[0].Title)
}

func TestSyncUser_PersistsRefreshedToken(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	f := newFixture(t, &oauth2.Token{AccessToken: "new", Expiry: expiry})
	past := time.Now().Add(-time.Hour)
	f.user.OAuthTokenExpiry = &past

	res, err := f.svc.SyncUser(context.Background(), f.user)
	require.NoError(t, err)
	assert.True(t, res.TokenUpdated)
	assert.Equal(t, []string{"new"}, f.users.updated)
	assert.Equal(t, "refresh", *f.user.OAuthRefreshToken)
}

func TestSyncUser_RequiresGoogleToken(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.SyncUser(context.Background(), entities.NewUser("x@example.com", "X"))
	assert.ErrorIs(t, err, ucErrors.ErrNoGoogleAccount)
}

func TestSyncAll(t *testing.T) {
	f := newFixture(t, &oauth2.Token{AccessToken: "old"})
	require.NoError(t, f.svc.SyncAll(context.Background()))
	assert.Len(t, f.google.emails, 2)
}

func TestTruncateTitle(t *testing.T) {
	long := make([]rune, entities.MaxInteractionTitleLength+5)
	for i := range long {
		long[i] = 'é'
	}
	assert.Equal(t, entities.MaxInteractionTitleLength, len([]rune(truncateTitle(string(long)))))
	assert.Equal(t, "short", truncateTitle("short"))
}
