package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"

	"github.com/johnquangdev/networking/internal/adapter/view"
	"github.com/johnquangdev/networking/internal/domain/entities"
	"github.com/johnquangdev/networking/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/networking/internal/usecase/analysis"
	"github.com/johnquangdev/networking/internal/usecase/auth"
	"github.com/johnquangdev/networking/internal/usecase/contact"
	ucErrors "github.com/johnquangdev/networking/internal/usecase/errors"
	"github.com/johnquangdev/networking/internal/usecase/interaction"
	"github.com/johnquangdev/networking/pkg/config"
	"github.com/johnquangdev/networking/pkg/flash"
	"github.com/johnquangdev/networking/pkg/validator"
)

const (
	testToken  = "valid-token"
	testSecret = "0123456789abcdef0123456789abcdef"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeSessions struct {
	user *entities.User
}

func (f *fakeSessions) ValidateSession(_ context.Context, token string) (*entities.User, error) {
	if token == testToken {
		return f.user, nil
	}
	return nil, entities.ErrInvalidToken
}

func (f *fakeSessions) Refresh(context.Context, string) (*auth.AuthResult, error) {
	return nil, entities.ErrInvalidToken
}

type fakeAuth struct {
	AuthUsecase
	refreshed *auth.AuthResult
}

func (f *fakeAuth) GetGoogleAuthURL() (string, string, error) {
	return "https://accounts.example.com/o/oauth2/auth?state=s", "s", nil
}

func (f *fakeAuth) Refresh(_ context.Context, token string) (*auth.AuthResult, error) {
	if f.refreshed == nil || token != f.refreshed.RefreshToken {
		return nil, entities.ErrInvalidToken
	}
	return f.refreshed, nil
}

type fakeContacts struct {
	ContactUsecase
	contacts map[uuid.UUID]*entities.Contact
	list     *contact.List
}

func (f *fakeContacts) FindByID(_ context.Context, _ uuid.UUID, id uuid.UUID) (*entities.Contact, error) {
	if c, ok := f.contacts[id]; ok {
		return c, nil
	}
	return nil, entities.ErrContactNotFound
}

func (f *fakeContacts) All(context.Context, uuid.UUID) ([]*entities.Contact, error) {
	out := make([]*entities.Contact, 0, len(f.contacts))
	for _, c := range f.contacts {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeContacts) List(_ context.Context, _ uuid.UUID, rawStatus string) (*contact.List, error) {
	if _, err := entities.ParseContactStatus(rawStatus); rawStatus != "" && err != nil {
		return nil, err
	}
	return f.list, nil
}

type fakeInteractions struct {
	InteractionUsecase
	byID        map[uuid.UUID]*entities.Interaction
	created     []interaction.CreateInput
	createErr   error
	analysisErr error
	touched     []uuid.UUID
}

func (f *fakeInteractions) Get(_ context.Context, _ uuid.UUID, id uuid.UUID) (*entities.Interaction, error) {
	if i, ok := f.byID[id]; ok {
		return i, nil
	}
	return nil, entities.ErrInteractionNotFound
}

func (f *fakeInteractions) ListTypes(context.Context) ([]*entities.InteractionType, error) {
	return []*entities.InteractionType{{ID: uuid.New(), Slug: "call", Name: "Call"}}, nil
}

func (f *fakeInteractions) Create(_ context.Context, userID uuid.UUID, in interaction.CreateInput) (*interaction.CreateResult, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, in)
	i := entities.NewInteraction(userID, in.Title, in.Description, in.WasAt)
	return &interaction.CreateResult{Interaction: i, AnalysisErr: f.analysisErr}, nil
}

func (f *fakeInteractions) AddTouchpoint(_ context.Context, _ uuid.UUID, contactID uuid.UUID) (*entities.Interaction, error) {
	f.touched = append(f.touched, contactID)
	return &entities.Interaction{ID: uuid.New()}, nil
}

type fakeJobs struct {
	jobs map[uuid.UUID]*entities.AnalysisJob
}

func (f *fakeJobs) FindLatestByInteraction(_ context.Context, id uuid.UUID) (*entities.AnalysisJob, error) {
	if j, ok := f.jobs[id]; ok {
		return j, nil
	}
	return nil, entities.ErrAnalysisJobNotFound
}

type fixture struct {
	e            *echo.Echo
	user         *entities.User
	auth         *fakeAuth
	contacts     *fakeContacts
	interactions *fakeInteractions
	jobs         *fakeJobs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	renderer, err := view.NewRenderer()
	require.NoError(t, err)

	f := &fixture{
		user:         entities.NewUser("ada@example.com", "Ada"),
		auth:         &fakeAuth{},
		contacts:     &fakeContacts{contacts: map[uuid.UUID]*entities.Contact{}},
		interactions: &fakeInteractions{byID: map[uuid.UUID]*entities.Interaction{}},
		jobs:         &fakeJobs{jobs: map[uuid.UUID]*entities.AnalysisJob{}},
	}

	sessions := middleware.NewAuthMiddleware(&fakeSessions{user: f.user}, middleware.CookieConfig{}, logger)
	cfg := &config.Config{Server: config.ServerConfig{Environment: "test", SecretKey: testSecret}}

	contactHandler := NewContact(f.contacts, logger)
	contactHandler.now = func() time.Time { return testNow }
	interactionHandler := NewInteraction(f.interactions, f.contacts, logger)
	interactionHandler.now = func() time.Time { return testNow }
	api := NewAPI(f.interactions, f.contacts, f.jobs, logger)
	api.now = func() time.Time { return testNow }

	f.e = echo.New()
	f.e.Renderer = renderer
	f.e.Validator = validator.New()
	NewRouter(cfg, NewAuth(f.auth, sessions, false, logger), contactHandler, interactionHandler, api,
		NewArchive(api, nil, logger), sessions, logger).Setup(f.e)
	return f
}

func (f *fixture) do(req *http.Request, authenticated bool) *httptest.ResponseRecorder {
	if authenticated {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+testToken)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) addContact(name string) *entities.Contact {
	days := 7
	c := entities.NewContact(f.user.ID, name, &days)
	f.contacts.contacts[c.ID] = c
	return c
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

// flashes reads back the messages carried by the flash cookie of a response
func flashes(t *testing.T, rec *httptest.ResponseRecorder) []flash.Message {
	t.Helper()
	// the last cookie written wins, as in a browser
	var last *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "flash" {
			last = ck
		}
	}
	if last == nil {
		return nil
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(last)

	var msgs []flash.Message
	c := echo.New().NewContext(req, httptest.NewRecorder())
	read := flash.Middleware(flash.NewStore([]byte(testSecret), false))(func(c echo.Context) error {
		msgs = flash.Pop(c)
		return nil
	})
	require.NoError(t, read(c))
	return msgs
}

func score(v float64) *float64 { return &v }

func analysedInteraction(f *fixture, s *float64, items ...string) *entities.Interaction {
	c := f.addContact("Grace")
	i := entities.NewInteraction(f.user.ID, "Lunch", "", testNow.Add(-time.Hour))
	i.Contacts = []*entities.Contact{c}
	if s != nil || len(items) > 0 {
		i.Analysis = &entities.InteractionAnalysis{
			InteractionID:  i.ID,
			SentimentScore: s,
			ActionItems:    datatypes.JSONSlice[string](items),
		}
	}
	f.interactions.byID[i.ID] = i
	return i
}

func TestPages_AnonymousIsRedirectedToLogin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/contacts?status=2", nil), false)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login?next=%2Fcontacts%3Fstatus%3D2", rec.Header().Get(echo.HeaderLocation))
}

func TestLoginPage_CarriesNext(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/login?next=%2Finteractions", nil), false)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/auth/google/login?next=%2Finteractions"`)
}

func TestGoogleLogin_StoresLocalNextOnly(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/google/login?next=https://evil.example.com", nil), false)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderLocation), "https://accounts.example.com/"))
	var next string
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == nextCookie {
			next = ck.Value
		}
	}
	assert.Equal(t, "/", next)
}

func TestInteractionDetail_RendersSentimentAndChecklist(t *testing.T) {
	f := newFixture(t)
	i := analysedInteraction(f, score(-0.3), "Send slides", "Book dinner")

	rec := f.do(httptest.NewRequest(http.MethodGet, "/interactions/"+i.ID.String(), nil), true)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-percentage="35"`)
	assert.Contains(t, body, `<span class="sentiment-label">Needs Attention</span>`)
	assert.Contains(t, body, "sentiment-notice")
	assert.Contains(t, body, `<input type="checkbox" id="action-1">`)
	assert.Contains(t, body, `<label for="action-2">Book dinner</label>`)
	assert.NotContains(t, body, MsgAnalysisNotPresent)
}

func TestInteractionDetail_PositiveHasNoNotice(t *testing.T) {
	f := newFixture(t)
	i := analysedInteraction(f, score(0.3))

	rec := f.do(httptest.NewRequest(http.MethodGet, "/interactions/"+i.ID.String(), nil), true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-percentage="65"`)
	assert.Contains(t, rec.Body.String(), "Positive")
	assert.NotContains(t, rec.Body.String(), "sentiment-notice")
}

func TestInteractionDetail_MissingAnalysisShowsInfo(t *testing.T) {
	f := newFixture(t)
	i := analysedInteraction(f, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/interactions/"+i.ID.String(), nil), true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), MsgAnalysisNotPresent)
	assert.Contains(t, rec.Body.String(), `class="alert alert-info"`)
	assert.NotContains(t, rec.Body.String(), "sentiment-bar")
}

func TestInteractionDetail_UnknownIsNotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/interactions/"+uuid.NewString(), nil), true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Interaction not found")

	rec = f.do(httptest.NewRequest(http.MethodGet, "/interactions/not-a-uuid", nil), true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInteractionCreate_RedirectsWithSuccessFlash(t *testing.T) {
	f := newFixture(t)
	c := f.addContact("Grace")

	rec := f.do(postForm("/interactions", url.Values{
		"title":    {"Coffee"},
		"was_at":   {"2024-05-30T09:15"},
		"contacts": {c.ID.String()},
	}), true)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/interactions", rec.Header().Get(echo.HeaderLocation))
	require.Len(t, f.interactions.created, 1)
	in := f.interactions.created[0]
	assert.Equal(t, "Coffee", in.Title)
	assert.Equal(t, []uuid.UUID{c.ID}, in.ContactIDs)
	assert.True(t, in.WasAt.Equal(time.Date(2024, 5, 30, 9, 15, 0, 0, time.UTC)))

	msgs := flashes(t, rec)
	require.Len(t, msgs, 1)
	assert.Equal(t, flash.Success, msgs[0].Level)
	assert.Equal(t, MsgInteractionSaved, msgs[0].Text)
}

func TestInteractionCreate_AnalysisFailureWarns(t *testing.T) {
	f := newFixture(t)
	c := f.addContact("Grace")
	f.interactions.analysisErr = &analysis.AnalysisError{Message: "queue is down"}

	rec := f.do(postForm("/interactions", url.Values{
		"title":    {"Coffee"},
		"was_at":   {"2024-05-30T09:15"},
		"contacts": {c.ID.String()},
	}), true)

	assert.Equal(t, http.StatusFound, rec.Code)
	msgs := flashes(t, rec)
	require.Len(t, msgs, 1)
	assert.Equal(t, flash.Warning, msgs[0].Level)
	assert.Equal(t, "Interaction saved but analysis failed: queue is down", msgs[0].Text)
}

func TestInteractionCreate_ValidationRerendersForm(t *testing.T) {
	f := newFixture(t)

	rec := f.do(postForm("/interactions", url.Values{
		"title":  {"Coffee"},
		"was_at": {"2024-05-30T09:15"},
	}), true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Select at least one.")
	assert.Contains(t, rec.Body.String(), `value="Coffee"`)
	assert.Empty(t, f.interactions.created)
}

func TestInteractionCreate_UsecaseErrorFlashesAndRerenders(t *testing.T) {
	f := newFixture(t)
	f.interactions.createErr = ucErrors.ErrUnknownContacts

	rec := f.do(postForm("/interactions", url.Values{
		"title":    {"Coffee"},
		"was_at":   {"2024-05-30T09:15"},
		"contacts": {uuid.NewString()},
	}), true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error saving interaction: one or more contacts do not exist")
	assert.Contains(t, rec.Body.String(), `class="alert alert-error"`)
}

func TestTouchpoint_RedirectsBack(t *testing.T) {
	f := newFixture(t)
	c := f.addContact("Grace")

	req := httptest.NewRequest(http.MethodPost, "/contacts/"+c.ID.String()+"/touchpoint", nil)
	req.Header.Set("Referer", "http://example.com/contacts?status=2")
	rec := f.do(req, true)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/contacts?status=2", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, []uuid.UUID{c.ID}, f.interactions.touched)
}

func TestTouchpoint_ForeignRefererFallsBackToDashboard(t *testing.T) {
	f := newFixture(t)
	c := f.addContact("Grace")

	req := httptest.NewRequest(http.MethodPost, "/contacts/"+c.ID.String()+"/touchpoint", nil)
	req.Header.Set("Referer", "https://evil.example.org/")
	rec := f.do(req, true)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
}

func TestContactList_InvalidStatusIsBadRequest(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/contacts?status=7", nil), true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid contact status")
}

func TestContactList_RendersRows(t *testing.T) {
	f := newFixture(t)
	c := f.addContact("Grace")
	f.contacts.list = &contact.List{Contacts: []*entities.Contact{c}, Counts: contact.StatusCounts{Selected: 1, OutOfTouch: 1}, Now: testNow}

	rec := f.do(httptest.NewRequest(http.MethodGet, "/contacts", nil), true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/contacts/`+c.ID.String()+`"`)
	assert.Contains(t, rec.Body.String(), "Selected (1)")
	assert.Contains(t, rec.Body.String(), "Out of touch")
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAPI_Analysis(t *testing.T) {
	f := newFixture(t)
	i := analysedInteraction(f, score(0.3), "Send slides")

	rec := f.do(httptest.NewRequest(http.MethodGet, "/v1/api/interactions/"+i.ID.String()+"/analysis", nil), true)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	data := body["data"].(map[string]interface{})
	sentiment := data["sentiment"].(map[string]interface{})
	assert.Equal(t, "Positive", sentiment["label"])
	assert.InDelta(t, 65.0, sentiment["percentage"], 1e-9)
	assert.Equal(t, []interface{}{"Send slides"}, data["action_items"])
	assert.Equal(t, []interface{}{}, data["key_insights"])
}

func TestAPI_MissingAnalysisIsNotFound(t *testing.T) {
	f := newFixture(t)
	i := analysedInteraction(f, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/v1/api/interactions/"+i.ID.String()+"/analysis", nil), true)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "Analysis for this interaction is not available.", body["message"])
	assert.Equal(t, i.ID.String(), body["details"].(map[string]interface{})["interaction_id"])
}

func TestAPI_RequiresAuthentication(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/v1/api/contacts/"+uuid.NewString()+"/status", nil), false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", decodeEnvelope(t, rec)["message"])
}

func TestAPI_ContactStatus(t *testing.T) {
	f := newFixture(t)
	c := f.addContact("Grace")
	c.Interactions = []*entities.Interaction{{ID: uuid.New(), WasAt: testNow.AddDate(0, 0, -10)}}

	rec := f.do(httptest.NewRequest(http.MethodGet, "/v1/api/contacts/"+c.ID.String()+"/status", nil), true)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "Grace", data["name"])
	assert.EqualValues(t, 3, data["urgency"])
}

func TestAPI_RawReplyDisabled(t *testing.T) {
	f := newFixture(t)
	i := analysedInteraction(f, score(0))

	rec := f.do(httptest.NewRequest(http.MethodGet, "/v1/api/interactions/"+i.ID.String()+"/analysis/raw", nil), true)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_RefreshRequiresToken(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/api/auth/refresh", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := f.do(req, false)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing refresh token", decodeEnvelope(t, rec)["message"])
}

func TestAPI_RefreshIssuesSession(t *testing.T) {
	f := newFixture(t)
	f.auth.refreshed = &auth.AuthResult{
		User:             f.user,
		AccessToken:      "new-access",
		AccessExpiresAt:  time.Now().Add(time.Hour),
		RefreshToken:     "refresh",
		RefreshExpiresAt: time.Now().Add(24 * time.Hour),
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/api/auth/refresh", strings.NewReader(`{"refresh_token":"refresh"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := f.do(req, false)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeEnvelope(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "new-access", data["access_token"])
	assert.Equal(t, "Bearer", data["token_type"])
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/health", nil), false)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", decodeEnvelope(t, rec)["environment"])
}

func TestStaticAssetsArePublic(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/static/js/app.js", nil), false)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `classList.toggle("completed")`)
}

func TestSafeRedirect(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/contacts?status=2", "/contacts?status=2"},
		{"https://evil.example.com/", "/"},
		{"//evil.example.com/", "/"},
		{"contacts", "/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeRedirect(tt.in, "/"), tt.in)
	}
}

func TestToAppError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{entities.ErrContactNotFound, http.StatusNotFound},
		{entities.ErrInvalidContactStatus, http.StatusBadRequest},
		{ucErrors.ErrForbidden, http.StatusForbidden},
		{ucErrors.ErrNoContactsSelected, http.StatusBadRequest},
		{entities.ErrSessionExpired, http.StatusUnauthorized},
		{echo.NewHTTPError(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, ToAppError(tt.err, "").HTTPCode, tt.err.Error())
	}
	assert.Nil(t, ToAppError(entities.ErrContactNotFound, "").Details)
}
