package dedupe

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/johnquangdev/networking/internal/domain/entities"
	"github.com/johnquangdev/networking/internal/domain/repositories"
)

type fakeUsers struct {
	repositories.UserRepository
	users []*entities.User
}

func (f *fakeUsers) ListActive(context.Context) ([]*entities.User, error) { return f.users, nil }

type fakeContacts struct {
	repositories.ContactRepository
	byUser map[uuid.UUID][]*entities.Contact
	err    error
}

func (f *fakeContacts) ListByUser(_ context.Context, userID uuid.UUID) ([]*entities.Contact, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byUser[userID], nil
}

type fakeEmails struct {
	repositories.EmailAddressRepository
	byUser map[uuid.UUID][]*entities.EmailAddress
}

func (f *fakeEmails) ListByUser(_ context.Context, userID uuid.UUID) ([]*entities.EmailAddress, error) {
	return f.byUser[userID], nil
}

type fakeDuplicates struct {
	repositories.DuplicateRepository
	stored map[uuid.UUID][]*entities.ContactDuplicate
}

func (f *fakeDuplicates) ReplaceForUser(_ context.Context, userID uuid.UUID, dups []*entities.ContactDuplicate) error {
	f.stored[userID] = dups
	return nil
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("Ada Lovelace", "ada lovelace"), 1e-9)
	assert.InDelta(t, 1.0, Similarity("", ""), 1e-9)
	assert.InDelta(t, 0.75, Similarity("John", "Joan"), 1e-9)
	assert.InDelta(t, 0.0, Similarity("abc", "xyz"), 1e-9)
	assert.InDelta(t, 0.8, Similarity("Jörg", "Jörge"), 1e-9)
}

func TestFind_NameAndSharedEmail(t *testing.T) {
	user := uuid.New()
	ada := entities.NewContact(user, "Ada Lovelace", nil)
	ada2 := entities.NewContact(user, "Ada Lovelac", nil)
	bob := entities.NewContact(user, "Bob", nil)
	robert := entities.NewContact(user, "Robert", nil)

	svc := NewService(nil, nil, nil, nil, 0, zaptest.NewLogger(t))
	dups := svc.Find([]*entities.Contact{ada, ada2, bob, robert}, map[string][]uuid.UUID{
		"bob@example.com": {bob.ID, robert.ID},
		"ada@example.com": {ada.ID},
	})

	require.Len(t, dups, 4)
	assert.Equal(t, ada.ID, dups[0].ContactID)
	assert.Equal(t, ada2.ID, dups[0].OtherContactID)
	assert.Equal(t, ada2.ID, dups[1].ContactID)
	assert.Equal(t, ada.ID, dups[1].OtherContactID)
	assert.InDelta(t, 1-1.0/12, dups[0].Similarity, 1e-9)

	assert.Equal(t, bob.ID, dups[2].ContactID)
	assert.Equal(t, robert.ID, dups[2].OtherContactID)
	assert.InDelta(t, 1.0, dups[3].Similarity, 1e-9)
}

func TestNewService_ThresholdFallback(t *testing.T) {
	assert.Equal(t, DefaultThreshold, NewService(nil, nil, nil, nil, 1.5, nil).threshold)
	assert.Equal(t, 0.5, NewService(nil, nil, nil, nil, 0.5, nil).threshold)
}

func TestRunAll(t *testing.T) {
	u1, u2 := entities.NewUser("a@example.com", "A"), entities.NewUser("b@example.com", "B")
	c1 := entities.NewContact(u1.ID, "Grace Hopper", nil)
	c2 := entities.NewContact(u1.ID, "grace hopper", nil)
	c3 := entities.NewContact(u1.ID, "Linus", nil)
	c4 := entities.NewContact(u1.ID, "Torvalds", nil)

	contacts := &fakeContacts{byUser: map[uuid.UUID][]*entities.Contact{u1.ID: {c1, c2, c3, c4}}}
	emails := &fakeEmails{byUser: map[uuid.UUID][]*entities.EmailAddress{
		u1.ID: {
			{ID: uuid.New(), ContactID: c3.ID, Email: "linus@example.com"},
			{ID: uuid.New(), ContactID: c4.ID, Email: "Linus@Example.com"},
		},
	}}
	dups := &fakeDuplicates{stored: map[uuid.UUID][]*entities.ContactDuplicate{}}

	svc := NewService(&fakeUsers{users: []*entities.User{u1, u2}}, contacts, emails, dups, 0.8, zaptest.NewLogger(t))
	require.NoError(t, svc.RunAll(context.Background()))

	assert.Len(t, dups.stored[u1.ID], 4)
	assert.Contains(t, dups.stored, u2.ID)
	assert.Empty(t, dups.stored[u2.ID])
}

func TestRunAll_ContinuesAfterFailure(t *testing.T) {
	u := entities.NewUser("a@example.com", "A")
	boom := errors.New("db down")
	dups := &fakeDuplicates{stored: map[uuid.UUID][]*entities.ContactDuplicate{}}

	svc := NewService(&fakeUsers{users: []*entities.User{u}}, &fakeContacts{err: boom}, &fakeEmails{}, dups, 0.8, zaptest.NewLogger(t))
	assert.ErrorIs(t, svc.RunAll(context.Background()), boom)
	assert.Empty(t, dups.stored)
}
