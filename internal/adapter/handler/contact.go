package handler

import (
	"context"
	stdErrors "errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	contactDTO "github.com/johnquangdev/networking/internal/adapter/dto/contact"
	"github.com/johnquangdev/networking/internal/adapter/presenter"
	"github.com/johnquangdev/networking/internal/adapter/view"
	"github.com/johnquangdev/networking/internal/domain/entities"
	"github.com/johnquangdev/networking/internal/usecase/contact"
	ucErrors "github.com/johnquangdev/networking/internal/usecase/errors"
	"github.com/johnquangdev/networking/pkg/flash"
	"github.com/johnquangdev/networking/pkg/validator"
)

// ContactUsecase is the contact management used by the page handlers
type ContactUsecase interface {
	Dashboard(ctx context.Context, userID uuid.UUID) (*contact.Dashboard, error)
	List(ctx context.Context, userID uuid.UUID, rawStatus string) (*contact.List, error)
	All(ctx context.Context, userID uuid.UUID) ([]*entities.Contact, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*contact.Detail, error)
	Create(ctx context.Context, userID uuid.UUID, in contact.Input) (*entities.Contact, error)
	Update(ctx context.Context, userID, id uuid.UUID, in contact.Input) (*entities.Contact, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	FindByID(ctx context.Context, userID, id uuid.UUID) (*entities.Contact, error)
	ListEmails(ctx context.Context, userID, contactID uuid.UUID) (*entities.Contact, []*entities.EmailAddress, error)
	GetEmail(ctx context.Context, userID, id uuid.UUID) (*entities.EmailAddress, error)
	DeleteEmail(ctx context.Context, userID, id uuid.UUID) (uuid.UUID, error)
}

// Contact serves the dashboard and the contact pages
type Contact struct {
	contacts ContactUsecase
	logger   *zap.Logger
	now      func() time.Time
}

// NewContact creates a new contact handler
func NewContact(contacts ContactUsecase, logger *zap.Logger) *Contact {
	return &Contact{
		contacts: contacts,
		logger:   logger,
		now:      time.Now,
	}
}

type contactCard struct {
	Heading string
	Rows    []presenter.ContactRow
	Empty   string
}

type dashboardPage struct {
	Due      contactCard
	Frequent contactCard
	Recent   contactCard
}

type contactListPage struct {
	Filter string
	Counts contact.StatusCounts
	Rows   []presenter.ContactRow
}

type contactFormPage struct {
	ID     string
	Form   contactDTO.ContactForm
	Errors map[string]string
}

type contactDeletePage struct {
	Name string
	URL  string
}

type contactEmailsPage struct {
	Contact presenter.ContactRow
	Emails  []*entities.EmailAddress
}

type emailDeletePage struct {
	Email      string
	ContactURL string
}

// Dashboard renders the start page
// GET /
func (h *Contact) Dashboard(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	d, err := h.contacts.Dashboard(c.Request().Context(), user.ID)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	now, loc := h.now(), userLocation(user)
	return render(c, http.StatusOK, view.PageDashboard, "Dashboard", dashboardPage{
		Due:      contactCard{Heading: "Due", Rows: presenter.ToContactRows(d.Due, now, loc), Empty: "Nobody is due. Well done."},
		Frequent: contactCard{Heading: "Frequent", Rows: presenter.ToCountRows(d.Frequent, now, loc), Empty: "No interactions yet."},
		Recent:   contactCard{Heading: "Recent", Rows: presenter.ToCountRows(d.Recent, now, loc), Empty: "No interactions in the last two weeks."},
	})
}

// List renders the contact overview
// GET /contacts[?status=]
func (h *Contact) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	filter := c.QueryParam("status")
	l, err := h.contacts.List(c.Request().Context(), user.ID, filter)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	return render(c, http.StatusOK, view.PageContactList, "Contacts", contactListPage{
		Filter: filter,
		Counts: l.Counts,
		Rows:   presenter.ToContactRows(l.Contacts, l.Now, userLocation(user)),
	})
}

// Detail renders a contact with its interactions and duplicates
// GET /contacts/:id
func (h *Contact) Detail(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	d, err := h.contacts.Get(c.Request().Context(), user.ID, id)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	v := presenter.ToContactView(d.Contact, d.Interactions, d.Duplicates, d.Now, userLocation(user))
	return render(c, http.StatusOK, view.PageContactDetail, d.Contact.Name, struct {
		Contact *presenter.ContactView
	}{v})
}

// New renders an empty contact form
// GET /contacts/new
func (h *Contact) New(c echo.Context) error {
	return render(c, http.StatusOK, view.PageContactForm, "New contact", contactFormPage{})
}

// Create creates a contact from the submitted form
// POST /contacts
func (h *Contact) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	var form contactDTO.ContactForm
	in, errs, err := bindContactForm(c, &form)
	if err != nil {
		return renderError(h.logger, c, err)
	}
	if errs != nil {
		return render(c, http.StatusBadRequest, view.PageContactForm, "New contact", contactFormPage{Form: form, Errors: errs})
	}

	created, err := h.contacts.Create(c.Request().Context(), user.ID, in)
	if stdErrors.Is(err, ucErrors.ErrInvalidInput) {
		flash.Add(c, flash.Error, err.Error())
		return render(c, http.StatusBadRequest, view.PageContactForm, "New contact", contactFormPage{Form: form})
	}
	if err != nil {
		return renderError(h.logger, c, err)
	}

	return c.Redirect(http.StatusFound, presenter.ContactURL(created.ID.String()))
}

// Edit renders the form of an existing contact
// GET /contacts/:id/edit
func (h *Contact) Edit(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	ct, err := h.contacts.FindByID(c.Request().Context(), user.ID, id)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	return render(c, http.StatusOK, view.PageContactForm, "Edit "+ct.Name, contactFormPage{
		ID:   ct.ID.String(),
		Form: contactDTO.FormFromContact(ct),
	})
}

// Update saves the submitted form of an existing contact
// POST /contacts/:id/edit
func (h *Contact) Update(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	var form contactDTO.ContactForm
	in, errs, err := bindContactForm(c, &form)
	if err != nil {
		return renderError(h.logger, c, err)
	}
	page := contactFormPage{ID: id.String(), Form: form, Errors: errs}
	if errs != nil {
		return render(c, http.StatusBadRequest, view.PageContactForm, "Edit contact", page)
	}

	_, err = h.contacts.Update(c.Request().Context(), user.ID, id, in)
	if stdErrors.Is(err, ucErrors.ErrInvalidInput) {
		flash.Add(c, flash.Error, err.Error())
		return render(c, http.StatusBadRequest, view.PageContactForm, "Edit contact", page)
	}
	if err != nil {
		return renderError(h.logger, c, err)
	}

	return c.Redirect(http.StatusFound, presenter.ContactURL(id.String()))
}

// ConfirmDelete asks for confirmation before deleting a contact
// GET /contacts/:id/delete
func (h *Contact) ConfirmDelete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	ct, err := h.contacts.FindByID(c.Request().Context(), user.ID, id)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	return render(c, http.StatusOK, view.PageContactDelete, "Delete "+ct.Name, contactDeletePage{
		Name: ct.Name,
		URL:  presenter.ContactURL(ct.ID.String()),
	})
}

// Delete deletes a contact and returns to the dashboard
// POST /contacts/:id/delete
func (h *Contact) Delete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	if err := h.contacts.Delete(c.Request().Context(), user.ID, id); err != nil {
		return renderError(h.logger, c, err)
	}

	return c.Redirect(http.StatusFound, "/")
}

// Emails lists the email addresses of a contact
// GET /contacts/:id/emails
func (h *Contact) Emails(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	ct, emails, err := h.contacts.ListEmails(c.Request().Context(), user.ID, id)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	return render(c, http.StatusOK, view.PageContactEmails, "Emails of "+ct.Name, contactEmailsPage{
		Contact: presenter.ToContactRow(ct, h.now(), userLocation(user)),
		Emails:  emails,
	})
}

// ConfirmDeleteEmail asks for confirmation before deleting an email address
// GET /emails/:id/delete
func (h *Contact) ConfirmDeleteEmail(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	ea, err := h.contacts.GetEmail(c.Request().Context(), user.ID, id)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	return render(c, http.StatusOK, view.PageEmailDelete, "Delete "+ea.Email, emailDeletePage{
		Email:      ea.Email,
		ContactURL: presenter.ContactURL(ea.ContactID.String()),
	})
}

// DeleteEmail deletes an email address and returns to its contact
// POST /emails/:id/delete
func (h *Contact) DeleteEmail(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	contactID, err := h.contacts.DeleteEmail(c.Request().Context(), user.ID, id)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	return c.Redirect(http.StatusFound, presenter.ContactURL(contactID.String()))
}

// bindContactForm binds and validates the contact form. Field errors are
// returned separately from binding failures.
func bindContactForm(c echo.Context, form *contactDTO.ContactForm) (contact.Input, map[string]string, error) {
	if err := c.Bind(form); err != nil {
		return contact.Input{}, nil, err
	}
	if err := c.Validate(form); err != nil {
		errs := validator.FieldErrors(err)
		if errs == nil {
			return contact.Input{}, nil, err
		}
		return contact.Input{}, errs, nil
	}
	in, err := form.ToInput()
	if err != nil {
		return contact.Input{}, map[string]string{"frequency_in_days": "Enter a whole number."}, nil
	}
	return in, nil, nil
}
