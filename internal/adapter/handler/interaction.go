package handler

import (
	"context"
	stdErrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	interactionDTO "github.com/johnquangdev/networking/internal/adapter/dto/interaction"
	"github.com/johnquangdev/networking/internal/adapter/presenter"
	"github.com/johnquangdev/networking/internal/adapter/view"
	"github.com/johnquangdev/networking/internal/domain/entities"
	"github.com/johnquangdev/networking/internal/usecase/analysis"
	ucErrors "github.com/johnquangdev/networking/internal/usecase/errors"
	"github.com/johnquangdev/networking/internal/usecase/interaction"
	"github.com/johnquangdev/networking/pkg/flash"
	"github.com/johnquangdev/networking/pkg/validator"
)

// Flash messages of the interaction pages
const (
	MsgInteractionSaved   = "Interaction saved successfully. Analysis will be available shortly."
	MsgAnalysisFailed     = "Interaction saved but analysis failed: %s"
	MsgInteractionFailed  = "Error saving interaction: %s"
	MsgAnalysisNotPresent = "Analysis for this interaction is not available."
)

// InteractionUsecase is the interaction management used by the page handlers
type InteractionUsecase interface {
	List(ctx context.Context, userID uuid.UUID) ([]*entities.Interaction, error)
	ListTypes(ctx context.Context) ([]*entities.InteractionType, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*entities.Interaction, error)
	Create(ctx context.Context, userID uuid.UUID, in interaction.CreateInput) (*interaction.CreateResult, error)
	AddTouchpoint(ctx context.Context, userID, contactID uuid.UUID) (*entities.Interaction, error)
}

// Interaction serves the interaction pages
type Interaction struct {
	interactions InteractionUsecase
	contacts     ContactUsecase
	logger       *zap.Logger
	now          func() time.Time
}

// NewInteraction creates a new interaction handler
func NewInteraction(interactions InteractionUsecase, contacts ContactUsecase, logger *zap.Logger) *Interaction {
	return &Interaction{
		interactions: interactions,
		contacts:     contacts,
		logger:       logger,
		now:          time.Now,
	}
}

type interactionFormPage struct {
	Form     *interactionDTO.InteractionForm
	Errors   map[string]string
	Types    []*entities.InteractionType
	Contacts []presenter.ContactRow
}

// List renders past interactions with selected contacts
// GET /interactions
func (h *Interaction) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	list, err := h.interactions.List(c.Request().Context(), user.ID)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	return render(c, http.StatusOK, view.PageInteractionList, "Interactions", presenter.ToInteractionRows(list, userLocation(user)))
}

// New renders the interaction form, preselecting ?contact=
// GET /interactions/new
func (h *Interaction) New(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	form := &interactionDTO.InteractionForm{
		WasAt: h.now().In(userLocation(user)).Format(interactionDTO.WasAtLayout),
	}
	if id := c.QueryParam("contact"); id != "" {
		form.ContactIDs = []string{id}
	}
	return h.renderForm(c, user, http.StatusOK, form, nil)
}

// Create saves an interaction and schedules its analysis
// POST /interactions
func (h *Interaction) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	form := &interactionDTO.InteractionForm{}
	if err := c.Bind(form); err != nil {
		return renderError(h.logger, c, err)
	}
	if err := c.Validate(form); err != nil {
		errs := validator.FieldErrors(err)
		if errs == nil {
			return renderError(h.logger, c, err)
		}
		return h.renderForm(c, user, http.StatusBadRequest, form, errs)
	}

	in, err := form.ToInput(userLocation(user))
	if err != nil {
		return h.renderForm(c, user, http.StatusBadRequest, form, map[string]string{"was_at": "Enter a valid date and time."})
	}

	res, err := h.interactions.Create(c.Request().Context(), user.ID, in)
	if err != nil {
		flash.Add(c, flash.Error, fmt.Sprintf(MsgInteractionFailed, err.Error()))
		status := http.StatusInternalServerError
		if isInvalidInteraction(err) {
			status = http.StatusBadRequest
		}
		if h.logger != nil {
			h.logger.Warn("failed to save interaction", zap.String("user_id", user.ID.String()), zap.Error(err))
		}
		return h.renderForm(c, user, status, form, nil)
	}

	if res.AnalysisErr != nil {
		flash.Add(c, flash.Warning, fmt.Sprintf(MsgAnalysisFailed, analysisMessage(res.AnalysisErr)))
	} else {
		flash.Add(c, flash.Success, MsgInteractionSaved)
	}
	return c.Redirect(http.StatusFound, "/interactions")
}

// Detail renders an interaction with its analysis
// GET /interactions/:id
func (h *Interaction) Detail(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	i, err := h.interactions.Get(c.Request().Context(), user.ID, id)
	if err != nil {
		return renderError(h.logger, c, err)
	}
	if !i.HasAnalysis() {
		flash.Add(c, flash.Info, MsgAnalysisNotPresent)
	}

	return render(c, http.StatusOK, view.PageInteractionDetail, i.Title, presenter.ToInteractionView(i, userLocation(user)))
}

// Touchpoint records an interaction with a contact now and goes back
// POST /contacts/:id/touchpoint
func (h *Interaction) Touchpoint(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	if _, err := h.interactions.AddTouchpoint(c.Request().Context(), user.ID, id); err != nil {
		return renderError(h.logger, c, err)
	}
	return c.Redirect(http.StatusFound, refererPath(c, "/"))
}

func (h *Interaction) renderForm(c echo.Context, user *entities.User, status int, form *interactionDTO.InteractionForm, errs map[string]string) error {
	ctx := c.Request().Context()

	types, err := h.interactions.ListTypes(ctx)
	if err != nil {
		return renderError(h.logger, c, err)
	}
	contacts, err := h.contacts.All(ctx, user.ID)
	if err != nil {
		return renderError(h.logger, c, err)
	}

	return render(c, status, view.PageInteractionForm, "Add interaction", interactionFormPage{
		Form:     form,
		Errors:   errs,
		Types:    types,
		Contacts: presenter.ToContactRows(contacts, h.now(), userLocation(user)),
	})
}

func isInvalidInteraction(err error) bool {
	return stdErrors.Is(err, entities.ErrInvalidTitle) ||
		stdErrors.Is(err, ucErrors.ErrNoContactsSelected) ||
		stdErrors.Is(err, ucErrors.ErrUnknownContacts)
}

// analysisMessage prefers the message of an AnalysisError
func analysisMessage(err error) string {
	var ae *analysis.AnalysisError
	if stdErrors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}
