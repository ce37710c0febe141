package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/networking/errors"
	"github.com/johnquangdev/networking/internal/adapter/presenter"
	"github.com/johnquangdev/networking/internal/domain/entities"
)

// AnalysisJobReader looks up the analysis jobs of interactions
type AnalysisJobReader interface {
	FindLatestByInteraction(ctx context.Context, interactionID uuid.UUID) (*entities.AnalysisJob, error)
}

// API serves the JSON endpoints under /v1/api
type API struct {
	interactions InteractionUsecase
	contacts     ContactUsecase
	jobs         AnalysisJobReader
	logger       *zap.Logger
	now          func() time.Time
}

// NewAPI creates a new JSON API handler
func NewAPI(interactions InteractionUsecase, contacts ContactUsecase, jobs AnalysisJobReader, logger *zap.Logger) *API {
	return &API{
		interactions: interactions,
		contacts:     contacts,
		jobs:         jobs,
		logger:       logger,
		now:          time.Now,
	}
}

// GetAnalysis handles GET /interactions/:id/analysis
// @Summary      Interaction analysis
// @Description  Returns the stored LLM analysis of an interaction with its sentiment classification
// @Tags         Analysis
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Interaction ID"
// @Success      200  {object}  common.SuccessResponse{data=analysis.AnalysisResponse}
// @Failure      401  {object}  common.ErrorResponse
// @Failure      404  {object}  common.ErrorResponse  "Interaction or analysis not found"
// @Router       /interactions/{id}/analysis [get]
func (h *API) GetAnalysis(c echo.Context) error {
	i, err := h.interaction(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if !i.HasAnalysis() {
		return HandleError(h.logger, c, entities.ErrAnalysisNotFound)
	}
	return HandleSuccess(h.logger, c, presenter.ToAnalysisResponse(i.Analysis))
}

// GetAnalysisJob handles GET /interactions/:id/analysis/job
// @Summary      Analysis job status
// @Description  Returns the latest background analysis job of an interaction
// @Tags         Analysis
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Interaction ID"
// @Success      200  {object}  common.SuccessResponse{data=analysis.JobResponse}
// @Failure      401  {object}  common.ErrorResponse
// @Failure      404  {object}  common.ErrorResponse
// @Router       /interactions/{id}/analysis/job [get]
func (h *API) GetAnalysisJob(c echo.Context) error {
	i, err := h.interaction(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	job, err := h.jobs.FindLatestByInteraction(c.Request().Context(), i.ID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToJobResponse(job))
}

// GetContactStatus handles GET /contacts/:id/status
// @Summary      Contact status
// @Description  Returns the derived keep-in-touch status of a contact
// @Tags         Contacts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Contact ID"
// @Success      200  {object}  common.SuccessResponse{data=contact.StatusResponse}
// @Failure      401  {object}  common.ErrorResponse
// @Failure      404  {object}  common.ErrorResponse
// @Router       /contacts/{id}/status [get]
func (h *API) GetContactStatus(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("Invalid contact id"))
	}

	ct, err := h.contacts.FindByID(c.Request().Context(), user.ID, id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToStatusResponse(ct, h.now()))
}

func (h *API) interaction(c echo.Context) (*entities.Interaction, error) {
	user, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, errors.ErrInvalidArgument("Invalid interaction id")
	}
	return h.interactions.Get(c.Request().Context(), user.ID, id)
}
