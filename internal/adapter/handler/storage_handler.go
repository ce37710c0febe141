package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/networking/errors"
)

// ArchiveReader reads archived LLM replies
type ArchiveReader interface {
	Get(ctx context.Context, objectName string) ([]byte, error)
}

// Archive serves the raw LLM replies kept in object storage
type Archive struct {
	api     *API
	archive ArchiveReader
	logger  *zap.Logger
}

// NewArchive creates a new archive handler. A nil reader means archiving is disabled.
func NewArchive(api *API, archive ArchiveReader, logger *zap.Logger) *Archive {
	return &Archive{
		api:     api,
		archive: archive,
		logger:  logger,
	}
}

// GetRawReply handles GET /interactions/:id/analysis/raw
// @Summary      Raw LLM reply
// @Description  Returns the archived model reply the analysis was parsed from
// @Tags         Analysis
// @Produce      plain
// @Security     BearerAuth
// @Param        id   path      string  true  "Interaction ID"
// @Success      200  {string}  string  "Raw reply"
// @Failure      404  {object}  common.ErrorResponse  "No archived reply"
// @Failure      500  {object}  common.ErrorResponse  "Storage failure"
// @Router       /interactions/{id}/analysis/raw [get]
func (h *Archive) GetRawReply(c echo.Context) error {
	if h.archive == nil {
		return HandleError(h.logger, c, errors.ErrNotFound("Archived reply"))
	}

	i, err := h.api.interaction(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	job, err := h.api.jobs.FindLatestByInteraction(c.Request().Context(), i.ID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if job.ArchiveKey == nil || *job.ArchiveKey == "" {
		return HandleError(h.logger, c, errors.ErrNotFound("Archived reply"))
	}

	content, err := h.archive.Get(c.Request().Context(), *job.ArchiveKey)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to read archived reply",
				zap.String("interaction_id", i.ID.String()),
				zap.String("object_name", *job.ArchiveKey),
				zap.Error(err))
		}
		return HandleError(h.logger, c, errors.ErrStorageFailed("get", err))
	}

	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, content)
}
