package handler

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/networking/errors"
	"github.com/johnquangdev/networking/internal/adapter/dto/common"
	"github.com/johnquangdev/networking/internal/adapter/view"
	"github.com/johnquangdev/networking/internal/domain/entities"
	"github.com/johnquangdev/networking/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/networking/internal/usecase/analysis"
	ucErrors "github.com/johnquangdev/networking/internal/usecase/errors"
	"github.com/johnquangdev/networking/pkg/flash"
)

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

// HandleSuccess writes a standardized success response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	resp := common.SuccessResponse{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Debug("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
		)
	}

	return c.JSON(http.StatusOK, resp)
}

// HandleError centralizes error handling and logging using provided logger
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	appErr := ToAppError(err, c.Param("id"))
	logError(logger, c, appErr)

	body := common.ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	if appErr.Raw != nil {
		body.Info = appErr.Raw.Error()
	}

	return c.JSON(appErr.HTTPCode, body)
}

func logError(logger *zap.Logger, c echo.Context, appErr errors.AppError) {
	if logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("request_id", getRequestID(c)),
		zap.String("path", c.Path()),
		zap.String("app_code", appErr.Code.String()),
		zap.Error(appErr),
	}
	if appErr.HTTPCode >= http.StatusInternalServerError {
		logger.Error("http.response.error", fields...)
		return
	}
	logger.Warn("http.response.error", fields...)
}

// ToAppError maps domain and usecase errors onto AppError. id names the
// resource of the request and is attached to not-found errors.
func ToAppError(err error, id string) errors.AppError {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	var httpErr *echo.HTTPError
	if stdErrors.As(err, &httpErr) {
		return fromHTTPError(httpErr)
	}

	var analysisErr *analysis.AnalysisError

	switch {
	case stdErrors.Is(err, entities.ErrContactNotFound):
		return compact(errors.ErrContactNotFound(id))
	case stdErrors.Is(err, entities.ErrEmailAddressNotFound):
		return compact(errors.ErrEmailNotFound(id))
	case stdErrors.Is(err, entities.ErrInteractionNotFound):
		return compact(errors.ErrInteractionNotFound(id))
	case stdErrors.Is(err, entities.ErrAnalysisNotFound):
		return compact(errors.ErrAnalysisNotFound(id))
	case stdErrors.Is(err, entities.ErrAnalysisJobNotFound):
		return errors.ErrNotFound("Analysis job")
	case stdErrors.Is(err, entities.ErrUserNotFound):
		return errors.ErrUserNotFound()
	case stdErrors.Is(err, entities.ErrInvalidContactStatus):
		return compact(errors.ErrInvalidContactStatus(""))
	case stdErrors.Is(err, entities.ErrInvalidTitle),
		stdErrors.Is(err, ucErrors.ErrNoContactsSelected),
		stdErrors.Is(err, ucErrors.ErrUnknownContacts):
		return errors.ErrInvalidInteraction(err.Error())
	case stdErrors.Is(err, ucErrors.ErrInvalidInput):
		return errors.ErrInvalidArgument(err.Error())
	case stdErrors.Is(err, ucErrors.ErrForbidden), stdErrors.Is(err, entities.ErrForbidden):
		return compact(errors.ErrContactAccessDenied(id))
	case stdErrors.Is(err, ucErrors.ErrUserNotActive):
		return errors.ErrPermissionDenied("inactive user")
	case stdErrors.Is(err, entities.ErrSessionExpired), stdErrors.Is(err, ucErrors.ErrSessionExpired):
		return errors.ErrTokenExpired()
	case stdErrors.Is(err, entities.ErrInvalidToken),
		stdErrors.Is(err, entities.ErrSessionNotFound),
		stdErrors.Is(err, ucErrors.ErrSessionNotFound):
		return errors.ErrInvalidToken()
	case stdErrors.Is(err, entities.ErrUnauthorized), stdErrors.Is(err, ucErrors.ErrUnauthorized):
		return errors.ErrUnauthenticated()
	case stdErrors.Is(err, entities.ErrOAuthStateMismatch), stdErrors.Is(err, ucErrors.ErrOAuthDisabled):
		return errors.ErrOAuthFailed("Google", err)
	case stdErrors.Is(err, ucErrors.ErrAnalysisQueueUnavailable):
		return compact(errors.ErrAnalysisEnqueueFailed(id, err))
	case stdErrors.As(err, &analysisErr):
		return errors.ErrAnalysisFailed(err)
	}
	return errors.ErrInternal(err)
}

func fromHTTPError(he *echo.HTTPError) errors.AppError {
	msg := http.StatusText(he.Code)
	if m, ok := he.Message.(string); ok && m != "" {
		msg = m
	}
	switch he.Code {
	case http.StatusUnauthorized:
		e := errors.ErrUnauthenticated()
		e.Message = msg
		return e
	case http.StatusForbidden:
		e := errors.ErrPermissionDenied("")
		e.Message = msg
		return e
	case http.StatusNotFound:
		e := errors.ErrNotFound("Page")
		e.Message = msg
		return e
	}
	code := errors.ErrorCode_INVALID_ARGUMENT
	if he.Code >= http.StatusInternalServerError {
		code = errors.ErrorCode_INTERNAL
	}
	return errors.AppError{Raw: he.Internal, HTTPCode: he.Code, Code: code, Message: msg}
}

// compact drops empty details
func compact(e errors.AppError) errors.AppError {
	for k, v := range e.Details {
		if v == "" {
			delete(e.Details, k)
		}
	}
	if len(e.Details) == 0 {
		e.Details = nil
	}
	return e
}

// errorPage is the data of the error template
type errorPage struct {
	Status  int
	Message string
}

// renderError renders the HTML error page with the status of err
func renderError(logger *zap.Logger, c echo.Context, err error) error {
	appErr := ToAppError(err, c.Param("id"))
	logError(logger, c, appErr)

	msg := appErr.Message
	if appErr.HTTPCode >= http.StatusInternalServerError {
		msg = "Something went wrong. Please try again later."
	}
	return render(c, appErr.HTTPCode, view.PageError, http.StatusText(appErr.HTTPCode),
		errorPage{Status: appErr.HTTPCode, Message: msg})
}

// render renders a page inside the layout with the user and pending flashes
func render(c echo.Context, status int, page, title string, data interface{}) error {
	user, _ := middleware.GetUser(c)
	return c.Render(status, page, view.Page{
		Title:   title,
		User:    user,
		Flashes: flash.Pop(c),
		Path:    c.Request().URL.Path,
		Data:    data,
	})
}

// currentUser returns the authenticated user or an unauthenticated error
func currentUser(c echo.Context) (*entities.User, error) {
	user, ok := middleware.GetUser(c)
	if !ok {
		return nil, errors.ErrUnauthenticated()
	}
	return user, nil
}

// userLocation returns the time zone of the user, UTC when unknown
func userLocation(user *entities.User) *time.Location {
	if user == nil || user.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(user.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// paramID parses the :id path parameter
func paramID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.ErrNotFound(fmt.Sprintf("Resource %q", c.Param("id")))
	}
	return id, nil
}

// safeRedirect returns target when it is a local path, fallback otherwise
func safeRedirect(target, fallback string) string {
	if target == "" {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(target, "//") {
		return fallback
	}
	return u.RequestURI()
}

// refererPath returns the local path of the Referer header, or fallback.
// Absolute referers are accepted when they point at the same host.
func refererPath(c echo.Context, fallback string) string {
	ref := c.Request().Referer()
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil {
		return fallback
	}
	if u.IsAbs() {
		if u.Host != c.Request().Host {
			return fallback
		}
		return u.RequestURI()
	}
	return safeRedirect(ref, fallback)
}
