package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorIncludesCodeAndRaw(t *testing.T) {
	raw := stdErrors.New("boom")
	err := ErrAnalysisFailed(raw)

	assert.Equal(t, "[ANALYSIS_FAILED] Interaction analysis failed: boom", err.Error())
	assert.Equal(t, http.StatusInternalServerError, err.HTTPCode)
	assert.True(t, stdErrors.Is(err, raw))
}

func TestAppError_WithDetailDoesNotShareMap(t *testing.T) {
	base := ErrInvalidArgument("bad")
	a := base.WithDetail("field", "name")

	assert.Nil(t, base.Details)
	assert.Equal(t, "name", a.Details["field"])
	assert.Equal(t, "[INVALID_ARGUMENT] bad", a.Error())
}

func TestErrorCode_StringUnknown(t *testing.T) {
	assert.Equal(t, "UNKNOWN", ErrorCode(42).String())
	assert.Equal(t, "CONTACT_NOT_FOUND", ErrContactNotFound("1").Code.String())
}

func TestAs_FindsAppErrorThroughWrap(t *testing.T) {
	wrapped := stdErrors.Join(stdErrors.New("ctx"), ErrInteractionNotFound("7"))

	var appErr AppError
	assert.True(t, stdErrors.As(wrapped, &appErr))
	assert.Equal(t, http.StatusNotFound, appErr.HTTPCode)
	assert.Equal(t, "7", appErr.Details["interaction_id"])
}
