package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := ErrMeetingNotFound("m-1")
	assert.Equal(t, "[MEETING_NOT_FOUND] Meeting not found", err.Error())
	assert.Equal(t, http.StatusNotFound, err.HTTPCode)
	assert.Equal(t, "m-1", err.Details["meeting_id"])

	raw := fmt.Errorf("dial tcp: refused")
	wrapped := ErrStoreUnavailable(raw)
	assert.Equal(t, "[STORE_UNAVAILABLE] Knowledge store unavailable: dial tcp: refused", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	sentinel := stdErrors.New("boom")
	err := fmt.Errorf("handler: %w", ErrInternal(sentinel))

	assert.True(t, stdErrors.Is(err, sentinel))

	var appErr AppError
	assert.True(t, stdErrors.As(err, &appErr))
	assert.Equal(t, ErrorCode_INTERNAL, appErr.Code)
}

func TestWithDetail_DoesNotMutateOriginal(t *testing.T) {
	base := ErrInvalidArgument("bad")
	withDetail := base.WithDetail("field", "limit")
	assert.Nil(t, base.Details)
	assert.Equal(t, "limit", withDetail.Details["field"])
}

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "NOT_FOUND", ErrorCode_NOT_FOUND.String())
	assert.Equal(t, "UNKNOWN", ErrorCode(-1).String())
}
