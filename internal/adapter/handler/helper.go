package handler

import (
	stdErrors "errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-knowledge/errors"
	"github.com/johnquangdev/meeting-knowledge/internal/domain/entities"
	"github.com/johnquangdev/meeting-knowledge/internal/infrastructure/database"
	usecaseErrors "github.com/johnquangdev/meeting-knowledge/internal/usecase/errors"
	"github.com/johnquangdev/meeting-knowledge/pkg/ai"
	pkgvalidator "github.com/johnquangdev/meeting-knowledge/pkg/validator"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID reads the request id set by the RequestID middleware, or
// the incoming X-Request-ID header
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
	return respond(logger, c, http.StatusOK, data)
}

// HandleCreated writes a standardized 201 response
func HandleCreated(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusCreated, data)
}

func respond(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger.
// Domain and use case errors are translated to AppErrors first.
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	appErr := toAppError(err, c.Param("id"))

	if logger != nil {
		fields := []zap.Field{
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.String("app_code", appErr.Code.String()),
			zap.Error(err),
		}
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.Error("http.response.error", fields...)
		} else {
			logger.Warn("http.response.error", fields...)
		}
	}

	info := ""
	if appErr.Raw != nil {
		info = appErr.Raw.Error()
	}

	body := errs{
		Code:    appErr.Code,
		Message: appErr.Message,
		Info:    info,
		Details: appErr.Details,
	}

	return c.JSON(appErr.HTTPCode, body)
}

// toAppError maps err onto the application error taxonomy. id is the
// path parameter of the request, if any.
func toAppError(err error, id string) errors.AppError {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	var verrs validator.ValidationErrors
	var httpErr *echo.HTTPError
	switch {
	case stdErrors.As(err, &verrs):
		return errors.ErrValidation(err)
	case stdErrors.As(err, &httpErr):
		if httpErr.Code == http.StatusBadRequest {
			return errors.ErrInvalidPayload()
		}
		return errors.ErrInternal(err)

	case stdErrors.Is(err, entities.ErrMeetingNotFound):
		return errors.ErrMeetingNotFound(id)
	case stdErrors.Is(err, entities.ErrActionItemNotFound):
		return errors.ErrActionItemNotFound(id)
	case stdErrors.Is(err, entities.ErrKnowledgeSourceNotFound):
		return errors.ErrKnowledgeSourceNotFound(id)
	case stdErrors.Is(err, entities.ErrMeetingAlreadyEnded):
		return errors.ErrMeetingAlreadyEnded(id)
	case stdErrors.Is(err, entities.ErrInvalidStatus):
		return errors.ErrInvalidStatus("")
	case stdErrors.Is(err, entities.ErrEmptyContent), stdErrors.Is(err, usecaseErrors.ErrEmptyContent),
		stdErrors.Is(err, usecaseErrors.ErrEmptyNotionPage), stdErrors.Is(err, usecaseErrors.ErrEmptyWebPage),
		stdErrors.Is(err, usecaseErrors.ErrEmptyTranscript):
		return errors.ErrEmptyContent()
	case stdErrors.Is(err, entities.ErrInvalidTimeRange),
		stdErrors.Is(err, entities.ErrInvalidSourceType),
		stdErrors.Is(err, entities.ErrEmptyEntityName),
		stdErrors.Is(err, usecaseErrors.ErrInvalidInput),
		stdErrors.Is(err, usecaseErrors.ErrMissingURL),
		stdErrors.Is(err, usecaseErrors.ErrEmptyQuestion),
		stdErrors.Is(err, usecaseErrors.ErrEmptyQuery):
		return errors.ErrInvalidArgument(err.Error())

	case stdErrors.Is(err, usecaseErrors.ErrCompleterDisabled):
		return errors.ErrAIServiceDisabled("llm")
	case stdErrors.Is(err, usecaseErrors.ErrDiarizerDisabled):
		return errors.ErrAIServiceDisabled("diarizer")
	case stdErrors.Is(err, usecaseErrors.ErrNotionDisabled):
		return errors.ErrAIServiceDisabled("notion")
	case stdErrors.Is(err, usecaseErrors.ErrCrawlerDisabled):
		return errors.ErrAIServiceDisabled("crawler")
	case stdErrors.Is(err, ai.ErrDisabled):
		return errors.ErrAIServiceDisabled("embedder")
	case stdErrors.Is(err, usecaseErrors.ErrEmbeddingFailed):
		return errors.ErrEmbeddingFailed(err)
	case stdErrors.Is(err, usecaseErrors.ErrCompletionFailed),
		stdErrors.Is(err, gobreaker.ErrOpenState),
		stdErrors.Is(err, gobreaker.ErrTooManyRequests):
		return errors.ErrCompletionFailed(err)
	case stdErrors.Is(err, usecaseErrors.ErrDiarizationFailed), stdErrors.Is(err, usecaseErrors.ErrNoSpeakerTurns):
		return errors.ErrDiarizationFailed(err)
	case stdErrors.Is(err, usecaseErrors.ErrPageLoadFailed):
		return errors.ErrExternalAPIFailed("notion", err)
	case stdErrors.Is(err, usecaseErrors.ErrFetchFailed):
		return errors.ErrExternalAPIFailed("web", err)

	case database.IsUnavailable(err):
		return errors.ErrStoreUnavailable(err)
	}
	return errors.ErrDBQueryFailed("", err)
}

// bindAndValidate binds the request into req and runs its validate tags
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.ErrInvalidPayload()
	}
	if err := c.Validate(req); err != nil {
		appErr := errors.ErrValidation(err)
		for field, tag := range pkgvalidator.Fields(err) {
			appErr = appErr.WithDetail(field, tag)
		}
		return appErr
	}
	return nil
}

// pathUUID parses a UUID path parameter
func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.ErrInvalidArgument(name + " must be a valid UUID")
	}
	return id, nil
}

// queryInt reads an integer query parameter, falling back to def when
// missing. Values above max are clamped.
func queryInt(c echo.Context, name string, def, max int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.ErrInvalidArgument(name + " must be a non-negative integer")
	}
	if max > 0 && n > max {
		n = max
	}
	return n, nil
}

// ErrorHandler renders errors that escape handlers, such as middleware
// rejections and unknown routes, in the same envelope
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var httpErr *echo.HTTPError
		if stdErrors.As(err, &httpErr) && httpErr.Code != http.StatusBadRequest {
			_ = c.JSON(httpErr.Code, errs{
				Code:    httpErr.Code,
				Message: http.StatusText(httpErr.Code),
			})
			return
		}
		_ = HandleError(logger, c, err)
	}
}
