package errors

import (
	"fmt"
	"net/http"
	"time"
)

// AppError là custom error type cho application
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the underlying error to errors.Is / errors.As
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

func newAppError(httpCode int, code ErrorCode, message string, raw error) AppError {
	return AppError{
		Raw:       raw,
		HTTPCode:  httpCode,
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// General Errors
func ErrInternal(err error) AppError {
	return newAppError(http.StatusInternalServerError, ErrorCode_INTERNAL, "Internal server error", err)
}

func ErrInvalidArgument(message string) AppError {
	return newAppError(http.StatusBadRequest, ErrorCode_INVALID_ARGUMENT, message, nil)
}

func ErrNotFound(resource string) AppError {
	return newAppError(http.StatusNotFound, ErrorCode_NOT_FOUND, fmt.Sprintf("%s not found", resource), nil)
}

func ErrAlreadyExists(resource string) AppError {
	return newAppError(http.StatusConflict, ErrorCode_ALREADY_EXISTS, fmt.Sprintf("%s already exists", resource), nil)
}

func ErrUnauthenticated() AppError {
	return newAppError(http.StatusUnauthorized, ErrorCode_UNAUTHENTICATED, "Authentication required", nil)
}

// ErrForbidden represents a forbidden error.
func ErrForbidden(message string) AppError {
	return newAppError(http.StatusForbidden, ErrorCode_FORBIDDEN, message, nil)
}

func ErrInvalidPayload() AppError {
	return newAppError(http.StatusBadRequest, ErrorCode_INVALID_PAYLOAD, "Invalid payload", nil)
}

// ErrValidation wraps a validator error so the field names reach the client
func ErrValidation(err error) AppError {
	return newAppError(http.StatusBadRequest, ErrorCode_INVALID_ARGUMENT, "Request validation failed", err)
}

// Authentication Errors
func ErrInvalidToken() AppError {
	return newAppError(http.StatusUnauthorized, ErrorCode_AUTH_INVALID_TOKEN, "Invalid authentication token", nil)
}

func ErrTokenExpired() AppError {
	return newAppError(http.StatusUnauthorized, ErrorCode_AUTH_TOKEN_EXPIRED, "Authentication token has expired", nil)
}

// Meeting Errors
func ErrMeetingNotFound(meetingID string) AppError {
	return newAppError(http.StatusNotFound, ErrorCode_MEETING_NOT_FOUND, "Meeting not found", nil).
		WithDetail("meeting_id", meetingID)
}

func ErrMeetingAlreadyEnded(meetingID string) AppError {
	return newAppError(http.StatusConflict, ErrorCode_MEETING_ALREADY_ENDED, "Meeting has already ended", nil).
		WithDetail("meeting_id", meetingID)
}

func ErrActionItemNotFound(actionID string) AppError {
	return newAppError(http.StatusNotFound, ErrorCode_ACTION_ITEM_NOT_FOUND, "Action item not found", nil).
		WithDetail("action_item_id", actionID)
}

func ErrInvalidStatus(status string) AppError {
	return newAppError(http.StatusBadRequest, ErrorCode_INVALID_STATUS, "Invalid action item status", nil).
		WithDetail("status", status)
}

func ErrInvalidTimeRange(startMs, endMs int64) AppError {
	return newAppError(http.StatusBadRequest, ErrorCode_INVALID_TIME_RANGE, "Segment end precedes start", nil).
		WithDetail("start_ms", fmt.Sprintf("%d", startMs)).
		WithDetail("end_ms", fmt.Sprintf("%d", endMs))
}

// Knowledge Errors
func ErrKnowledgeSourceNotFound(sourceID string) AppError {
	return newAppError(http.StatusNotFound, ErrorCode_KNOWLEDGE_SOURCE_NOT_FOUND, "Knowledge source not found", nil).
		WithDetail("source_id", sourceID)
}

func ErrEmptyContent() AppError {
	return newAppError(http.StatusBadRequest, ErrorCode_EMPTY_CONTENT, "Content is empty", nil)
}

func ErrIngestionFailed(err error) AppError {
	return newAppError(http.StatusInternalServerError, ErrorCode_INGESTION_FAILED, "Ingestion failed", err)
}

// AI Collaborator Errors
func ErrExtractionFailed(err error) AppError {
	return newAppError(http.StatusBadGateway, ErrorCode_AI_EXTRACTION_FAILED, "Entity extraction failed", err)
}

func ErrEmbeddingFailed(err error) AppError {
	return newAppError(http.StatusBadGateway, ErrorCode_AI_EMBEDDING_FAILED, "Embedding failed", err)
}

func ErrCompletionFailed(err error) AppError {
	return newAppError(http.StatusBadGateway, ErrorCode_AI_COMPLETION_FAILED, "Language model request failed", err)
}

func ErrDiarizationFailed(err error) AppError {
	return newAppError(http.StatusBadGateway, ErrorCode_AI_DIARIZATION_FAILED, "Speaker diarization failed", err)
}

func ErrAIServiceDisabled(service string) AppError {
	return newAppError(http.StatusServiceUnavailable, ErrorCode_AI_SERVICE_DISABLED, "AI service is not configured", nil).
		WithDetail("service", service)
}

// Integration Errors
func ErrStorageFailed(operation string, err error) AppError {
	return newAppError(http.StatusInternalServerError, ErrorCode_INTEGRATION_STORAGE_FAILED,
		fmt.Sprintf("Storage operation failed: %s", operation), err)
}

func ErrCacheFailed(operation string, err error) AppError {
	return newAppError(http.StatusInternalServerError, ErrorCode_INTEGRATION_CACHE_FAILED,
		fmt.Sprintf("Cache operation failed: %s", operation), err)
}

func ErrExternalAPIFailed(service string, err error) AppError {
	return newAppError(http.StatusBadGateway, ErrorCode_INTEGRATION_EXTERNAL_API_FAILED,
		fmt.Sprintf("External API call failed: %s", service), err)
}

// Database Errors
func ErrStoreUnavailable(err error) AppError {
	return newAppError(http.StatusServiceUnavailable, ErrorCode_STORE_UNAVAILABLE, "Knowledge store unavailable", err)
}

func ErrDBQueryFailed(query string, err error) AppError {
	return newAppError(http.StatusInternalServerError, ErrorCode_DB_QUERY_FAILED, "Database query failed", err).
		WithDetail("query", query)
}

func ErrDBTransactionFailed(err error) AppError {
	return newAppError(http.StatusInternalServerError, ErrorCode_DB_TRANSACTION_FAILED, "Database transaction failed", err)
}

func ErrMalformedRecord(table, id string, err error) AppError {
	return newAppError(http.StatusInternalServerError, ErrorCode_MALFORMED_RECORD, "Stored record could not be decoded", err).
		WithDetail("table", table).
		WithDetail("id", id)
}

// HTTPStatusOK represents a successful HTTP response.
func HTTPStatusOK(message string) AppError {
	return newAppError(http.StatusOK, ErrorCode_HTTP_OK, message, nil)
}
