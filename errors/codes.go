package errors

// ErrorCode identifies an application error independent of its HTTP status
type ErrorCode int32

const (
	ErrorCode_UNSPECIFIED ErrorCode = 0
	ErrorCode_HTTP_OK     ErrorCode = 200

	// General
	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_NOT_FOUND        ErrorCode = 1002
	ErrorCode_ALREADY_EXISTS   ErrorCode = 1003
	ErrorCode_UNAUTHENTICATED  ErrorCode = 1004
	ErrorCode_FORBIDDEN        ErrorCode = 1005
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1006

	// Auth
	ErrorCode_AUTH_INVALID_TOKEN ErrorCode = 2000
	ErrorCode_AUTH_TOKEN_EXPIRED ErrorCode = 2001

	// Meetings
	ErrorCode_MEETING_NOT_FOUND     ErrorCode = 3000
	ErrorCode_MEETING_ALREADY_ENDED ErrorCode = 3001
	ErrorCode_ACTION_ITEM_NOT_FOUND ErrorCode = 3002
	ErrorCode_INVALID_STATUS        ErrorCode = 3003
	ErrorCode_INVALID_TIME_RANGE    ErrorCode = 3004

	// Knowledge
	ErrorCode_KNOWLEDGE_SOURCE_NOT_FOUND ErrorCode = 4000
	ErrorCode_EMPTY_CONTENT              ErrorCode = 4001
	ErrorCode_INGESTION_FAILED           ErrorCode = 4002

	// AI collaborators
	ErrorCode_AI_EXTRACTION_FAILED  ErrorCode = 5000
	ErrorCode_AI_EMBEDDING_FAILED   ErrorCode = 5001
	ErrorCode_AI_COMPLETION_FAILED  ErrorCode = 5002
	ErrorCode_AI_DIARIZATION_FAILED ErrorCode = 5003
	ErrorCode_AI_SERVICE_DISABLED   ErrorCode = 5004

	// Integrations
	ErrorCode_INTEGRATION_STORAGE_FAILED      ErrorCode = 6000
	ErrorCode_INTEGRATION_CACHE_FAILED        ErrorCode = 6001
	ErrorCode_INTEGRATION_EXTERNAL_API_FAILED ErrorCode = 6002

	// Database
	ErrorCode_STORE_UNAVAILABLE     ErrorCode = 7000
	ErrorCode_DB_QUERY_FAILED       ErrorCode = 7001
	ErrorCode_DB_TRANSACTION_FAILED ErrorCode = 7002
	ErrorCode_MALFORMED_RECORD      ErrorCode = 7003
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_UNSPECIFIED:                     "UNSPECIFIED",
	ErrorCode_HTTP_OK:                         "OK",
	ErrorCode_INTERNAL:                        "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:                "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                       "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:                  "ALREADY_EXISTS",
	ErrorCode_UNAUTHENTICATED:                 "UNAUTHENTICATED",
	ErrorCode_FORBIDDEN:                       "FORBIDDEN",
	ErrorCode_INVALID_PAYLOAD:                 "INVALID_PAYLOAD",
	ErrorCode_AUTH_INVALID_TOKEN:              "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:              "AUTH_TOKEN_EXPIRED",
	ErrorCode_MEETING_NOT_FOUND:               "MEETING_NOT_FOUND",
	ErrorCode_MEETING_ALREADY_ENDED:           "MEETING_ALREADY_ENDED",
	ErrorCode_ACTION_ITEM_NOT_FOUND:           "ACTION_ITEM_NOT_FOUND",
	ErrorCode_INVALID_STATUS:                  "INVALID_STATUS",
	ErrorCode_INVALID_TIME_RANGE:              "INVALID_TIME_RANGE",
	ErrorCode_KNOWLEDGE_SOURCE_NOT_FOUND:      "KNOWLEDGE_SOURCE_NOT_FOUND",
	ErrorCode_EMPTY_CONTENT:                   "EMPTY_CONTENT",
	ErrorCode_INGESTION_FAILED:                "INGESTION_FAILED",
	ErrorCode_AI_EXTRACTION_FAILED:            "AI_EXTRACTION_FAILED",
	ErrorCode_AI_EMBEDDING_FAILED:             "AI_EMBEDDING_FAILED",
	ErrorCode_AI_COMPLETION_FAILED:            "AI_COMPLETION_FAILED",
	ErrorCode_AI_DIARIZATION_FAILED:           "AI_DIARIZATION_FAILED",
	ErrorCode_AI_SERVICE_DISABLED:             "AI_SERVICE_DISABLED",
	ErrorCode_INTEGRATION_STORAGE_FAILED:      "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:        "INTEGRATION_CACHE_FAILED",
	ErrorCode_INTEGRATION_EXTERNAL_API_FAILED: "INTEGRATION_EXTERNAL_API_FAILED",
	ErrorCode_STORE_UNAVAILABLE:               "STORE_UNAVAILABLE",
	ErrorCode_DB_QUERY_FAILED:                 "DB_QUERY_FAILED",
	ErrorCode_DB_TRANSACTION_FAILED:           "DB_TRANSACTION_FAILED",
	ErrorCode_MALFORMED_RECORD:                "MALFORMED_RECORD",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
