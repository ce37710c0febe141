package errors

// ErrorCode is the application level error code carried by AppError
type ErrorCode int

const (
	ErrorCode_HTTP_OK ErrorCode = 200

	// General
	ErrorCode_INTERNAL          ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT  ErrorCode = 1001
	ErrorCode_NOT_FOUND         ErrorCode = 1002
	ErrorCode_ALREADY_EXISTS    ErrorCode = 1003
	ErrorCode_PERMISSION_DENIED ErrorCode = 1004
	ErrorCode_UNAUTHENTICATED   ErrorCode = 1005
	ErrorCode_FORBIDDEN         ErrorCode = 1006
	ErrorCode_INVALID_PAYLOAD   ErrorCode = 1007

	// Authentication
	ErrorCode_AUTH_INVALID_TOKEN         ErrorCode = 2000
	ErrorCode_AUTH_TOKEN_EXPIRED         ErrorCode = 2001
	ErrorCode_AUTH_USER_NOT_FOUND        ErrorCode = 2002
	ErrorCode_AUTH_INVALID_REFRESH_TOKEN ErrorCode = 2003
	ErrorCode_AUTH_OAUTH_FAILED          ErrorCode = 2004

	// Contacts
	ErrorCode_CONTACT_NOT_FOUND      ErrorCode = 3000
	ErrorCode_CONTACT_INVALID_STATUS ErrorCode = 3001
	ErrorCode_EMAIL_NOT_FOUND        ErrorCode = 3002

	// Interactions
	ErrorCode_INTERACTION_NOT_FOUND ErrorCode = 4000
	ErrorCode_INTERACTION_INVALID   ErrorCode = 4001

	// Analysis
	ErrorCode_ANALYSIS_NOT_FOUND      ErrorCode = 5000
	ErrorCode_ANALYSIS_FAILED         ErrorCode = 5001
	ErrorCode_ANALYSIS_ENQUEUE_FAILED ErrorCode = 5002
	ErrorCode_AI_SERVICE_UNAVAILABLE  ErrorCode = 5003

	// Google sync
	ErrorCode_SYNC_FAILED         ErrorCode = 6000
	ErrorCode_SYNC_HEADER_PARSING ErrorCode = 6001

	// Integrations
	ErrorCode_INTEGRATION_STORAGE_FAILED      ErrorCode = 7000
	ErrorCode_INTEGRATION_CACHE_FAILED        ErrorCode = 7001
	ErrorCode_INTEGRATION_EXTERNAL_API_FAILED ErrorCode = 7002

	// Database
	ErrorCode_DB_CONNECTION_FAILED  ErrorCode = 8000
	ErrorCode_DB_QUERY_FAILED       ErrorCode = 8001
	ErrorCode_DB_TRANSACTION_FAILED ErrorCode = 8002
)

var codeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                         "HTTP_OK",
	ErrorCode_INTERNAL:                        "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:                "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                       "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:                  "ALREADY_EXISTS",
	ErrorCode_PERMISSION_DENIED:               "PERMISSION_DENIED",
	ErrorCode_UNAUTHENTICATED:                 "UNAUTHENTICATED",
	ErrorCode_FORBIDDEN:                       "FORBIDDEN",
	ErrorCode_INVALID_PAYLOAD:                 "INVALID_PAYLOAD",
	ErrorCode_AUTH_INVALID_TOKEN:              "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:              "AUTH_TOKEN_EXPIRED",
	ErrorCode_AUTH_USER_NOT_FOUND:             "AUTH_USER_NOT_FOUND",
	ErrorCode_AUTH_INVALID_REFRESH_TOKEN:      "AUTH_INVALID_REFRESH_TOKEN",
	ErrorCode_AUTH_OAUTH_FAILED:               "AUTH_OAUTH_FAILED",
	ErrorCode_CONTACT_NOT_FOUND:               "CONTACT_NOT_FOUND",
	ErrorCode_CONTACT_INVALID_STATUS:          "CONTACT_INVALID_STATUS",
	ErrorCode_EMAIL_NOT_FOUND:                 "EMAIL_NOT_FOUND",
	ErrorCode_INTERACTION_NOT_FOUND:           "INTERACTION_NOT_FOUND",
	ErrorCode_INTERACTION_INVALID:             "INTERACTION_INVALID",
	ErrorCode_ANALYSIS_NOT_FOUND:              "ANALYSIS_NOT_FOUND",
	ErrorCode_ANALYSIS_FAILED:                 "ANALYSIS_FAILED",
	ErrorCode_ANALYSIS_ENQUEUE_FAILED:         "ANALYSIS_ENQUEUE_FAILED",
	ErrorCode_AI_SERVICE_UNAVAILABLE:          "AI_SERVICE_UNAVAILABLE",
	ErrorCode_SYNC_FAILED:                     "SYNC_FAILED",
	ErrorCode_SYNC_HEADER_PARSING:             "SYNC_HEADER_PARSING",
	ErrorCode_INTEGRATION_STORAGE_FAILED:      "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:        "INTEGRATION_CACHE_FAILED",
	ErrorCode_INTEGRATION_EXTERNAL_API_FAILED: "INTEGRATION_EXTERNAL_API_FAILED",
	ErrorCode_DB_CONNECTION_FAILED:            "DB_CONNECTION_FAILED",
	ErrorCode_DB_QUERY_FAILED:                 "DB_QUERY_FAILED",
	ErrorCode_DB_TRANSACTION_FAILED:           "DB_TRANSACTION_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
