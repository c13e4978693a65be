package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_006"
	ErrCodeTimeout            ErrorCode = "COMMON_007"
	ErrCodeValidation         ErrorCode = "COMMON_008"
	ErrCodeSerialization      ErrorCode = "COMMON_009"
	ErrCodeDatabaseError      ErrorCode = "COMMON_010"
	ErrCodeCacheError         ErrorCode = "COMMON_011"
	ErrCodeExternalService    ErrorCode = "COMMON_012"
)

// Case-Law Module Error Codes
const (
	ErrCodeCaseNotFound        ErrorCode = "CASE_001"
	ErrCodeCaseInvalidTID      ErrorCode = "CASE_002"
	ErrCodeCaseInvalidCategory ErrorCode = "CASE_003"
	ErrCodeCaseDetailOrphaned  ErrorCode = "CASE_004"
)

// Search Provider Error Codes
const (
	ErrCodeProviderUnavailable ErrorCode = "SRC_001"
	ErrCodeProviderRateLimited ErrorCode = "SRC_002"
	ErrCodeProviderAuthFailed  ErrorCode = "SRC_003"
	ErrCodeProviderParseError  ErrorCode = "SRC_004"
	ErrCodeProviderNoResponse  ErrorCode = "SRC_005"
)

// Sync Module Error Codes
const (
	ErrCodeSyncInProgress  ErrorCode = "SYNC_001"
	ErrCodeSyncLeaseFailed ErrorCode = "SYNC_002"
	ErrCodeSyncAborted     ErrorCode = "SYNC_003"
)

// Aliases kept for call-site readability.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("")

	CodeDBConnectionError = ErrCodeDatabaseError
	CodeDBQueryError      = ErrCodeDatabaseError
	CodeCacheError        = ErrCodeCacheError
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,

	ErrCodeCaseNotFound:        http.StatusNotFound,
	ErrCodeCaseInvalidTID:      http.StatusBadRequest,
	ErrCodeCaseInvalidCategory: http.StatusBadRequest,
	ErrCodeCaseDetailOrphaned:  http.StatusConflict,

	ErrCodeProviderUnavailable: http.StatusServiceUnavailable,
	ErrCodeProviderRateLimited: http.StatusTooManyRequests,
	ErrCodeProviderAuthFailed:  http.StatusBadGateway,
	ErrCodeProviderParseError:  http.StatusBadGateway,
	ErrCodeProviderNoResponse:  http.StatusBadGateway,

	ErrCodeSyncInProgress:  http.StatusConflict,
	ErrCodeSyncLeaseFailed: http.StatusServiceUnavailable,
	ErrCodeSyncAborted:     http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",

	ErrCodeCaseNotFound:        "case law not found",
	ErrCodeCaseInvalidTID:      "invalid document id",
	ErrCodeCaseInvalidCategory: "invalid case category",
	ErrCodeCaseDetailOrphaned:  "case detail has no matching summary",

	ErrCodeProviderUnavailable: "search provider unavailable",
	ErrCodeProviderRateLimited: "search provider rate limited",
	ErrCodeProviderAuthFailed:  "search provider authentication failed",
	ErrCodeProviderParseError:  "failed to parse provider response",
	ErrCodeProviderNoResponse:  "no response from search provider",

	ErrCodeSyncInProgress:  "sync already in progress",
	ErrCodeSyncLeaseFailed: "failed to acquire sync lease",
	ErrCodeSyncAborted:     "sync run aborted",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
