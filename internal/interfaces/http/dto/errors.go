package dto

import "net/http"

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeValidation is the base code for request validation errors
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "INVALID_JSON"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

// ErrorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Ledger validation failures surface as 422 so clients can distinguish
// "well-formed but rejected by the books" from malformed input.
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Request shape errors -> 400 Bad Request
	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	// Missing resources -> 404 Not Found
	ErrCodeNotFound:          http.StatusNotFound,
	"DOCUMENT_NOT_FOUND":     http.StatusNotFound,
	"COUNTERPARTY_NOT_FOUND": http.StatusNotFound,
	"LINE_NOT_FOUND":         http.StatusNotFound,

	// Conflicts -> 409
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	"ALREADY_EXISTS":           http.StatusConflict,

	// Invalid input values -> 400 Bad Request
	"INVALID_AMOUNT":          http.StatusBadRequest,
	"INVALID_QUANTITY":        http.StatusBadRequest,
	"INVALID_PRICE":           http.StatusBadRequest,
	"INVALID_DOCUMENT_TYPE":   http.StatusBadRequest,
	"INVALID_COUNTERPARTY":    http.StatusBadRequest,
	"INVALID_PAYMENT_METHOD":  http.StatusBadRequest,
	"INVALID_SETTLEMENT_TYPE": http.StatusBadRequest,
	"EMPTY_DOCUMENT":          http.StatusBadRequest,
	"MEMO_REQUIRED":           http.StatusBadRequest,
	"INVALID_INPUT":           http.StatusBadRequest,

	// Ledger rule violations -> 422 Unprocessable Entity
	"OVERPAYMENT_REJECTED":  http.StatusUnprocessableEntity,
	"EMPTY_RETURN":          http.StatusUnprocessableEntity,
	"OVER_RETURN_REJECTED":  http.StatusUnprocessableEntity,
	"DOCUMENT_HAS_ENTRIES":  http.StatusUnprocessableEntity,
	"COUNTERPARTY_MISMATCH": http.StatusUnprocessableEntity,
	"ALLOCATION_MISMATCH":   http.StatusUnprocessableEntity,
	"INSUFFICIENT_CREDIT":   http.StatusUnprocessableEntity,
	"INVALID_STATE":         http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
