package errors

import (
	"errors"
	"net/http"
)

type AppError struct {
	Code       string
	Message    string
	Detail     string
	StatusCode int
	Err        error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports a match on Code, so errors.Is works against the sentinel values
// regardless of Message or Detail.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}

	return e.Code == t.Code
}

func NewAppError(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail

	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err

	return e
}

const (
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeBadRequest            = "BAD_REQUEST"
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeInternal              = "INTERNAL_ERROR"
	ErrCodeCatalogUnavailable    = "CATALOG_UNAVAILABLE"
	ErrCodeValidationIncomplete  = "VALIDATION_INCOMPLETE"
	ErrCodeSubmissionRejected    = "SUBMISSION_REJECTED"
	ErrCodeSubmissionUnreachable = "SUBMISSION_UNREACHABLE"
	ErrCodeInvalidTransition     = "INVALID_TRANSITION"
	ErrCodeSubmissionInFlight    = "SUBMISSION_IN_FLIGHT"
	ErrCodeTooManyRequests       = "TOO_MANY_REQUESTS"
	ErrCodeSessionCapacity       = "SESSION_CAPACITY"
	ErrCodeSessionAbandoned      = "SESSION_ABANDONED"
)

var (
	ErrInvalidTransition  = NewAppError(ErrCodeInvalidTransition, "Action not allowed in the current view", http.StatusConflict)
	ErrSubmissionInFlight = NewAppError(ErrCodeSubmissionInFlight, "An order is already being placed", http.StatusConflict)
)

func BadRequestError(message string) *AppError {
	return NewAppError(ErrCodeBadRequest, message, http.StatusBadRequest)
}

func NotFoundError(message string) *AppError {
	return NewAppError(ErrCodeNotFound, message, http.StatusNotFound)
}

func InternalError(message string) *AppError {
	return NewAppError(ErrCodeInternal, message, http.StatusInternalServerError)
}

// catalog failures never reach a client; they are logged and degraded to empty results.
func CatalogUnavailableError(message string) *AppError {
	return NewAppError(ErrCodeCatalogUnavailable, message, http.StatusServiceUnavailable)
}

func ValidationIncompleteError(message string) *AppError {
	return NewAppError(ErrCodeValidationIncomplete, message, http.StatusUnprocessableEntity)
}

func SubmissionRejectedError(message string) *AppError {
	return NewAppError(ErrCodeSubmissionRejected, message, http.StatusBadGateway)
}

func SubmissionUnreachableError(message string) *AppError {
	return NewAppError(ErrCodeSubmissionUnreachable, message, http.StatusServiceUnavailable)
}

func TooManyRequestsError(message string) *AppError {
	return NewAppError(ErrCodeTooManyRequests, message, http.StatusTooManyRequests)
}

func SessionCapacityError(message string) *AppError {
	return NewAppError(ErrCodeSessionCapacity, message, http.StatusServiceUnavailable)
}

// SessionAbandonedError reports a submission whose session was left while it
// was in flight.
func SessionAbandonedError(message string) *AppError {
	return NewAppError(ErrCodeSessionAbandoned, message, http.StatusConflict)
}

func IsAppError(err error) (*AppError, bool) {
	var appError *AppError

	if errors.As(err, &appError) {
		return appError, true
	}

	return nil, false
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	appErr, ok := IsAppError(err)

	return ok && appErr.Code == code
}
