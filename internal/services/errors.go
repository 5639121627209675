package services

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindAuthRequired
	KindForbidden
	KindNotFound
	KindConflict
	KindValidation
	KindRateLimited
)

// Status maps a kind onto its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindAuthRequired:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// ServiceError is the error type returned for every expected failure.
// Code is stable and meant for clients; Message is for humans.
type ServiceError struct {
	Kind    Kind
	Code    string
	Message string
}

func (e ServiceError) Error() string {
	return e.Message
}

var (
	ErrBedNotFound        = ServiceError{Kind: KindNotFound, Code: "BED_NOT_FOUND", Message: "Bed not found"}
	ErrBedUnavailable     = ServiceError{Kind: KindConflict, Code: "BED_UNAVAILABLE", Message: "Bed not available"}
	ErrAlreadyProcessed   = ServiceError{Kind: KindConflict, Code: "ALREADY_PROCESSED", Message: "Request already processed"}
	ErrDuplicateUsername  = ServiceError{Kind: KindConflict, Code: "DUPLICATE_USERNAME", Message: "Username already exists"}
	ErrPendingRequest     = ServiceError{Kind: KindConflict, Code: "PENDING_REQUEST_EXISTS", Message: "A pending request already exists"}
	ErrInvalidCredentials = ServiceError{Kind: KindAuthRequired, Code: "AUTH_REQUIRED", Message: "Invalid credentials"}
	ErrIncorrectPassword  = ServiceError{Kind: KindValidation, Code: "VALIDATION_FAILED", Message: "Current password is incorrect"}
	ErrNoRoomAssigned     = ServiceError{Kind: KindNotFound, Code: "NOT_FOUND", Message: "No room assigned"}
	ErrAuthRequired       = ServiceError{Kind: KindAuthRequired, Code: "AUTH_REQUIRED", Message: "Access token required"}
	ErrInsufficientRole   = ServiceError{Kind: KindForbidden, Code: "FORBIDDEN", Message: "Access denied"}
	ErrRateLimited        = ServiceError{Kind: KindRateLimited, Code: "RATE_LIMITED", Message: "Too many requests"}
	errInternal           = ServiceError{Kind: KindInternal, Code: "INTERNAL", Message: "Internal server error"}
)

func ErrNotFound(msg string) error {
	return ServiceError{Kind: KindNotFound, Code: "NOT_FOUND", Message: msg}
}

func ErrValidation(msg string) error {
	return ServiceError{Kind: KindValidation, Code: "VALIDATION_FAILED", Message: msg}
}

func ErrConflict(msg string) error {
	return ServiceError{Kind: KindConflict, Code: "DUPLICATE", Message: msg}
}

func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// AsServiceError unwraps err into a ServiceError. Anything that is not one
// becomes an Internal error.
func AsServiceError(err error) ServiceError {
	var svcErr ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return errInternal
}
