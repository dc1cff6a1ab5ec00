package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to API callers.
const (
	CodeValidation      = "VALIDATION_FAILED"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeRoleResolution  = "ROLE_RESOLUTION_FAILED"
	CodeNotOwner        = "NOT_OWNER"
	CodeForbidden       = "FORBIDDEN"
	CodeInvalidAssignee = "INVALID_ASSIGNEE"
	CodeTransition      = "TRANSITION_NOT_ALLOWED"
	CodeStore           = "STORE_ERROR"
	CodeConflict        = "CONFLICT"
	CodeStaleView       = "STALE_VIEW"
	CodeInternal        = "INTERNAL_ERROR"
)

// Sentinels for errors.Is matching. Any DomainError with the same code matches.
var (
	ErrValidation      = &DomainError{Code: CodeValidation}
	ErrNotFound        = &DomainError{Code: CodeNotFound}
	ErrUnauthenticated = &DomainError{Code: CodeUnauthenticated}
	ErrRoleResolution  = &DomainError{Code: CodeRoleResolution}
	ErrNotOwner        = &DomainError{Code: CodeNotOwner}
	ErrForbidden       = &DomainError{Code: CodeForbidden}
	ErrInvalidAssignee = &DomainError{Code: CodeInvalidAssignee}
	ErrTransition      = &DomainError{Code: CodeTransition}
	ErrStore           = &DomainError{Code: CodeStore}
	ErrConflict        = &DomainError{Code: CodeConflict}
	ErrStaleView       = &DomainError{Code: CodeStaleView}
)

// StoreErrorKind classifies backing-store failures.
type StoreErrorKind string

const (
	StoreConnectivity StoreErrorKind = "connectivity"
	StorePermission   StoreErrorKind = "permission"
	StoreValidation   StoreErrorKind = "validation"
	StoreNotFound     StoreErrorKind = "not_found"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthenticated(message string) error {
	return NewDomainError(CodeUnauthenticated, message, http.StatusUnauthorized, nil)
}

// NewRoleResolutionError is returned when an authenticated principal has no usable role.
func NewRoleResolutionError(message string, err error) error {
	de := NewDomainError(CodeRoleResolution, message, http.StatusForbidden, nil)
	de.Err = err
	return de
}

func NewNotOwner(message string) error {
	return NewDomainError(CodeNotOwner, message, http.StatusForbidden, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewInvalidAssignee(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidAssignee, message, http.StatusUnprocessableEntity, details)
}

func NewTransitionError(message string, details map[string]any) error {
	return NewDomainError(CodeTransition, message, http.StatusConflict, details)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewStoreError wraps a backing-store failure with its kind.
func NewStoreError(kind StoreErrorKind, err error) error {
	status := http.StatusServiceUnavailable
	switch kind {
	case StoreValidation:
		status = http.StatusBadRequest
	case StoreNotFound:
		status = http.StatusNotFound
	case StorePermission:
		status = http.StatusForbidden
	}
	return &DomainError{
		Code:       CodeStore,
		Message:    fmt.Sprintf("store %s error", kind),
		HTTPStatus: status,
		Details:    map[string]any{"kind": string(kind)},
		Err:        err,
	}
}

// NewStaleViewError reports that a failed write could not be reconciled because
// the authoritative re-read failed too. Both causes stay reachable via errors.Is.
func NewStaleViewError(writeErr, readErr error) error {
	return &DomainError{
		Code:       CodeStaleView,
		Message:    "view is stale; full reload required",
		HTTPStatus: http.StatusConflict,
		Err:        errors.Join(writeErr, readErr),
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// StoreKind extracts the kind of a store error anywhere in the chain.
func StoreKind(err error) (StoreErrorKind, bool) {
	var de *DomainError
	for err != nil {
		if !errors.As(err, &de) {
			return "", false
		}
		if de.Code == CodeStore {
			kind, _ := de.Details["kind"].(string)
			return StoreErrorKind(kind), true
		}
		err = de.Err
	}
	return "", false
}

// IsNotFound reports a not-found result from either the store or a service lookup.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	kind, ok := StoreKind(err)
	return ok && kind == StoreNotFound
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
