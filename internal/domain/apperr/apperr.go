// Package apperr defines the closed set of classified outcomes returned by
// the connector core. Boundary layers switch on Kind to pick a response.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an error.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidTransition
	KindNotFound
	KindValidationFailed
	KindConflict
	KindStorageUnavailable
	KindUnauthorized
	KindForbidden
)

// Kinds lists every classified kind.
func Kinds() []Kind {
	return []Kind{
		KindInvalidTransition,
		KindNotFound,
		KindValidationFailed,
		KindConflict,
		KindStorageUnavailable,
		KindUnauthorized,
		KindForbidden,
	}
}

// Code returns the wire error code for the kind.
func (k Kind) Code() string {
	switch k {
	case KindInvalidTransition:
		return "INVALID_TRANSITION"
	case KindNotFound:
		return "NOT_FOUND"
	case KindValidationFailed:
		return "VALIDATION_ERROR"
	case KindConflict:
		return "CONFLICT"
	case KindStorageUnavailable:
		return "STORAGE_UNAVAILABLE"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	default:
		return "INTERNAL_ERROR"
	}
}

// Status returns the HTTP status associated with the kind.
func (k Kind) Status() int {
	switch k {
	case KindInvalidTransition, KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindValidationFailed:
		return http.StatusBadRequest
	case KindStorageUnavailable:
		return http.StatusServiceUnavailable
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	return k.Code()
}

// Violation is a single schema or field violation.
type Violation struct {
	Path        string `json:"path"`
	Description string `json:"description"`
}

func (v Violation) String() string {
	return v.Path + ": " + v.Description
}

// Error is the connector's classified error.
type Error struct {
	Kind       Kind
	Message    string
	Entity     string
	ID         string
	From       string
	To         string
	Violations []Violation
	Err        error
}

// Sentinels for errors.Is matching by kind.
var (
	ErrInvalidTransition  = &Error{Kind: KindInvalidTransition}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrValidationFailed   = &Error{Kind: KindValidationFailed}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrStorageUnavailable = &Error{Kind: KindStorageUnavailable}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrForbidden          = &Error{Kind: KindForbidden}
)

func (e *Error) Error() string {
	var b strings.Builder
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(strings.ToLower(strings.ReplaceAll(e.Kind.Code(), "_", " ")))
	}
	if len(e.Violations) > 0 {
		parts := make([]string, 0, len(e.Violations))
		for _, v := range e.Violations {
			parts = append(parts, v.String())
		}
		b.WriteString(": ")
		b.WriteString(strings.Join(parts, "; "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match when target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// InvalidTransition reports an illegal lifecycle move.
func InvalidTransition(entity, from, to string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("invalid %s transition from %s to %s", entity, from, to),
		Entity:  entity,
		From:    from,
		To:      to,
	}
}

// NotFound reports an absent entity.
func NotFound(entity, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s %s not found", entity, id),
		Entity:  entity,
		ID:      id,
	}
}

// ValidationFailed reports one or more violations.
func ValidationFailed(message string, violations ...Violation) *Error {
	if message == "" {
		message = "validation failed"
	}
	return &Error{
		Kind:       KindValidationFailed,
		Message:    message,
		Violations: violations,
	}
}

// Conflict reports a duplicate identity or a superseded write.
func Conflict(entity, id, message string) *Error {
	return &Error{
		Kind:    KindConflict,
		Message: message,
		Entity:  entity,
		ID:      id,
	}
}

// StorageUnavailable wraps a store failure.
func StorageUnavailable(err error) *Error {
	return &Error{
		Kind:    KindStorageUnavailable,
		Message: "storage unavailable",
		Err:     err,
	}
}

// Unauthorized reports missing or invalid credentials.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// Forbidden reports a refused request from a known caller.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}
