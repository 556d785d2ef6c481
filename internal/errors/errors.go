// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindUnavailable
)

// Error carries a classification used to pick the HTTP status.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "internal error"
}

func (e *Error) Unwrap() error { return e.Err }

// ErrNotFound is returned by repositories when a record does not exist.
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

func NewNotFound(entity, id string) error {
	return &ErrNotFound{Entity: entity, ID: id}
}

func NewCampaignNotFound(id string) error {
	return NewNotFound("campaign", id)
}

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(message string) error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Unavailable marks err as a datastore/backend connectivity failure.
func Unavailable(err error) error {
	return &Error{Kind: KindUnavailable, Message: "datastore unavailable", Err: err}
}

// GatewayUnavailable marks a failed or rejected call to the messaging gateway.
func GatewayUnavailable(message string, err error) error {
	return &Error{Kind: KindUnavailable, Message: message, Err: err}
}

func Internal(err error) error {
	return &Error{Kind: KindInternal, Err: err}
}

// KindOf walks the chain and reports the first classification found.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var nf *ErrNotFound
	if errors.As(err, &nf) {
		return KindNotFound
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text shown to API clients.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var nf *ErrNotFound
	if errors.As(err, &nf) {
		return nf.Error()
	}
	var ae *Error
	if errors.As(err, &ae) {
		if ae.Message != "" {
			return ae.Message
		}
		if ae.Err != nil {
			return ae.Err.Error()
		}
	}
	return err.Error()
}
