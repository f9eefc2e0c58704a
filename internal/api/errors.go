package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/javiermolinar/dayline/internal/item"
	"github.com/javiermolinar/dayline/internal/planner"
)

// Error is a typed API error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError creates a new Error instance.
func NewError(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches an API code to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors.
var (
	ErrNotFound   = NewError("NOT_FOUND", http.StatusNotFound, "item not found")
	ErrDeleted    = NewError("ITEM_DELETED", http.StatusConflict, "item is in the trash")
	ErrValidation = NewError("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal   = NewError("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	switch {
	case errors.As(err, &e):
		return e
	case errors.Is(err, item.ErrNotFound):
		return Wrap(err, ErrNotFound.Code, ErrNotFound.Status, ErrNotFound.Message)
	case errors.Is(err, planner.ErrDeleted):
		return Wrap(err, ErrDeleted.Code, ErrDeleted.Status, ErrDeleted.Message)
	default:
		return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
	}
}

// toDomain maps an error envelope from the server back to the sentinel the
// session layer understands.
func toDomain(e *Error) error {
	switch e.Code {
	case ErrNotFound.Code:
		return fmt.Errorf("%w: %s", item.ErrNotFound, e.Message)
	case ErrDeleted.Code:
		return fmt.Errorf("%w: %s", planner.ErrDeleted, e.Message)
	default:
		return e
	}
}
