package apicore

import (
	"errors"
	"fmt"

	"github.com/raworc/raworc/pkg/models"
)

// Error is the typed domain error API Core returns, carrying the error kind
// taxonomy of spec.md §7 so a transport layer can map it to a status class
// without re-deriving it from the error text.
type Error struct {
	Kind    models.ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Body projects the error into the wire envelope of spec.md §6.3.
func (e *Error) Body() models.ErrorBody {
	return models.ErrorBody{Message: e.Message, Kind: e.Kind}
}

func newError(kind models.ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func validationErr(format string, args ...any) *Error {
	return newError(models.ErrorKindValidation, fmt.Sprintf(format, args...), nil)
}

func conflictErr(format string, args ...any) *Error {
	return newError(models.ErrorKindConflict, fmt.Sprintf(format, args...), nil)
}

func notFoundErr(format string, args ...any) *Error {
	return newError(models.ErrorKindNotFound, fmt.Sprintf(format, args...), nil)
}

func internalErr(message string, cause error) *Error {
	return newError(models.ErrorKindInternal, message, cause)
}

// KindOf classifies an arbitrary error for callers that did not originate
// it as an *Error (e.g. a bare store.ErrNotFound bubbling up unwrapped).
func KindOf(err error) models.ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return models.ErrorKindInternal
}
