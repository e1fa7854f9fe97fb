// Package apperr defines the tagged error type shared by the gateway.
// Every failure that crosses a package boundary carries a Kind, so the HTTP
// layer can choose a status code and the tests can assert on the category of
// a failure instead of string-matching driver messages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// Validation means the request was rejected before or by the database
	// because a supplied value was malformed.
	Validation Kind = "validation"
	// Unauthorized means a credential check failed.
	Unauthorized Kind = "unauthorized"
	// NotFound means a procedure signalled that the referenced row is missing.
	NotFound Kind = "not_found"
	// Conflict covers uniqueness and referential-integrity violations.
	Conflict Kind = "conflict"
	// Transient covers connectivity loss, timeouts and pool exhaustion.
	Transient Kind = "transient"
	// Internal is everything else.
	Internal Kind = "internal"
)

// E wraps an error with a kind and a message that is safe to show to a caller.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }
func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }

// Invalid builds a Validation error whose message is returned to the client.
func Invalid(msg string) *E { return New(Validation, msg) }

// KindOf returns the kind of the first *E in err's chain, or Internal when
// err carries no classification. A nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *E
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the client-safe message of the first *E in err's chain.
func MessageOf(err error) string {
	var e *E
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

// RemoteError marks a failure reported by the database for a procedure call.
// Whatever its kind, the client only ever sees a generic 500 for it; the kind is
// kept for logs and metrics.
type RemoteError struct {
	Procedure string
	Err       error
}

func (e *RemoteError) Error() string { return "remote call " + e.Procedure + ": " + e.Err.Error() }
func (e *RemoteError) Unwrap() error { return e.Err }

// Remote wraps err as a RemoteError. A nil err stays nil.
func Remote(procedure string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Procedure: procedure, Err: err}
}

// IsRemote reports whether err came back from a procedure call.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
