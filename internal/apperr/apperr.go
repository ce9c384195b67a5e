// Package apperr defines the error taxonomy shared by every workflow.
//
// Fatal kinds (ConfigNotFound, MissingInput, CredentialMissing) are checked once
// when a command starts and abort it. The remaining kinds describe a failure of a
// single work item: the orchestrator reports them and moves on to the next item.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies a category of failure.
type Kind string

const (
	KindConfigNotFound    Kind = "CONFIG_NOT_FOUND"
	KindMissingInput      Kind = "MISSING_INPUT"
	KindCredentialMissing Kind = "CREDENTIAL_MISSING"
	KindParse             Kind = "PARSE_ERROR"
	KindModel             Kind = "MODEL_ERROR"
	KindFormat            Kind = "FORMAT_ERROR"
	KindWrite             Kind = "WRITE_ERROR"
)

// Fatal reports whether errors of this kind stop the whole command.
func (k Kind) Fatal() bool {
	switch k {
	case KindConfigNotFound, KindMissingInput, KindCredentialMissing:
		return true
	}
	return false
}

// Error is a categorised application error.
type Error struct {
	Kind    Kind
	Message string
	// Item names the offending file, mutant or path, when there is one.
	Item  string
	Cause error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same kind, so sentinel values built with New
// can be used with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(err error, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithItem records the work item the error belongs to.
func (e *Error) WithItem(item string) *Error {
	e.Item = item
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or "" when err
// carries no classification.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// IsFatal reports whether err must abort the running command.
func IsFatal(err error) bool {
	return KindOf(err).Fatal()
}

// Sentinels for errors.Is checks.
var (
	ErrConfigNotFound    = &Error{Kind: KindConfigNotFound}
	ErrMissingInput      = &Error{Kind: KindMissingInput}
	ErrCredentialMissing = &Error{Kind: KindCredentialMissing}
	ErrParse             = &Error{Kind: KindParse}
	ErrModel             = &Error{Kind: KindModel}
	ErrFormat            = &Error{Kind: KindFormat}
	ErrWrite             = &Error{Kind: KindWrite}
)
