package errors

import (
	goerrors "errors"
	"fmt"
)

// New returns an error with the given message.
func New(msg string) error {
	return goerrors.New(msg)
}

// ContextError annotates an error with the operation that failed.
type ContextError struct {
	Context string
	Err     error
}

func (err ContextError) Error() string {
	return fmt.Sprintf("%s: %s", err.Context, err.Err)
}

// Unwrap returns the wrapped error.
func (err ContextError) Unwrap() error {
	return err.Err
}

// WithContext wraps err with a short description of what was being attempted.
func WithContext(err error, context string) error {
	return ContextError{Context: context, Err: err}
}

// FriendlyError is a message that's intended to be read by the user, so it's
// printed without any additional error context.
type FriendlyError struct {
	Message string
}

func (err FriendlyError) Error() string {
	return err.Message
}

// FriendlyMessage returns the message to show the user.
func (err FriendlyError) FriendlyMessage() string {
	return err.Message
}

// NewFriendlyError creates a new FriendlyError with the given format string.
func NewFriendlyError(format string, args ...interface{}) error {
	return FriendlyError{Message: fmt.Sprintf(format, args...)}
}

type friendlyError interface {
	FriendlyMessage() string
}

// GetPrintableMessage returns the message that should be shown to the user
// for the given error. If any error in the chain is friendly, its message is
// used directly. Otherwise, the full error chain is printed.
func GetPrintableMessage(err error) string {
	for curr := err; curr != nil; curr = goerrors.Unwrap(curr) {
		if friendly, ok := curr.(friendlyError); ok {
			return friendly.FriendlyMessage()
		}
	}
	return err.Error()
}
