package errors

import (
	"fmt"
)

// MissingEnvError represents a required environment variable that wasn't set.
type MissingEnvError struct {
	Name string
}

func (err MissingEnvError) Error() string {
	return err.FriendlyMessage()
}

// FriendlyMessage returns the message to show the user.
func (err MissingEnvError) FriendlyMessage() string {
	return fmt.Sprintf("The environment variable %s is required.", err.Name)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}
