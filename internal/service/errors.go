package service

import (
	"errors"
	"fmt"

	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub010/internal/repository"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnavailable       = errors.New("feature not enabled")
)

// invalid wraps ErrInvalidInput with a message for the client.
func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func forbidden(msg string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, msg)
}

// staleAsTransition reports a lost status race as an invalid transition.
func staleAsTransition(err error) error {
	if errors.Is(err, repository.ErrStaleStatus) {
		return fmt.Errorf("%w: complaint was updated by someone else, reload and retry", ErrInvalidTransition)
	}
	return err
}
