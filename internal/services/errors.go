package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/techinsight/techinsight-be/internal/repository"
)

var (
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("invalid input")

	// ErrInvalidID indicates an identifier that is not a well-formed UUID.
	ErrInvalidID = fmt.Errorf("%w: malformed id", ErrValidation)

	// ErrInvalidParameter indicates a parameter of the wrong type, such as a non-boolean flag.
	ErrInvalidParameter = fmt.Errorf("%w: invalid parameter", ErrValidation)

	// ErrNotFound indicates the account or post does not exist.
	ErrNotFound = repository.ErrNotFound

	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = repository.ErrDuplicateEmail

	// ErrInvalidCredential indicates the password does not match.
	ErrInvalidCredential = errors.New("invalid credentials")
)

// parseID rejects ids that are not UUIDs before they reach a repository.
func parseID(kind, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: %s id is required", ErrValidation, kind)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %s id %q", ErrInvalidID, kind, id)
	}
	return parsed.String(), nil
}
