package auth

import (
	"errors"
	"fmt"
	"strings"
)

// Workflow error taxonomy. Handlers map these to HTTP statuses; nothing else
// should cross the service boundary.
var (
	ErrEmailAlreadyExists      = errors.New("email already exists")
	ErrRegistrationFailed      = errors.New("registration failed")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrUserInactive            = errors.New("user inactive")
	ErrLoginFailed             = errors.New("login failed")
	ErrTokenExpired            = errors.New("token expired")
	ErrInvalidToken            = errors.New("invalid token")
	ErrTokenVerificationFailed = errors.New("token verification failed")
	ErrUserNotFound            = errors.New("user not found")
	ErrProfileFetchFailed      = errors.New("profile fetch failed")
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every violated field of a request so the caller
// sees all problems at once.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(parts, ", "))
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
