package repository

import "errors"

// Storage-level sentinel errors. The auth workflow translates these into its
// own taxonomy; handlers never see them directly.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrRecordNotFound = errors.New("record not found")
)
