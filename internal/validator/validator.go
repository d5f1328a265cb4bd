package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidLogin       = errors.New("invalid login")
	ErrInvalidDisplayName = errors.New("invalid display name")
	ErrInvalidPassword    = errors.New("invalid password")
)

// Logins are either phone numbers or short handles.
var (
	phoneRegex  = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	handleRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
)

func ValidateLogin(login string) error {
	if phoneRegex.MatchString(login) || handleRegex.MatchString(login) {
		return nil
	}
	return ErrInvalidLogin
}

func ValidateDisplayName(name string) error {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < 1 || len(trimmed) > 64 {
		return ErrInvalidDisplayName
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}
