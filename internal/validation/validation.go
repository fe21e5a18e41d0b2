// Package validation provides input validation utilities
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest accepted password, counted in characters.
const MinPasswordLength = 6

var (
	ErrInvalidEmail     = errors.New("Invalid email format")
	ErrPasswordTooShort = errors.New("Password must be at least 6 characters long")
	ErrMissingFields    = errors.New("All fields are required")
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	validate     = validator.New(validator.WithRequiredStructEnabled())
)

// ValidateEmail checks the address has a local part, a domain and a dot-suffix.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword checks the minimum password length.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// Struct runs the `validate` tags on s. Any failed "required" rule reports
// ErrMissingFields; other failures are returned as-is.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if fe.Tag() == "required" {
				return ErrMissingFields
			}
		}
	}
	return err
}

// Blank reports whether s is empty after trimming whitespace.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
