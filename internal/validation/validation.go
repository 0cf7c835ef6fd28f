package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// MaxNameLength bounds member and tree names, in runes
const MaxNameLength = 100

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateName checks a person or tree name held in field
func ValidateName(field, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, MaxNameLength)}
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return ValidationError{Field: field, Message: field + " contains invalid characters"}
		}
	}
	return nil
}

// ValidateLifeDates checks that a death date does not precede the birth date
func ValidateLifeDates(birth, death *time.Time) error {
	if birth != nil && death != nil && death.Before(*birth) {
		return ValidationError{Field: "dateOfDeath", Message: "date of death is before date of birth"}
	}
	return nil
}
