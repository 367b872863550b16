package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"todo-api/internal/models"
)

const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

func ValidatePassword(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength
}

// validateUserName trims name and enforces the users.name column width.
func validateUserName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ValidationError("name is required")
	}
	if utf8.RuneCountInString(name) > models.UserNameMaxLength {
		return "", ValidationError("name must be at most 100 characters")
	}
	return name, nil
}

// validateEmail returns the normalized address.
func validateEmail(email string) (string, error) {
	if !ValidateEmail(email) {
		return "", ValidationError("invalid email format")
	}
	email = NormalizeEmail(email)
	if utf8.RuneCountInString(email) > models.UserEmailMaxLength {
		return "", ValidationError("email must be at most 120 characters")
	}
	return email, nil
}

func validateTaskName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ValidationError("task name is required")
	}
	if utf8.RuneCountInString(name) > models.TaskNameMaxLength {
		return "", ValidationError("task name must be at most 200 characters")
	}
	return name, nil
}

// validateTaskDescription returns nil for a blank description. The length
// limit applies to the input as sent, before trimming.
func validateTaskDescription(description string) (*string, error) {
	if utf8.RuneCountInString(description) > models.TaskDescriptionMaxLength {
		return nil, ValidationError("task description must be at most 1000 characters")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, nil
	}
	return &description, nil
}

func validateTaskStatus(status string) (models.TaskStatus, error) {
	s := models.TaskStatus(strings.TrimSpace(status))
	if !s.Valid() {
		return "", ValidationError("status must be 'pending' or 'completed'")
	}
	return s, nil
}
