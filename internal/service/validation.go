package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/xiaot623/companion/internal/domain"
)

const (
	MaxTextLength        = 2000
	MaxDisplayNameLength = 100
)

// ValidateSessionID checks that id is a UUID.
func ValidateSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: session id must be a valid UUID", domain.ErrValidation)
	}
	return nil
}

// normalizeText trims text and enforces the message length limit.
func normalizeText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: text is required", domain.ErrValidation)
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return "", fmt.Errorf("%w: text must be at most %d characters", domain.ErrValidation, MaxTextLength)
	}
	return text, nil
}

// normalizeDisplayName trims name; an empty result means no name.
func normalizeDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return "", fmt.Errorf("%w: displayName must be at most %d characters", domain.ErrValidation, MaxDisplayNameLength)
	}
	return name, nil
}
