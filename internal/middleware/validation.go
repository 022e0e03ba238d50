package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/capitalize-ai/curator-chat/internal/model"
)

const (
	maxMessageLength = 10000
	maxIDLength      = 128
)

// ValidateMessageContent validates message content.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("message cannot be empty")
	}
	if len(content) > maxMessageLength {
		return errors.New("message exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("message must be valid UTF-8")
	}
	return nil
}

// ValidateCategory validates a category identifier.
func ValidateCategory(c model.Category) error {
	if c == "" {
		return errors.New("category is required")
	}
	if !c.Valid() {
		return errors.New("unknown category")
	}
	return nil
}

// ValidateSessionID validates an optional session ID. Any well-formed id is
// accepted; ids that name no session start a new one.
func ValidateSessionID(id string) error {
	return validateID("session ID", id)
}

// ValidateUserID validates a user ID.
func ValidateUserID(id string) error {
	return validateID("user ID", id)
}

func validateID(what, id string) error {
	if len(id) > maxIDLength {
		return errors.New(what + " exceeds maximum length")
	}
	if !utf8.ValidString(id) {
		return errors.New(what + " must be valid UTF-8")
	}
	return nil
}
