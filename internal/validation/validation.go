// Package validation checks moderation inputs against configured length bounds.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vitrine-craques/video-moderation-go/internal/config"
	"github.com/vitrine-craques/video-moderation-go/internal/models"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Bounds is an inclusive range of allowed lengths, counted in characters.
type Bounds struct {
	Min int
	Max int
}

// Validator checks block reasons, appeal messages and appeal responses.
type Validator struct {
	reason   Bounds
	appeal   Bounds
	response Bounds
}

// New creates a Validator from the moderation configuration.
func New(cfg config.ModerationConfig) *Validator {
	return &Validator{
		reason:   Bounds{Min: cfg.ReasonMinLength, Max: cfg.ReasonMaxLength},
		appeal:   Bounds{Min: cfg.AppealMinLength, Max: cfg.AppealMaxLength},
		response: Bounds{Min: cfg.ResponseMinLength, Max: cfg.ResponseMaxLength},
	}
}

// ValidateBlockReason trims reason and checks its length.
func (v *Validator) ValidateBlockReason(reason string) (string, error) {
	return checkLength("reason", reason, v.reason)
}

// ValidateAppealMessage trims message and checks its length.
func (v *Validator) ValidateAppealMessage(message string) (string, error) {
	return checkLength("message", message, v.appeal)
}

// ValidateDecision checks the decision value and the trimmed response length.
func (v *Validator) ValidateDecision(decision models.Decision, response string) (string, error) {
	if !decision.Valid() {
		return "", &FieldError{Field: "decision", Message: `must be "approve" or "reject"`}
	}
	return checkLength("response", response, v.response)
}

func checkLength(field, value string, b Bounds) (string, error) {
	value = strings.TrimSpace(value)
	n := utf8.RuneCountInString(value)

	if n < b.Min {
		return "", &FieldError{Field: field, Message: fmt.Sprintf("must have at least %d characters", b.Min)}
	}
	if n > b.Max {
		return "", &FieldError{Field: field, Message: fmt.Sprintf("must have at most %d characters", b.Max)}
	}

	return value, nil
}
