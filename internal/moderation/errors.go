package moderation

import "fmt"

// Conflict codes returned to API clients.
const (
	CodeNotBlocked      = "not_blocked"
	CodeAppealPending   = "appeal_pending"
	CodeNoPendingAppeal = "no_pending_appeal"
)

// NotFoundError is returned when a video does not exist or is not visible to the caller.
type NotFoundError struct {
	VideoID string
}

func (e *NotFoundError) Error() string {
	return "Vídeo não encontrado."
}

// ValidationError represents an invalid request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConflictError is returned when the video is not in a state that allows the operation.
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}
