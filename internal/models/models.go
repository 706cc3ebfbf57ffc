// Package models contains the data models and DTOs for the video moderation service.
package models

import (
	"time"

	"github.com/google/uuid"
)

// VisibilityStatus represents whether a video is shown to the public.
type VisibilityStatus string

// VisibilityStatus constants define the possible visibility states of a video.
const (
	VisibilityPublic  VisibilityStatus = "PUBLIC"
	VisibilityBlocked VisibilityStatus = "BLOCKED"
)

// AppealStatus represents the state of an owner appeal against a block.
type AppealStatus string

// AppealStatus constants define the possible states of an appeal.
const (
	AppealPending  AppealStatus = "PENDING"
	AppealApproved AppealStatus = "APPROVED"
	AppealRejected AppealStatus = "REJECTED"
)

// Valid reports whether s is one of the known appeal states.
func (s AppealStatus) Valid() bool {
	switch s {
	case AppealPending, AppealApproved, AppealRejected:
		return true
	}
	return false
}

// Decision is an administrator's verdict on a pending appeal.
type Decision string

// Decision constants.
const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Valid reports whether d is approve or reject.
func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// NotificationType tags a notification with the event that produced it.
type NotificationType string

// NotificationType constants.
const (
	NotificationVideoBlock        NotificationType = "VIDEO_BLOCK"
	NotificationVideoAppealUpdate NotificationType = "VIDEO_APPEAL_UPDATE"
)

// Notification is an immutable message addressed to a single user.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    string           `json:"userId"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
	DedupeKey *string          `json:"-"`
	CreatedAt time.Time        `json:"createdAt"`
}

// NewNotification creates a notification with a fresh id and creation time.
func NewNotification(userID string, typ NotificationType, title, message string, metadata map[string]any) *Notification {
	return &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
}

// VideoFilter selects videos for the admin moderation listing.
type VideoFilter struct {
	Status string
	Search string
	Page   int
	Limit  int
}

// Offset returns the number of rows to skip for the filter's page.
func (f VideoFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// Video status filters accepted by the admin listing.
const (
	VideoStatusAll     = "all"
	VideoStatusBlocked = "blocked"
	VideoStatusAppeal  = "appeal"
)

// VideoPage is one page of the admin moderation listing.
type VideoPage struct {
	Items      []*Video `json:"items"`
	Page       int      `json:"page"`
	Total      int      `json:"total"`
	TotalPages int      `json:"totalPages"`
}

// ModerationSummary aggregates moderation counters for the admin dashboard.
type ModerationSummary struct {
	TotalVideos         int `json:"totalVideos"`
	BlockedVideos       int `json:"blockedVideos"`
	PendingVideoAppeals int `json:"pendingVideoAppeals"`
}

// NotificationPage is one page of a user's notifications.
type NotificationPage struct {
	Items  []*Notification `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// BlockVideoRequest is the body of an admin block request.
type BlockVideoRequest struct {
	Reason string `json:"reason"`
}

// AppealRequest is the body of an owner appeal.
type AppealRequest struct {
	Message string `json:"message"`
}

// AppealDecisionRequest is the body of an admin appeal resolution.
type AppealDecisionRequest struct {
	Decision Decision `json:"decision"`
	Response string   `json:"response"`
}

// VideoResponse wraps a video in the API envelope.
type VideoResponse struct {
	Video *Video `json:"video"`
}

// VisibilityResponse answers the public visibility lookup.
type VisibilityResponse struct {
	VideoID          string           `json:"videoId"`
	VisibilityStatus VisibilityStatus `json:"visibilityStatus"`
}

// ErrorResponse represents an error response.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
	Code      string    `json:"code,omitempty"`
	Field     string    `json:"field,omitempty"`
	ErrorID   string    `json:"errorId,omitempty"`
}
