package models

import (
	"errors"
	"time"
)

var (
	// ErrNotBlocked is returned when an appeal is filed against a public video.
	ErrNotBlocked = errors.New("video is not blocked")

	// ErrAppealPending is returned when an appeal is filed while another is under review.
	ErrAppealPending = errors.New("an appeal is already under review")

	// ErrNoPendingAppeal is returned when resolving a video without a pending appeal.
	ErrNoPendingAppeal = errors.New("video has no pending appeal")
)

// Video is a user-uploaded clip subject to moderation.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Video struct {
	ID               string           `json:"id"`
	UserID           string           `json:"userId"`
	Title            string           `json:"title"`
	VisibilityStatus VisibilityStatus `json:"visibilityStatus"`
	BlockReason      *string          `json:"blockReason"`
	BlockedAt        *time.Time       `json:"blockedAt"`
	BlockedByAdminID *string          `json:"blockedByAdminId"`
	AppealStatus     *AppealStatus    `json:"blockAppealStatus"`
	AppealMessage    *string          `json:"blockAppealMessage"`
	AppealAt         *time.Time       `json:"blockAppealAt"`
	AppealResponse   *string          `json:"blockAppealResponse"`
	AppealResolvedAt *time.Time       `json:"blockAppealResolvedAt"`
	LikesCount       int              `json:"likesCount"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`

	// ModerationVersion is incremented by the store on every moderation update.
	ModerationVersion int64 `json:"-"`
}

// NewVideo creates a public video with no moderation history.
func NewVideo(id, userID, title string) *Video {
	now := time.Now().UTC()
	return &Video{
		ID:               id,
		UserID:           userID,
		Title:            title,
		VisibilityStatus: VisibilityPublic,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// IsBlocked reports whether the video is hidden from the public.
func (v *Video) IsBlocked() bool {
	return v.VisibilityStatus == VisibilityBlocked
}

// HasPendingAppeal reports whether an appeal awaits an administrator.
func (v *Video) HasPendingAppeal() bool {
	return v.AppealStatus != nil && *v.AppealStatus == AppealPending
}

// Block hides the video. Any earlier appeal history is discarded, including on a reblock.
func (v *Video) Block(reason, adminID string, now time.Time) {
	v.VisibilityStatus = VisibilityBlocked
	v.BlockReason = &reason
	v.BlockedAt = &now
	v.BlockedByAdminID = &adminID
	v.clearAppeal()
	v.UpdatedAt = now
}

// Unblock makes the video public again and clears block and appeal fields.
func (v *Video) Unblock(now time.Time) {
	v.VisibilityStatus = VisibilityPublic
	v.clearBlock()
	v.clearAppeal()
	v.UpdatedAt = now
}

// FileAppeal records an owner appeal. The video must be blocked with no appeal under review.
func (v *Video) FileAppeal(message string, now time.Time) error {
	if !v.IsBlocked() {
		return ErrNotBlocked
	}
	if v.HasPendingAppeal() {
		return ErrAppealPending
	}

	status := AppealPending
	v.AppealStatus = &status
	v.AppealMessage = &message
	v.AppealAt = &now
	v.UpdatedAt = now
	return nil
}

// ResolveAppeal applies an administrator decision to a pending appeal.
// Approval publishes the video and clears the block; rejection keeps the block
// reason and records the resolving administrator.
func (v *Video) ResolveAppeal(decision Decision, response, adminID string, now time.Time) error {
	if !v.HasPendingAppeal() {
		return ErrNoPendingAppeal
	}

	status := AppealRejected
	if decision == DecisionApprove {
		status = AppealApproved
	}
	v.AppealStatus = &status
	v.AppealResponse = &response
	v.AppealResolvedAt = &now

	if decision == DecisionApprove {
		v.VisibilityStatus = VisibilityPublic
		v.clearBlock()
	} else {
		v.VisibilityStatus = VisibilityBlocked
		v.BlockedByAdminID = &adminID
	}

	v.UpdatedAt = now
	return nil
}

func (v *Video) clearBlock() {
	v.BlockReason = nil
	v.BlockedAt = nil
	v.BlockedByAdminID = nil
}

func (v *Video) clearAppeal() {
	v.AppealStatus = nil
	v.AppealMessage = nil
	v.AppealAt = nil
	v.AppealResponse = nil
	v.AppealResolvedAt = nil
}

// Clone returns a deep copy of the video.
func (v *Video) Clone() *Video {
	c := *v
	c.BlockReason = clonePtr(v.BlockReason)
	c.BlockedAt = clonePtr(v.BlockedAt)
	c.BlockedByAdminID = clonePtr(v.BlockedByAdminID)
	c.AppealStatus = clonePtr(v.AppealStatus)
	c.AppealMessage = clonePtr(v.AppealMessage)
	c.AppealAt = clonePtr(v.AppealAt)
	c.AppealResponse = clonePtr(v.AppealResponse)
	c.AppealResolvedAt = clonePtr(v.AppealResolvedAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
