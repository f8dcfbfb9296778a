package entity

import (
	"strings"
	"time"
)

// ActionType enumerates punitive actions against a user
type ActionType string

const (
	ActionWarn       ActionType = "warn"
	ActionMute       ActionType = "mute"
	ActionSuspend    ActionType = "suspend"
	ActionBan        ActionType = "ban"
	ActionDeletePost ActionType = "delete_post"
)

// Valid reports whether t is a moderator-selectable action type.
// delete_post records are created only by the post-deletion flow.
func (t ActionType) Valid() bool {
	switch t {
	case ActionWarn, ActionMute, ActionSuspend, ActionBan:
		return true
	}
	return false
}

// TimeBounded reports whether an action type may carry an expiration.
// Warn is instantaneous and ban is permanent; neither expires.
func (t ActionType) TimeBounded() bool {
	return t == ActionMute || t == ActionSuspend
}

// ModerationAction is an immutable, append-only record of a punitive
// decision. Reversal means letting it expire or appending a new record,
// never editing the old one.
type ModerationAction struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	ModeratorID string     `json:"moderator_id"`
	ActionType  ActionType `json:"action_type"`
	Reason      string     `json:"reason"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	TargetUser *ProfileSummary `json:"target_user,omitempty"`
	Moderator  *ProfileSummary `json:"moderator,omitempty"`
}

// Active reports whether the sanction is still in force at now
func (a *ModerationAction) Active(now time.Time) bool {
	switch a.ActionType {
	case ActionBan:
		return true
	case ActionMute, ActionSuspend:
		return a.ExpiresAt == nil || a.ExpiresAt.After(now)
	}
	return false
}

// DeletePostReason is the fixed audit reason attached to post deletions
const DeletePostReason = "Post deleted by moderator"

// ValidateReason requires a non-blank reason before any store write
func ValidateReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrEmptyReason
	}
	return nil
}

// ProfileSummary is the public profile slice embedded in moderation rows
type ProfileSummary struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}
