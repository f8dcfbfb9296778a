package entity

import (
	"errors"
	"strings"
	"time"
)

// Priority orders announcements on the board
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority
func (p Priority) Valid() bool {
	switch p {
	case PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank gives priorities a sortable weight, urgent highest
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 2
	case PriorityHigh:
		return 1
	}
	return 0
}

// Announcement is an official school-wide notice
type Announcement struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Priority  Priority  `json:"priority"`
	CreatedAt time.Time `json:"created_at"`

	Author *ProfileSummary `json:"author,omitempty"`
}

// ProfileSummary is the author slice embedded in announcement rows
type ProfileSummary struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	UserType    string `json:"user_type,omitempty"`
	IsModerator bool   `json:"is_moderator,omitempty"`
}

// Validate checks an announcement before it reaches the store
func (a *Announcement) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(a.Content) == "" {
		return ErrEmptyContent
	}
	if !a.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}

// Domain errors for announcements
var (
	ErrEmptyTitle      = errors.New("announcement title cannot be empty")
	ErrEmptyContent    = errors.New("announcement content cannot be empty")
	ErrInvalidPriority = errors.New("unknown announcement priority")
	ErrNotStaff        = errors.New("only staff may publish announcements")
)
