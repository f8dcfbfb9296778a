package entity

import (
	"errors"
	"strings"
	"time"
)

// MemberRole within a community
type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// Valid reports whether r is an assignable membership role
func (r MemberRole) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Community is a shared group space
type Community struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`

	Creator     *ProfileSummary `json:"creator,omitempty"`
	MemberCount int             `json:"member_count"`
}

// Member is one user's membership in a community
type Member struct {
	ID          string     `json:"id"`
	CommunityID string     `json:"community_id"`
	UserID      string     `json:"user_id"`
	Role        MemberRole `json:"role"`
	JoinedAt    time.Time  `json:"joined_at"`

	Profile *ProfileSummary `json:"profile,omitempty"`
}

// Post is a message scoped to one community
type Post struct {
	ID          string    `json:"id"`
	CommunityID string    `json:"community_id"`
	UserID      string    `json:"user_id"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`

	Author *ProfileSummary `json:"author,omitempty"`
}

// ProfileSummary is the profile slice embedded in community rows
type ProfileSummary struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	UserType    string `json:"user_type,omitempty"`
}

// MaxNameLength bounds community names
const MaxNameLength = 100

// MaxDescriptionLength bounds community descriptions
const MaxDescriptionLength = 500

// MaxPostLength bounds community post bodies
const MaxPostLength = 2000

// ValidateName rejects blank or oversized community names
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// ValidateDescription bounds community descriptions; blank clears them
func ValidateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// ValidatePostContent rejects blank or oversized community posts
func ValidatePostContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if len(content) > MaxPostLength {
		return ErrContentTooLong
	}
	return nil
}

// Domain errors for communities
var (
	ErrCommunityNotFound  = errors.New("community not found")
	ErrEmptyName          = errors.New("community name cannot be empty")
	ErrNameTooLong        = errors.New("community name exceeds maximum length")
	ErrEmptyContent       = errors.New("content cannot be empty")
	ErrContentTooLong     = errors.New("content exceeds maximum length")
	ErrAlreadyMember      = errors.New("already a member of this community")
	ErrNotMember          = errors.New("not a member of this community")
	ErrNotAdmin           = errors.New("only a community admin may do this")
	ErrInvalidRole        = errors.New("unknown membership role")
	ErrDescriptionTooLong = errors.New("description exceeds maximum length")
)
