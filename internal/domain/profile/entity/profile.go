package entity

import (
	"errors"
	"strings"
	"time"
)

// UserType is the account category assigned by the school
type UserType string

const (
	UserTypeStudent UserType = "student"
	UserTypeStaff   UserType = "staff"
	UserTypeAdmin   UserType = "admin"
)

// Profile is a user's public identity and role flags
type Profile struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	UserType    UserType  `json:"user_type"`
	IsModerator bool      `json:"is_moderator"`
	IsVerified  bool      `json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`

	FollowerCount  int `json:"follower_count"`
	FollowingCount int `json:"following_count"`
}

// CanModerate reports whether the profile may use the moderation surface
func (p *Profile) CanModerate() bool {
	return p.IsModerator || p.UserType == UserTypeStaff || p.UserType == UserTypeAdmin
}

// ProfileUpdate carries the fields a user may change on their own profile
type ProfileUpdate struct {
	DisplayName *string
	Bio         *string
	AvatarURL   *string
}

// MaxDisplayNameLength bounds display names
const MaxDisplayNameLength = 80

// MaxBioLength bounds the bio field
const MaxBioLength = 500

// Validate checks an update before it reaches the store
func (u *ProfileUpdate) Validate() error {
	if u.DisplayName == nil && u.Bio == nil && u.AvatarURL == nil {
		return ErrNothingToUpdate
	}
	if u.DisplayName != nil {
		if strings.TrimSpace(*u.DisplayName) == "" {
			return ErrEmptyDisplayName
		}
		if len(*u.DisplayName) > MaxDisplayNameLength {
			return ErrDisplayNameTooLong
		}
	}
	if u.Bio != nil && len(*u.Bio) > MaxBioLength {
		return ErrBioTooLong
	}
	return nil
}

// Domain errors for profiles and follows
var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrNothingToUpdate    = errors.New("no fields to update")
	ErrEmptyDisplayName   = errors.New("display name cannot be empty")
	ErrDisplayNameTooLong = errors.New("display name exceeds maximum length")
	ErrBioTooLong         = errors.New("bio exceeds maximum length")
	ErrSelfFollow         = errors.New("cannot follow yourself")
	ErrAlreadyFollowing   = errors.New("already following this user")
	ErrNotFollowing       = errors.New("not following this user")
)
