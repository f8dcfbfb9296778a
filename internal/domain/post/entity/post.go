package entity

import (
	"errors"
	"strings"
	"time"
)

// ProfileSummary is the author slice embedded in post and comment rows
type ProfileSummary struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	UserType    string `json:"user_type,omitempty"`
	IsVerified  bool   `json:"is_verified,omitempty"`
}

// Post is a short feed entry
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Author       *ProfileSummary `json:"author,omitempty"`
	LikeCount    int             `json:"like_count"`
	CommentCount int             `json:"comment_count"`
	ViewerLiked  bool            `json:"viewer_liked"`
}

// Comment is a reply attached to a post
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	Author *ProfileSummary `json:"author,omitempty"`
}

// MaxPostLength bounds post bodies
const MaxPostLength = 2000

// MaxCommentLength bounds comment bodies
const MaxCommentLength = 1000

// ValidatePostContent rejects blank or oversized post bodies locally
func ValidatePostContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if len(content) > MaxPostLength {
		return ErrContentTooLong
	}
	return nil
}

// ValidateCommentContent rejects blank or oversized comments locally
func ValidateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if len(content) > MaxCommentLength {
		return ErrContentTooLong
	}
	return nil
}

// Domain errors for posts
var (
	ErrPostNotFound   = errors.New("post not found")
	ErrEmptyContent   = errors.New("content cannot be empty")
	ErrContentTooLong = errors.New("content exceeds maximum length")
	ErrNotAuthor      = errors.New("only the author may delete this post")
	ErrAlreadyLiked   = errors.New("post already liked")
	ErrNotLiked       = errors.New("post not liked")
)
