package entity

import (
	"strings"
	"time"
)

// ProfileSummary is the public slice of a profile embedded in message rows
type ProfileSummary struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Message represents a direct message between two users
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Content     string    `json:"content"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`

	Sender    *ProfileSummary `json:"sender,omitempty"`
	Recipient *ProfileSummary `json:"recipient,omitempty"`
}

// Counterparty returns the participant that is not the viewer
func (m *Message) Counterparty(viewerID string) (string, *ProfileSummary) {
	if m.SenderID == viewerID {
		return m.RecipientID, m.Recipient
	}
	return m.SenderID, m.Sender
}

// MaxMessageLength is the maximum length of a message body
const MaxMessageLength = 2000

// ValidateContent validates a message body before it reaches the store
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyMessage
	}
	if len(content) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}
