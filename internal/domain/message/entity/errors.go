package entity

import "errors"

// Domain errors for messaging
var (
	ErrEmptyMessage           = errors.New("message text cannot be empty")
	ErrMessageTooLong         = errors.New("message exceeds maximum length")
	ErrInvalidConversationKey = errors.New("invalid conversation key")
	ErrNotParticipant         = errors.New("viewer is not a participant of this conversation")
	ErrSelfConversation       = errors.New("cannot start a conversation with yourself")
	ErrRateLimited            = errors.New("too many messages, slow down")
	// ErrSendFailed marks store failures during send so callers can keep the
	// draft and offer a retry instead of dropping the text.
	ErrSendFailed = errors.New("message was not sent")
)
