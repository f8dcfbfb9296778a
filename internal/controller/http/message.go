package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eldar/school-social/internal/domain/message/entity"
	"github.com/eldar/school-social/internal/domain/message/service"
	"github.com/eldar/school-social/internal/httpx/response"
)

// MessagePolicy defines the interface for messaging operations
type MessagePolicy interface {
	ListConversations(ctx context.Context, viewerID string) ([]entity.Conversation, error)
	OpenConversation(ctx context.Context, viewerID, key string) (*service.OpenConversationOutput, error)
	SendMessage(ctx context.Context, viewerID, key, content string) (*entity.Message, error)
	StartConversation(viewerID, otherID string) (string, error)
	UnreadCount(ctx context.Context, viewerID string) (int, error)
}

// MessageHandler handles HTTP requests for direct messaging
type MessageHandler struct {
	policy MessagePolicy
}

// NewMessageHandler creates a new messaging handler
func NewMessageHandler(p MessagePolicy) *MessageHandler {
	return &MessageHandler{policy: p}
}

// RegisterRoutes registers messaging routes
func (h *MessageHandler) RegisterRoutes(r chi.Router) {
	r.Route("/messages", func(r chi.Router) {
		// Conversation list for the viewer
		r.Get("/conversations", h.ListConversations())

		// Start a conversation with a user
		r.Post("/conversations", h.StartConversation())

		// Open a conversation transcript
		r.Get("/conversations/{conversationKey}", h.OpenConversation())

		// Send a message within a conversation
		r.Post("/conversations/{conversationKey}", h.SendMessage())

		// Unread message count
		r.Get("/unread", h.UnreadCount())
	})
}

// ListConversationsResponse represents the conversation list response
type ListConversationsResponse struct {
	Conversations []entity.Conversation `json:"conversations"`
}

// ListConversations handles GET /messages/conversations
func (h *MessageHandler) ListConversations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conversations, err := h.policy.ListConversations(r.Context(), UserID(r))
		if err != nil {
			handleMessageError(w, err)
			return
		}

		response.OK(w, ListConversationsResponse{Conversations: conversations})
	}
}

// StartConversationRequest represents the request body for starting a conversation
type StartConversationRequest struct {
	UserID string `json:"user_id"`
}

// StartConversationResponse carries the key of the new conversation
type StartConversationResponse struct {
	ConversationKey string `json:"conversation_key"`
}

// StartConversation handles POST /messages/conversations
func (h *MessageHandler) StartConversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartConversationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		if req.UserID == "" {
			response.BadRequest(w, "user_id is required")
			return
		}

		key, err := h.policy.StartConversation(UserID(r), req.UserID)
		if err != nil {
			handleMessageError(w, err)
			return
		}

		response.Created(w, StartConversationResponse{ConversationKey: key})
	}
}

// OpenConversationResponse represents a conversation transcript
type OpenConversationResponse struct {
	ConversationKey string           `json:"conversation_key"`
	Messages        []entity.Message `json:"messages"`
	MarkedRead      int64            `json:"marked_read"`
}

// OpenConversation handles GET /messages/conversations/{conversationKey}
func (h *MessageHandler) OpenConversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "conversationKey")

		result, err := h.policy.OpenConversation(r.Context(), UserID(r), key)
		if err != nil {
			handleMessageError(w, err)
			return
		}

		response.OK(w, OpenConversationResponse{
			ConversationKey: result.Key,
			Messages:        result.Messages,
			MarkedRead:      result.MarkedRead,
		})
	}
}

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessage handles POST /messages/conversations/{conversationKey}
func (h *MessageHandler) SendMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "conversationKey")

		var req SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		msg, err := h.policy.SendMessage(r.Context(), UserID(r), key, req.Content)
		if err != nil {
			handleMessageError(w, err)
			return
		}

		response.Created(w, msg)
	}
}

// UnreadCountResponse reports the viewer's unread message total
type UnreadCountResponse struct {
	Unread int `json:"unread"`
}

// UnreadCount handles GET /messages/unread
func (h *MessageHandler) UnreadCount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := h.policy.UnreadCount(r.Context(), UserID(r))
		if err != nil {
			handleMessageError(w, err)
			return
		}

		response.OK(w, UnreadCountResponse{Unread: count})
	}
}

func handleMessageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrEmptyMessage):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrMessageTooLong):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrInvalidConversationKey):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrSelfConversation):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrNotParticipant):
		response.Forbidden(w, err.Error())
	case errors.Is(err, entity.ErrRateLimited):
		response.TooManyRequests(w, err.Error())
	default:
		response.InternalError(w, "internal server error")
	}
}
