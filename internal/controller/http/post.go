package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eldar/school-social/internal/domain/post/entity"
	"github.com/eldar/school-social/internal/domain/post/service"
	"github.com/eldar/school-social/internal/httpx/response"
)

// PostService defines the interface for post operations
type PostService interface {
	Feed(ctx context.Context, viewerID string, limit int) ([]entity.Post, error)
	Create(ctx context.Context, in service.CreateInput) (*entity.Post, error)
	DeleteOwn(ctx context.Context, callerID, postID string) error
	Like(ctx context.Context, viewerID, postID string) error
	Unlike(ctx context.Context, viewerID, postID string) error
	Comment(ctx context.Context, in service.CommentInput) (*entity.Comment, error)
	Comments(ctx context.Context, postID string) ([]entity.Comment, error)
}

// PostHandler handles HTTP requests for the post feed
type PostHandler struct {
	svc PostService
}

// NewPostHandler creates a new post handler
func NewPostHandler(svc PostService) *PostHandler {
	return &PostHandler{svc: svc}
}

// RegisterRoutes registers post routes
func (h *PostHandler) RegisterRoutes(r chi.Router) {
	r.Route("/posts", func(r chi.Router) {
		// Campus feed
		r.Get("/", h.Feed())

		// Publish a post
		r.Post("/", h.Create())

		// Delete own post
		r.Delete("/{postId}", h.Delete())

		// Like / unlike
		r.Post("/{postId}/like", h.Like())
		r.Delete("/{postId}/like", h.Unlike())

		// Comments
		r.Get("/{postId}/comments", h.Comments())
		r.Post("/{postId}/comments", h.Comment())
	})
}

// FeedResponse represents the feed response
type FeedResponse struct {
	Posts []entity.Post `json:"posts"`
}

// Feed handles GET /posts
func (h *PostHandler) Feed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := h.svc.Feed(r.Context(), UserID(r), parseLimit(r, 20, 100))
		if err != nil {
			handlePostError(w, err)
			return
		}

		response.OK(w, FeedResponse{Posts: posts})
	}
}

// CreatePostRequest represents the request body for publishing a post
type CreatePostRequest struct {
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
}

// Create handles POST /posts
func (h *PostHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		post, err := h.svc.Create(r.Context(), service.CreateInput{
			UserID:   UserID(r),
			Content:  req.Content,
			ImageURL: req.ImageURL,
		})
		if err != nil {
			handlePostError(w, err)
			return
		}

		response.Created(w, post)
	}
}

// Delete handles DELETE /posts/{postId}
func (h *PostHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID := chi.URLParam(r, "postId")

		if err := h.svc.DeleteOwn(r.Context(), UserID(r), postID); err != nil {
			handlePostError(w, err)
			return
		}

		response.NoContent(w)
	}
}

// Like handles POST /posts/{postId}/like
func (h *PostHandler) Like() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID := chi.URLParam(r, "postId")

		if err := h.svc.Like(r.Context(), UserID(r), postID); err != nil {
			handlePostError(w, err)
			return
		}

		response.NoContent(w)
	}
}

// Unlike handles DELETE /posts/{postId}/like
func (h *PostHandler) Unlike() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID := chi.URLParam(r, "postId")

		if err := h.svc.Unlike(r.Context(), UserID(r), postID); err != nil {
			handlePostError(w, err)
			return
		}

		response.NoContent(w)
	}
}

// CommentsResponse represents a post's comment thread
type CommentsResponse struct {
	Comments []entity.Comment `json:"comments"`
}

// Comments handles GET /posts/{postId}/comments
func (h *PostHandler) Comments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID := chi.URLParam(r, "postId")

		comments, err := h.svc.Comments(r.Context(), postID)
		if err != nil {
			handlePostError(w, err)
			return
		}

		response.OK(w, CommentsResponse{Comments: comments})
	}
}

// CommentRequest represents the request body for commenting on a post
type CommentRequest struct {
	Content string `json:"content"`
}

// Comment handles POST /posts/{postId}/comments
func (h *PostHandler) Comment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID := chi.URLParam(r, "postId")

		var req CommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		comment, err := h.svc.Comment(r.Context(), service.CommentInput{
			UserID:  UserID(r),
			PostID:  postID,
			Content: req.Content,
		})
		if err != nil {
			handlePostError(w, err)
			return
		}

		response.Created(w, comment)
	}
}

func handlePostError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrEmptyContent):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrContentTooLong):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrPostNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, entity.ErrNotAuthor):
		response.Forbidden(w, err.Error())
	case errors.Is(err, entity.ErrAlreadyLiked):
		response.Conflict(w, err.Error())
	case errors.Is(err, entity.ErrNotLiked):
		response.Conflict(w, err.Error())
	default:
		response.InternalError(w, "internal server error")
	}
}
