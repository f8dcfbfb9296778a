package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eldar/school-social/internal/domain/community/entity"
	"github.com/eldar/school-social/internal/domain/community/service"
	"github.com/eldar/school-social/internal/httpx/response"
)

// CommunityService defines the interface for community operations
type CommunityService interface {
	Create(ctx context.Context, in service.CreateInput) (*entity.Community, error)
	List(ctx context.Context) ([]entity.Community, error)
	Join(ctx context.Context, communityID, userID string) error
	Leave(ctx context.Context, communityID, userID string) error
	UpdateDescription(ctx context.Context, communityID, callerID, description string) error
	Members(ctx context.Context, communityID string) ([]entity.Member, error)
	SetMemberRole(ctx context.Context, communityID, callerID, targetID string, role entity.MemberRole) error
	RemoveMember(ctx context.Context, communityID, callerID, targetID string) error
	Post(ctx context.Context, in service.PostInput) (*entity.Post, error)
	Posts(ctx context.Context, communityID string) ([]entity.Post, error)
}

// CommunityHandler handles HTTP requests for communities
type CommunityHandler struct {
	svc CommunityService
}

// NewCommunityHandler creates a new community handler
func NewCommunityHandler(svc CommunityService) *CommunityHandler {
	return &CommunityHandler{svc: svc}
}

// RegisterRoutes registers community routes
func (h *CommunityHandler) RegisterRoutes(r chi.Router) {
	r.Route("/communities", func(r chi.Router) {
		r.Get("/", h.List())
		r.Post("/", h.Create())

		r.Patch("/{communityId}", h.UpdateDescription())

		r.Post("/{communityId}/join", h.Join())
		r.Delete("/{communityId}/join", h.Leave())

		r.Get("/{communityId}/members", h.Members())
		r.Put("/{communityId}/members/{userId}/role", h.SetMemberRole())
		r.Delete("/{communityId}/members/{userId}", h.RemoveMember())

		r.Get("/{communityId}/posts", h.Posts())
		r.Post("/{communityId}/posts", h.Post())
	})
}

// ListCommunitiesResponse represents the community list response
type ListCommunitiesResponse struct {
	Communities []entity.Community `json:"communities"`
}

// List handles GET /communities
func (h *CommunityHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		communities, err := h.svc.List(r.Context())
		if err != nil {
			handleCommunityError(w, err)
			return
		}

		response.OK(w, ListCommunitiesResponse{Communities: communities})
	}
}

// CreateCommunityRequest represents the request body for creating a community
type CreateCommunityRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create handles POST /communities
func (h *CommunityHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateCommunityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		community, err := h.svc.Create(r.Context(), service.CreateInput{
			Name:        req.Name,
			Description: req.Description,
			CreatorID:   UserID(r),
		})
		if err != nil {
			handleCommunityError(w, err)
			return
		}

		response.Created(w, community)
	}
}

// Join handles POST /communities/{communityId}/join
func (h *CommunityHandler) Join() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		communityID := chi.URLParam(r, "communityId")

		if err := h.svc.Join(r.Context(), communityID, UserID(r)); err != nil {
			handleCommunityError(w, err)
			return
		}

		response.NoContent(w)
	}
}

// Leave handles DELETE /communities/{communityId}/join
func (h *CommunityHandler) Leave() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		communityID := chi.URLParam(r, "communityId")

		if err := h.svc.Leave(r.Context(), communityID, UserID(r)); err != nil {
			handleCommunityError(w, err)
			return
		}

		response.NoContent(w)
	}
}

// UpdateCommunityRequest represents the request body for editing a community
type UpdateCommunityRequest struct {
	Description string `json:"description"`
}

// UpdateDescription handles PATCH /communities/{communityId}
func (h *CommunityHandler) UpdateDescription() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		communityID := chi.URLParam(r, "communityId")

		var req UpdateCommunityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		if err := h.svc.UpdateDescription(r.Context(), communityID, UserID(r), req.Description); err != nil {
			handleCommunityError(w, err)
			return
		}

		response.NoContent(w)
	}
}

// SetMemberRoleRequest represents the request body for changing a member's role
type SetMemberRoleRequest struct {
	Role entity.MemberRole `json:"role"`
}

// SetMemberRole handles PUT /communities/{communityId}/members/{userId}/role
func (h *CommunityHandler) SetMemberRole() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		communityID := chi.URLParam(r, "communityId")
		targetID := chi.URLParam(r, "userId")

		var req SetMemberRoleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		if err := h.svc.SetMemberRole(r.Context(), communityID, UserID(r), targetID, req.Role); err != nil {
			handleCommunityError(w, err)
			return
		}

		response.NoContent(w)
	}
}

// RemoveMember handles DELETE /communities/{communityId}/members/{userId}
func (h *CommunityHandler) RemoveMember() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		communityID := chi.URLParam(r, "communityId")
		targetID := chi.URLParam(r, "userId")

		if err := h.svc.RemoveMember(r.Context(), communityID, UserID(r), targetID); err != nil {
			handleCommunityError(w, err)
			return
		}

		response.NoContent(w)
	}
}

// MembersResponse represents a community's member list
type MembersResponse struct {
	Members []entity.Member `json:"members"`
}

// Members handles GET /communities/{communityId}/members
func (h *CommunityHandler) Members() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		communityID := chi.URLParam(r, "communityId")

		members, err := h.svc.Members(r.Context(), communityID)
		if err != nil {
			handleCommunityError(w, err)
			return
		}

		response.OK(w, MembersResponse{Members: members})
	}
}

// CommunityPostsResponse represents a community's message board
type CommunityPostsResponse struct {
	Posts []entity.Post `json:"posts"`
}

// Posts handles GET /communities/{communityId}/posts
func (h *CommunityHandler) Posts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		communityID := chi.URLParam(r, "communityId")

		posts, err := h.svc.Posts(r.Context(), communityID)
		if err != nil {
			handleCommunityError(w, err)
			return
		}

		response.OK(w, CommunityPostsResponse{Posts: posts})
	}
}

// CommunityPostRequest represents the request body for posting in a community
type CommunityPostRequest struct {
	Content string `json:"content"`
}

// Post handles POST /communities/{communityId}/posts
func (h *CommunityHandler) Post() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		communityID := chi.URLParam(r, "communityId")

		var req CommunityPostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		post, err := h.svc.Post(r.Context(), service.PostInput{
			CommunityID: communityID,
			UserID:      UserID(r),
			Content:     req.Content,
		})
		if err != nil {
			handleCommunityError(w, err)
			return
		}

		response.Created(w, post)
	}
}

func handleCommunityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrEmptyName):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrNameTooLong):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrEmptyContent):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrContentTooLong):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrCommunityNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, entity.ErrAlreadyMember):
		response.Conflict(w, err.Error())
	case errors.Is(err, entity.ErrNotMember):
		response.Forbidden(w, err.Error())
	case errors.Is(err, entity.ErrNotAdmin):
		response.Forbidden(w, err.Error())
	case errors.Is(err, entity.ErrInvalidRole):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrDescriptionTooLong):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, "internal server error")
	}
}
