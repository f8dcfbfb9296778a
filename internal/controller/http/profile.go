package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eldar/school-social/internal/domain/profile/entity"
	"github.com/eldar/school-social/internal/httpx/response"
)

// ProfilePolicy defines the interface for profile operations
type ProfilePolicy interface {
	GetProfile(ctx context.Context, userID string) (*entity.Profile, error)
	UpdateOwnProfile(ctx context.Context, callerID string, upd entity.ProfileUpdate) error
	Search(ctx context.Context, callerID, query string, limit int) ([]entity.Profile, error)
	Follow(ctx context.Context, callerID, targetID string) error
	Unfollow(ctx context.Context, callerID, targetID string) error
	IsFollowing(ctx context.Context, callerID, targetID string) (bool, error)
}

// ProfileHandler handles HTTP requests for profiles and follows
type ProfileHandler struct {
	policy ProfilePolicy
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(p ProfilePolicy) *ProfileHandler {
	return &ProfileHandler{policy: p}
}

// RegisterRoutes registers profile routes
func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Route("/profiles", func(r chi.Router) {
		// People search
		r.Get("/search", h.Search())

		// Own profile
		r.Get("/me", h.Me())
		r.Patch("/me", h.UpdateMe())

		// Another user's profile
		r.Get("/{userId}", h.GetProfile())

		// Follow / unfollow
		r.Post("/{userId}/follow", h.Follow())
		r.Delete("/{userId}/follow", h.Unfollow())
		r.Get("/{userId}/follow", h.IsFollowing())
	})
}

// Me handles GET /profiles/me
func (h *ProfileHandler) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := h.policy.GetProfile(r.Context(), UserID(r))
		if err != nil {
			handleProfileError(w, err)
			return
		}

		response.OK(w, profile)
	}
}

// UpdateProfileRequest represents the request body for editing a profile.
// Absent fields are left untouched.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
}

// UpdateMe handles PATCH /profiles/me
func (h *ProfileHandler) UpdateMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		err := h.policy.UpdateOwnProfile(r.Context(), UserID(r), entity.ProfileUpdate{
			DisplayName: req.DisplayName,
			Bio:         req.Bio,
			AvatarURL:   req.AvatarURL,
		})
		if err != nil {
			handleProfileError(w, err)
			return
		}

		response.NoContent(w)
	}
}

// GetProfile handles GET /profiles/{userId}
func (h *ProfileHandler) GetProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userId")

		profile, err := h.policy.GetProfile(r.Context(), userID)
		if err != nil {
			handleProfileError(w, err)
			return
		}

		response.OK(w, profile)
	}
}

// SearchResponse represents the people search response
type SearchResponse struct {
	Profiles []entity.Profile `json:"profiles"`
}

// Search handles GET /profiles/search
func (h *ProfileHandler) Search() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			response.BadRequest(w, "q (query) is required")
			return
		}

		profiles, err := h.policy.Search(r.Context(), UserID(r), query, parseLimit(r, 5, 20))
		if err != nil {
			handleProfileError(w, err)
			return
		}

		response.OK(w, SearchResponse{Profiles: profiles})
	}
}

// Follow handles POST /profiles/{userId}/follow
func (h *ProfileHandler) Follow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID := chi.URLParam(r, "userId")

		if err := h.policy.Follow(r.Context(), UserID(r), targetID); err != nil {
			handleProfileError(w, err)
			return
		}

		response.NoContent(w)
	}
}

// Unfollow handles DELETE /profiles/{userId}/follow
func (h *ProfileHandler) Unfollow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID := chi.URLParam(r, "userId")

		if err := h.policy.Unfollow(r.Context(), UserID(r), targetID); err != nil {
			handleProfileError(w, err)
			return
		}

		response.NoContent(w)
	}
}

// IsFollowingResponse reports whether the viewer follows a user
type IsFollowingResponse struct {
	Following bool `json:"following"`
}

// IsFollowing handles GET /profiles/{userId}/follow
func (h *ProfileHandler) IsFollowing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID := chi.URLParam(r, "userId")

		following, err := h.policy.IsFollowing(r.Context(), UserID(r), targetID)
		if err != nil {
			handleProfileError(w, err)
			return
		}

		response.OK(w, IsFollowingResponse{Following: following})
	}
}

func handleProfileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrProfileNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, entity.ErrNothingToUpdate):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrEmptyDisplayName):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrDisplayNameTooLong):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrBioTooLong):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrSelfFollow):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrAlreadyFollowing):
		response.Conflict(w, err.Error())
	case errors.Is(err, entity.ErrNotFollowing):
		response.Conflict(w, err.Error())
	default:
		response.InternalError(w, "internal server error")
	}
}
