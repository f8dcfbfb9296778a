package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eldar/school-social/internal/domain/announcement/entity"
	"github.com/eldar/school-social/internal/domain/announcement/service"
	"github.com/eldar/school-social/internal/httpx/response"
)

// AnnouncementService defines the interface for announcement operations
type AnnouncementService interface {
	Create(ctx context.Context, in service.CreateInput) (*entity.Announcement, error)
	List(ctx context.Context, limit int) ([]*entity.Announcement, error)
}

// AnnouncementHandler handles HTTP requests for the announcement board
type AnnouncementHandler struct {
	svc AnnouncementService
}

// NewAnnouncementHandler creates a new announcement handler
func NewAnnouncementHandler(svc AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{svc: svc}
}

// RegisterRoutes registers announcement routes
func (h *AnnouncementHandler) RegisterRoutes(r chi.Router) {
	r.Route("/announcements", func(r chi.Router) {
		r.Get("/", h.List())
		r.Post("/", h.Create())
	})
}

// ListAnnouncementsResponse represents the announcement board response
type ListAnnouncementsResponse struct {
	Announcements []*entity.Announcement `json:"announcements"`
}

// List handles GET /announcements
func (h *AnnouncementHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		announcements, err := h.svc.List(r.Context(), parseLimit(r, 50, 100))
		if err != nil {
			handleAnnouncementError(w, err)
			return
		}

		response.OK(w, ListAnnouncementsResponse{Announcements: announcements})
	}
}

// CreateAnnouncementRequest represents the request body for publishing an
// announcement
type CreateAnnouncementRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Priority string `json:"priority"`
}

// Create handles POST /announcements
func (h *AnnouncementHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAnnouncementRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		announcement, err := h.svc.Create(r.Context(), service.CreateInput{
			AuthorID: UserID(r),
			Title:    req.Title,
			Content:  req.Content,
			Priority: entity.Priority(req.Priority),
		})
		if err != nil {
			handleAnnouncementError(w, err)
			return
		}

		response.Created(w, announcement)
	}
}

func handleAnnouncementError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrEmptyTitle):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrEmptyContent):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrInvalidPriority):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrNotStaff):
		response.Forbidden(w, err.Error())
	default:
		response.InternalError(w, "internal server error")
	}
}
