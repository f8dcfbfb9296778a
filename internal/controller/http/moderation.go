package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eldar/school-social/internal/domain/moderation/entity"
	"github.com/eldar/school-social/internal/domain/moderation/policy"
	"github.com/eldar/school-social/internal/httpx/response"
)

// ModerationPolicy defines the interface for moderation operations
type ModerationPolicy interface {
	ApplyAction(ctx context.Context, callerID string, in policy.ApplyActionInput) (*entity.ModerationAction, error)
	DeletePost(ctx context.Context, callerID, postID string) error
	SubmitReport(ctx context.Context, callerID string, in policy.SubmitReportInput) (*entity.Report, error)
	ResolveReport(ctx context.Context, callerID, reportID string) error
	ListReports(ctx context.Context, callerID string, limit int) ([]entity.Report, error)
	ListActions(ctx context.Context, callerID string, limit int) ([]entity.ModerationAction, error)
	ActiveSanction(ctx context.Context, callerID, userID string) (*entity.ModerationAction, error)
}

// ModerationHandler handles HTTP requests for the moderation dashboard
type ModerationHandler struct {
	policy ModerationPolicy
}

// NewModerationHandler creates a new moderation handler
func NewModerationHandler(p ModerationPolicy) *ModerationHandler {
	return &ModerationHandler{policy: p}
}

// RegisterRoutes registers moderation routes
func (h *ModerationHandler) RegisterRoutes(r chi.Router) {
	r.Route("/moderation", func(r chi.Router) {
		// Record a punitive action against a user
		r.Post("/actions", h.ApplyAction())

		// Recent action log
		r.Get("/actions", h.ListActions())

		// Delete a flagged post
		r.Delete("/posts/{postId}", h.DeletePost())

		// Report queue
		r.Get("/reports", h.ListReports())

		// Mark a report resolved
		r.Post("/reports/{reportId}/resolve", h.ResolveReport())

		// A user's in-force sanction
		r.Get("/sanctions/{userId}", h.ActiveSanction())
	})

	// Report submission is open to any authenticated user
	r.Post("/reports", h.SubmitReport())
}

// ApplyActionRequest represents the request body for recording an action
type ApplyActionRequest struct {
	TargetUserID string `json:"target_user_id"`
	ActionType   string `json:"action_type"`
	Reason       string `json:"reason"`
	DurationDays int    `json:"duration_days"`
}

// ApplyAction handles POST /moderation/actions
func (h *ModerationHandler) ApplyAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ApplyActionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		if req.TargetUserID == "" {
			response.BadRequest(w, "target_user_id is required")
			return
		}

		action, err := h.policy.ApplyAction(r.Context(), UserID(r), policy.ApplyActionInput{
			TargetUserID: req.TargetUserID,
			ActionType:   entity.ActionType(req.ActionType),
			Reason:       req.Reason,
			DurationDays: req.DurationDays,
		})
		if err != nil {
			handleModerationError(w, err)
			return
		}

		response.Created(w, action)
	}
}

// ListActionsResponse represents the action log response
type ListActionsResponse struct {
	Actions []entity.ModerationAction `json:"actions"`
}

// ListActions handles GET /moderation/actions
func (h *ModerationHandler) ListActions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actions, err := h.policy.ListActions(r.Context(), UserID(r), parseLimit(r, 50, 100))
		if err != nil {
			handleModerationError(w, err)
			return
		}

		response.OK(w, ListActionsResponse{Actions: actions})
	}
}

// DeletePost handles DELETE /moderation/posts/{postId}
func (h *ModerationHandler) DeletePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID := chi.URLParam(r, "postId")

		if err := h.policy.DeletePost(r.Context(), UserID(r), postID); err != nil {
			handleModerationError(w, err)
			return
		}

		response.NoContent(w)
	}
}

// ListReportsResponse represents the report queue response
type ListReportsResponse struct {
	Reports []entity.Report `json:"reports"`
}

// ListReports handles GET /moderation/reports
func (h *ModerationHandler) ListReports() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reports, err := h.policy.ListReports(r.Context(), UserID(r), parseLimit(r, 50, 100))
		if err != nil {
			handleModerationError(w, err)
			return
		}

		response.OK(w, ListReportsResponse{Reports: reports})
	}
}

// ResolveReport handles POST /moderation/reports/{reportId}/resolve
func (h *ModerationHandler) ResolveReport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reportID := chi.URLParam(r, "reportId")

		if err := h.policy.ResolveReport(r.Context(), UserID(r), reportID); err != nil {
			handleModerationError(w, err)
			return
		}

		response.NoContent(w)
	}
}

// ActiveSanctionResponse wraps the sanction lookup; Sanction is null when
// the user is in good standing.
type ActiveSanctionResponse struct {
	Sanction *entity.ModerationAction `json:"sanction"`
}

// ActiveSanction handles GET /moderation/sanctions/{userId}
func (h *ModerationHandler) ActiveSanction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userId")

		sanction, err := h.policy.ActiveSanction(r.Context(), UserID(r), userID)
		if err != nil {
			handleModerationError(w, err)
			return
		}

		response.OK(w, ActiveSanctionResponse{Sanction: sanction})
	}
}

// SubmitReportRequest represents the request body for filing a report
type SubmitReportRequest struct {
	ReportedUserID string `json:"reported_user_id"`
	ReportedPostID string `json:"reported_post_id"`
	Category       string `json:"category"`
	Reason         string `json:"reason"`
}

// SubmitReport handles POST /reports
func (h *ModerationHandler) SubmitReport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmitReportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		report, err := h.policy.SubmitReport(r.Context(), UserID(r), policy.SubmitReportInput{
			ReportedUserID: req.ReportedUserID,
			ReportedPostID: req.ReportedPostID,
			Category:       entity.ReportCategory(req.Category),
			Reason:         req.Reason,
		})
		if err != nil {
			handleModerationError(w, err)
			return
		}

		response.Created(w, report)
	}
}

func parseLimit(r *http.Request, def, max int) int {
	limit := def
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
			if limit > max {
				limit = max
			}
		}
	}
	return limit
}

func handleModerationError(w http.ResponseWriter, err error) {
	var partial *entity.PartialFailureError
	switch {
	case errors.Is(err, entity.ErrPermissionDenied):
		response.Forbidden(w, err.Error())
	case errors.Is(err, entity.ErrEmptyReason):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrInvalidActionType):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrInvalidCategory):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrMissingTarget):
		response.BadRequest(w, err.Error())
	case errors.Is(err, entity.ErrReportNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, entity.ErrPostNotFound):
		response.NotFound(w, err.Error())
	case errors.As(err, &partial):
		// The primary write committed but the audit trail did not;
		// surface that distinctly so the dashboard can flag it.
		response.Error(w, http.StatusInternalServerError, partial.Error())
	default:
		response.InternalError(w, "internal server error")
	}
}
