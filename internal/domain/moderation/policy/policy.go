package policy

import (
	"context"
	"fmt"

	"github.com/eldar/school-social/internal/domain/moderation/entity"
	"github.com/eldar/school-social/internal/domain/moderation/service"
)

// CallerRole is the slice of a caller's profile the authorization check needs
type CallerRole struct {
	IsModerator bool
	UserType    string
}

// Authorized reports whether the role may use the moderation surface
func (r CallerRole) Authorized() bool {
	return r.IsModerator || r.UserType == "staff" || r.UserType == "admin"
}

// RoleProvider resolves a caller's role from their already-stored profile
type RoleProvider interface {
	GetRole(ctx context.Context, userID string) (CallerRole, error)
}

// ModerationService defines the interface for the moderation service
type ModerationService interface {
	ApplyAction(ctx context.Context, in service.ApplyActionInput) (*entity.ModerationAction, error)
	DeletePost(ctx context.Context, moderatorID, postID string) error
	SubmitReport(ctx context.Context, in service.SubmitReportInput) (*entity.Report, error)
	ResolveReport(ctx context.Context, moderatorID, reportID string) error
	ListReports(ctx context.Context, limit int) ([]entity.Report, error)
	ListActions(ctx context.Context, limit int) ([]entity.ModerationAction, error)
	ActiveSanction(ctx context.Context, userID string) (*entity.ModerationAction, error)
}

// Policy gates every moderation operation on the caller's role. An
// unauthorized caller is rejected before any store write happens.
type Policy struct {
	svc   ModerationService
	roles RoleProvider
}

// New creates a new moderation policy
func New(svc ModerationService, roles RoleProvider) *Policy {
	return &Policy{svc: svc, roles: roles}
}

func (p *Policy) authorize(ctx context.Context, callerID string) error {
	if callerID == "" {
		return entity.ErrPermissionDenied
	}
	role, err := p.roles.GetRole(ctx, callerID)
	if err != nil {
		return fmt.Errorf("resolving caller role: %w", err)
	}
	if !role.Authorized() {
		return entity.ErrPermissionDenied
	}
	return nil
}

// ApplyActionInput mirrors the service input without the caller
type ApplyActionInput struct {
	TargetUserID string
	ActionType   entity.ActionType
	Reason       string
	DurationDays int
}

// ApplyAction records a punitive action on behalf of an authorized moderator
func (p *Policy) ApplyAction(ctx context.Context, callerID string, in ApplyActionInput) (*entity.ModerationAction, error) {
	if err := p.authorize(ctx, callerID); err != nil {
		return nil, err
	}
	return p.svc.ApplyAction(ctx, service.ApplyActionInput{
		ModeratorID:  callerID,
		TargetUserID: in.TargetUserID,
		ActionType:   in.ActionType,
		Reason:       in.Reason,
		DurationDays: in.DurationDays,
	})
}

// DeletePost removes a flagged post and logs the deletion
func (p *Policy) DeletePost(ctx context.Context, callerID, postID string) error {
	if err := p.authorize(ctx, callerID); err != nil {
		return err
	}
	return p.svc.DeletePost(ctx, callerID, postID)
}

// ResolveReport marks a report resolved by the caller
func (p *Policy) ResolveReport(ctx context.Context, callerID, reportID string) error {
	if err := p.authorize(ctx, callerID); err != nil {
		return err
	}
	return p.svc.ResolveReport(ctx, callerID, reportID)
}

// ListReports returns the dashboard's report queue
func (p *Policy) ListReports(ctx context.Context, callerID string, limit int) ([]entity.Report, error) {
	if err := p.authorize(ctx, callerID); err != nil {
		return nil, err
	}
	return p.svc.ListReports(ctx, limit)
}

// ListActions returns the dashboard's recent-action log
func (p *Policy) ListActions(ctx context.Context, callerID string, limit int) ([]entity.ModerationAction, error) {
	if err := p.authorize(ctx, callerID); err != nil {
		return nil, err
	}
	return p.svc.ListActions(ctx, limit)
}

// ActiveSanction looks up a user's in-force sanction
func (p *Policy) ActiveSanction(ctx context.Context, callerID, userID string) (*entity.ModerationAction, error) {
	if err := p.authorize(ctx, callerID); err != nil {
		return nil, err
	}
	return p.svc.ActiveSanction(ctx, userID)
}

// SubmitReportInput mirrors the service input without the caller
type SubmitReportInput struct {
	ReportedUserID string
	ReportedPostID string
	Category       entity.ReportCategory
	Reason         string
}

// SubmitReport files a report. Any authenticated user may report; no
// moderator role is required.
func (p *Policy) SubmitReport(ctx context.Context, callerID string, in SubmitReportInput) (*entity.Report, error) {
	if callerID == "" {
		return nil, entity.ErrPermissionDenied
	}
	return p.svc.SubmitReport(ctx, service.SubmitReportInput{
		ReporterID:     callerID,
		ReportedUserID: in.ReportedUserID,
		ReportedPostID: in.ReportedPostID,
		Category:       in.Category,
		Reason:         in.Reason,
	})
}
