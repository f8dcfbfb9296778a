package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/eldar/school-social/internal/domain/moderation/entity"
	"github.com/eldar/school-social/internal/realtime"
)

// ActionRepository defines storage for moderation action records
type ActionRepository interface {
	Insert(ctx context.Context, action *entity.ModerationAction) error
	List(ctx context.Context, limit int) ([]entity.ModerationAction, error)
	ListForUser(ctx context.Context, userID string) ([]entity.ModerationAction, error)
}

// ReportRepository defines storage for reports
type ReportRepository interface {
	Insert(ctx context.Context, report *entity.Report) error
	GetByID(ctx context.Context, id string) (*entity.Report, error)
	List(ctx context.Context, limit int) ([]entity.Report, error)
	// Resolve sets status, resolution timestamp and resolving moderator.
	Resolve(ctx context.Context, id, moderatorID string, at time.Time) error
}

// PostDeleter removes a post row and reports its author. Implemented by the
// post domain's DAO.
type PostDeleter interface {
	DeleteReturningAuthor(ctx context.Context, postID string) (authorID string, err error)
}

// Service records moderation decisions and keeps report lifecycles consistent
// with them
type Service struct {
	actions ActionRepository
	reports ReportRepository
	posts   PostDeleter
	broker  realtime.Broker
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a new moderation service
func New(actions ActionRepository, reports ReportRepository, posts PostDeleter, broker realtime.Broker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		actions: actions,
		reports: reports,
		posts:   posts,
		broker:  broker,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ApplyActionInput represents a moderator decision against a user
type ApplyActionInput struct {
	ModeratorID  string
	TargetUserID string
	ActionType   entity.ActionType
	Reason       string
	// DurationDays bounds mute/suspend. Ignored for warn and ban.
	DurationDays int
}

// ApplyAction validates and records one punitive action. Mute and suspend
// with a positive duration get an expiration of now + duration days; warn and
// ban never carry one.
func (s *Service) ApplyAction(ctx context.Context, in ApplyActionInput) (*entity.ModerationAction, error) {
	if !in.ActionType.Valid() {
		return nil, entity.ErrInvalidActionType
	}
	if err := entity.ValidateReason(in.Reason); err != nil {
		return nil, err
	}

	now := s.now()
	action := &entity.ModerationAction{
		UserID:      in.TargetUserID,
		ModeratorID: in.ModeratorID,
		ActionType:  in.ActionType,
		Reason:      in.Reason,
		CreatedAt:   now,
	}
	if in.ActionType.TimeBounded() && in.DurationDays > 0 {
		expires := now.AddDate(0, 0, in.DurationDays)
		action.ExpiresAt = &expires
	}

	if err := s.actions.Insert(ctx, action); err != nil {
		return nil, fmt.Errorf("recording action: %w", err)
	}

	s.publish(ctx, realtime.Event{
		Table:    realtime.TableUserModeration,
		Action:   realtime.ActionInsert,
		RecordID: action.ID,
		ActorID:  in.ModeratorID,
		TargetID: in.TargetUserID,
	})

	return action, nil
}

// DeletePost removes a flagged post and appends a delete_post audit record.
// The two writes are not transactional: when the audit insert fails after the
// delete committed, the failure is surfaced as a PartialFailureError instead
// of being rolled back.
func (s *Service) DeletePost(ctx context.Context, moderatorID, postID string) error {
	authorID, err := s.posts.DeleteReturningAuthor(ctx, postID)
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}

	action := &entity.ModerationAction{
		UserID:      authorID,
		ModeratorID: moderatorID,
		ActionType:  entity.ActionDeletePost,
		Reason:      entity.DeletePostReason,
		CreatedAt:   s.now(),
	}
	if err := s.actions.Insert(ctx, action); err != nil {
		return &entity.PartialFailureError{
			Committed: "post deletion",
			Failed:    "audit record insert",
			Err:       err,
		}
	}

	s.publish(ctx, realtime.Event{
		Table:    realtime.TablePosts,
		Action:   realtime.ActionDelete,
		RecordID: postID,
		ActorID:  moderatorID,
		TargetID: authorID,
	})

	return nil
}

// SubmitReportInput is a user-submitted flag
type SubmitReportInput struct {
	ReporterID     string
	ReportedUserID string
	ReportedPostID string
	Category       entity.ReportCategory
	Reason         string
}

// SubmitReport files a new pending report
func (s *Service) SubmitReport(ctx context.Context, in SubmitReportInput) (*entity.Report, error) {
	report := &entity.Report{
		ReporterID:     in.ReporterID,
		ReportedUserID: in.ReportedUserID,
		ReportedPostID: in.ReportedPostID,
		Category:       in.Category,
		Reason:         in.Reason,
		Status:         entity.ReportPending,
		CreatedAt:      s.now(),
	}
	if err := report.Validate(); err != nil {
		return nil, err
	}

	if err := s.reports.Insert(ctx, report); err != nil {
		return nil, fmt.Errorf("filing report: %w", err)
	}

	s.publish(ctx, realtime.Event{
		Table:    realtime.TableReports,
		Action:   realtime.ActionInsert,
		RecordID: report.ID,
		ActorID:  in.ReporterID,
	})

	return report, nil
}

// ResolveReport moves a report from pending to resolved. Resolving an
// already-resolved report is a no-op, not an error.
func (s *Service) ResolveReport(ctx context.Context, moderatorID, reportID string) error {
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return fmt.Errorf("loading report: %w", err)
	}
	if report == nil {
		return entity.ErrReportNotFound
	}
	if report.Status == entity.ReportResolved {
		return nil
	}

	if err := s.reports.Resolve(ctx, reportID, moderatorID, s.now()); err != nil {
		return fmt.Errorf("resolving report: %w", err)
	}

	s.publish(ctx, realtime.Event{
		Table:    realtime.TableReports,
		Action:   realtime.ActionUpdate,
		RecordID: reportID,
		ActorID:  moderatorID,
	})

	return nil
}

// ListReports returns reports newest first for the dashboard
func (s *Service) ListReports(ctx context.Context, limit int) ([]entity.Report, error) {
	if limit <= 0 {
		limit = 50
	}
	reports, err := s.reports.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	return reports, nil
}

// ListActions returns recorded actions newest first
func (s *Service) ListActions(ctx context.Context, limit int) ([]entity.ModerationAction, error) {
	if limit <= 0 {
		limit = 50
	}
	actions, err := s.actions.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing actions: %w", err)
	}
	return actions, nil
}

// ActiveSanction returns the user's most severe in-force sanction, or nil
func (s *Service) ActiveSanction(ctx context.Context, userID string) (*entity.ModerationAction, error) {
	actions, err := s.actions.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading punitive history: %w", err)
	}
	now := s.now()
	var active *entity.ModerationAction
	for i := range actions {
		a := actions[i]
		if !a.Active(now) {
			continue
		}
		if a.ActionType == entity.ActionBan {
			return &a, nil
		}
		if active == nil {
			active = &a
		}
	}
	return active, nil
}

func (s *Service) publish(ctx context.Context, ev realtime.Event) {
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(ctx, ev); err != nil {
		s.logger.Warn("publishing change event failed", "table", ev.Table, "error", err)
	}
}
