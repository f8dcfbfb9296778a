package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eldar/school-social/internal/domain/announcement/entity"
	"github.com/eldar/school-social/internal/realtime"
)

// AnnouncementRepository is the persistence surface the service needs
type AnnouncementRepository interface {
	Insert(ctx context.Context, a *entity.Announcement) error
	List(ctx context.Context, limit int) ([]*entity.Announcement, error)
}

// AuthorRole carries the fields that decide announcement rights
type AuthorRole struct {
	IsModerator bool
	UserType    string
}

// CanAnnounce allows staff, admins and moderators
func (r AuthorRole) CanAnnounce() bool {
	return r.IsModerator || r.UserType == "staff" || r.UserType == "admin"
}

// RoleProvider resolves a user's role fields
type RoleProvider interface {
	GetRole(ctx context.Context, userID string) (AuthorRole, error)
}

const defaultListLimit = 50

type Service struct {
	repo   AnnouncementRepository
	roles  RoleProvider
	broker realtime.Broker
	logger *slog.Logger
}

func New(repo AnnouncementRepository, roles RoleProvider, broker realtime.Broker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, roles: roles, broker: broker, logger: logger}
}

type CreateInput struct {
	AuthorID string
	Title    string
	Content  string
	Priority entity.Priority
}

// Create publishes an announcement on behalf of a staff member
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Announcement, error) {
	role, err := s.roles.GetRole(ctx, in.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("resolving author role: %w", err)
	}
	if !role.CanAnnounce() {
		return nil, entity.ErrNotStaff
	}

	if in.Priority == "" {
		in.Priority = entity.PriorityNormal
	}

	a := &entity.Announcement{
		ID:        uuid.New().String(),
		UserID:    in.AuthorID,
		Title:     in.Title,
		Content:   in.Content,
		Priority:  in.Priority,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, a); err != nil {
		return nil, fmt.Errorf("storing announcement: %w", err)
	}

	s.publish(ctx, realtime.Event{
		Table:    realtime.TableAnnouncements,
		Action:   realtime.ActionInsert,
		RecordID: a.ID,
		ActorID:  a.UserID,
		At:       a.CreatedAt,
	})

	return a, nil
}

// List returns announcements, urgent first, newest first within a priority
func (s *Service) List(ctx context.Context, limit int) ([]*entity.Announcement, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	return s.repo.List(ctx, limit)
}

func (s *Service) publish(ctx context.Context, ev realtime.Event) {
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(ctx, ev); err != nil {
		s.logger.Warn("publishing announcement event", "error", err)
	}
}
