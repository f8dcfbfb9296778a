package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eldar/school-social/internal/domain/community/entity"
	"github.com/eldar/school-social/internal/realtime"
)

// CommunityRepository defines the interface for community storage
type CommunityRepository interface {
	Insert(ctx context.Context, c *entity.Community) error
	List(ctx context.Context) ([]entity.Community, error)
	GetByID(ctx context.Context, id string) (*entity.Community, error)
	UpdateDescription(ctx context.Context, communityID, description string) error
	AddMember(ctx context.Context, communityID, userID string, role entity.MemberRole) error
	RemoveMember(ctx context.Context, communityID, userID string) error
	IsMember(ctx context.Context, communityID, userID string) (bool, error)
	RoleOf(ctx context.Context, communityID, userID string) (entity.MemberRole, error)
	UpdateMemberRole(ctx context.Context, communityID, userID string, role entity.MemberRole) error
	Members(ctx context.Context, communityID string) ([]entity.Member, error)
	InsertPost(ctx context.Context, p *entity.Post) error
	Posts(ctx context.Context, communityID string) ([]entity.Post, error)
}

// Service handles community spaces
type Service struct {
	repo   CommunityRepository
	broker realtime.Broker
	logger *slog.Logger
}

// New creates a new community service
func New(repo CommunityRepository, broker realtime.Broker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, broker: broker, logger: logger}
}

// CreateInput represents a new community
type CreateInput struct {
	Name        string
	Description string
	CreatorID   string
}

// Create stores a new community and makes its creator an admin member. The
// two writes are sequential; a failed membership insert leaves the community
// row committed and is surfaced to the caller.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Community, error) {
	if err := entity.ValidateName(in.Name); err != nil {
		return nil, err
	}

	c := &entity.Community{
		Name:        in.Name,
		Description: in.Description,
		CreatedBy:   in.CreatorID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("creating community: %w", err)
	}

	if err := s.repo.AddMember(ctx, c.ID, in.CreatorID, entity.RoleAdmin); err != nil {
		return nil, fmt.Errorf("adding creator membership: %w", err)
	}

	return c, nil
}

// List returns all communities with member counts
func (s *Service) List(ctx context.Context) ([]entity.Community, error) {
	communities, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing communities: %w", err)
	}
	return communities, nil
}

// Join makes userID a member of the community
func (s *Service) Join(ctx context.Context, communityID, userID string) error {
	c, err := s.repo.GetByID(ctx, communityID)
	if err != nil {
		return fmt.Errorf("loading community: %w", err)
	}
	if c == nil {
		return entity.ErrCommunityNotFound
	}
	return s.repo.AddMember(ctx, communityID, userID, entity.RoleMember)
}

// Leave removes userID from the community
func (s *Service) Leave(ctx context.Context, communityID, userID string) error {
	return s.repo.RemoveMember(ctx, communityID, userID)
}

// UpdateDescription replaces a community's description. Admins only; an
// empty description clears it.
func (s *Service) UpdateDescription(ctx context.Context, communityID, callerID, description string) error {
	if err := s.requireAdmin(ctx, communityID, callerID); err != nil {
		return err
	}
	if err := entity.ValidateDescription(description); err != nil {
		return err
	}
	return s.repo.UpdateDescription(ctx, communityID, description)
}

// SetMemberRole promotes or demotes another member. Admins only.
func (s *Service) SetMemberRole(ctx context.Context, communityID, callerID, targetID string, role entity.MemberRole) error {
	if !role.Valid() {
		return entity.ErrInvalidRole
	}
	if err := s.requireAdmin(ctx, communityID, callerID); err != nil {
		return err
	}
	return s.repo.UpdateMemberRole(ctx, communityID, targetID, role)
}

// RemoveMember expels another member from the community. Admins only; the
// caller leaves through Leave instead.
func (s *Service) RemoveMember(ctx context.Context, communityID, callerID, targetID string) error {
	if targetID == callerID {
		return s.Leave(ctx, communityID, callerID)
	}
	if err := s.requireAdmin(ctx, communityID, callerID); err != nil {
		return err
	}
	return s.repo.RemoveMember(ctx, communityID, targetID)
}

func (s *Service) requireAdmin(ctx context.Context, communityID, callerID string) error {
	role, err := s.repo.RoleOf(ctx, communityID, callerID)
	if err != nil {
		if errors.Is(err, entity.ErrNotMember) {
			return entity.ErrNotAdmin
		}
		return fmt.Errorf("resolving caller role: %w", err)
	}
	if role != entity.RoleAdmin {
		return entity.ErrNotAdmin
	}
	return nil
}

// Members returns a community's member list, oldest joined first
func (s *Service) Members(ctx context.Context, communityID string) ([]entity.Member, error) {
	members, err := s.repo.Members(ctx, communityID)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	return members, nil
}

// PostInput represents a new community post
type PostInput struct {
	CommunityID string
	UserID      string
	Content     string
}

// Post publishes a message into a community. Only members may post.
func (s *Service) Post(ctx context.Context, in PostInput) (*entity.Post, error) {
	if err := entity.ValidatePostContent(in.Content); err != nil {
		return nil, err
	}

	member, err := s.repo.IsMember(ctx, in.CommunityID, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("checking membership: %w", err)
	}
	if !member {
		return nil, entity.ErrNotMember
	}

	post := &entity.Post{
		CommunityID: in.CommunityID,
		UserID:      in.UserID,
		Content:     in.Content,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.InsertPost(ctx, post); err != nil {
		return nil, fmt.Errorf("creating community post: %w", err)
	}

	if s.broker != nil {
		ev := realtime.Event{
			Table:    realtime.TableCommunityPosts,
			Action:   realtime.ActionInsert,
			RecordID: post.ID,
			ActorID:  post.UserID,
		}
		if err := s.broker.Publish(ctx, ev); err != nil {
			s.logger.Warn("publishing change event failed", "table", ev.Table, "error", err)
		}
	}

	return post, nil
}

// Posts returns a community's message history, oldest first
func (s *Service) Posts(ctx context.Context, communityID string) ([]entity.Post, error) {
	posts, err := s.repo.Posts(ctx, communityID)
	if err != nil {
		return nil, fmt.Errorf("listing community posts: %w", err)
	}
	return posts, nil
}
