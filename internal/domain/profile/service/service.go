package service

import (
	"context"
	"fmt"

	"github.com/eldar/school-social/internal/domain/profile/entity"
)

// ProfileRepository defines the interface for profile storage
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*entity.Profile, error)
	Update(ctx context.Context, userID string, upd entity.ProfileUpdate) error
	Search(ctx context.Context, query, excludeUserID string, limit int) ([]entity.Profile, error)
	FollowCounts(ctx context.Context, userID string) (followers, following int, err error)
}

// FollowRepository defines the interface for follow-edge storage
type FollowRepository interface {
	Insert(ctx context.Context, followerID, followingID string) error
	Delete(ctx context.Context, followerID, followingID string) error
	Exists(ctx context.Context, followerID, followingID string) (bool, error)
}

// Service handles profile and follow operations
type Service struct {
	profiles ProfileRepository
	follows  FollowRepository
}

// New creates a new profile service
func New(profiles ProfileRepository, follows FollowRepository) *Service {
	return &Service{profiles: profiles, follows: follows}
}

// GetProfile returns one profile with its follow counts
func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.Profile, error) {
	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	if p == nil {
		return nil, entity.ErrProfileNotFound
	}
	followers, following, err := s.profiles.FollowCounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.FollowerCount = followers
	p.FollowingCount = following
	return p, nil
}

// UpdateProfile applies a validated patch to the user's own profile
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd entity.ProfileUpdate) error {
	if err := upd.Validate(); err != nil {
		return err
	}
	return s.profiles.Update(ctx, userID, upd)
}

// Search finds up to limit profiles matching the query, excluding the
// searcher
func (s *Service) Search(ctx context.Context, viewerID, query string, limit int) ([]entity.Profile, error) {
	if limit <= 0 || limit > 25 {
		limit = 5
	}
	return s.profiles.Search(ctx, query, viewerID, limit)
}

// Follow records that follower follows target
func (s *Service) Follow(ctx context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return entity.ErrSelfFollow
	}
	return s.follows.Insert(ctx, followerID, targetID)
}

// Unfollow removes the follow edge
func (s *Service) Unfollow(ctx context.Context, followerID, targetID string) error {
	return s.follows.Delete(ctx, followerID, targetID)
}

// IsFollowing reports whether follower follows target
func (s *Service) IsFollowing(ctx context.Context, followerID, targetID string) (bool, error) {
	return s.follows.Exists(ctx, followerID, targetID)
}
