package policy

import (
	"context"

	"github.com/eldar/school-social/internal/domain/profile/entity"
)

// ProfileService defines the interface for the profile service
type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*entity.Profile, error)
	UpdateProfile(ctx context.Context, userID string, upd entity.ProfileUpdate) error
	Search(ctx context.Context, viewerID, query string, limit int) ([]entity.Profile, error)
	Follow(ctx context.Context, followerID, targetID string) error
	Unfollow(ctx context.Context, followerID, targetID string) error
	IsFollowing(ctx context.Context, followerID, targetID string) (bool, error)
}

// Policy guards profile operations: a user may only edit their own profile.
type Policy struct {
	svc ProfileService
}

// New creates a new profile policy
func New(svc ProfileService) *Policy {
	return &Policy{svc: svc}
}

// GetProfile returns any user's public profile
func (p *Policy) GetProfile(ctx context.Context, userID string) (*entity.Profile, error) {
	return p.svc.GetProfile(ctx, userID)
}

// UpdateOwnProfile patches the caller's profile
func (p *Policy) UpdateOwnProfile(ctx context.Context, callerID string, upd entity.ProfileUpdate) error {
	if callerID == "" {
		return entity.ErrProfileNotFound
	}
	return p.svc.UpdateProfile(ctx, callerID, upd)
}

// Search finds users to message or follow
func (p *Policy) Search(ctx context.Context, callerID, query string, limit int) ([]entity.Profile, error) {
	return p.svc.Search(ctx, callerID, query, limit)
}

// Follow makes the caller follow target
func (p *Policy) Follow(ctx context.Context, callerID, targetID string) error {
	return p.svc.Follow(ctx, callerID, targetID)
}

// Unfollow makes the caller unfollow target
func (p *Policy) Unfollow(ctx context.Context, callerID, targetID string) error {
	return p.svc.Unfollow(ctx, callerID, targetID)
}

// IsFollowing reports whether the caller follows target
func (p *Policy) IsFollowing(ctx context.Context, callerID, targetID string) (bool, error) {
	return p.svc.IsFollowing(ctx, callerID, targetID)
}
