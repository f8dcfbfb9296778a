package service

import (
	"context"
	"errors"
	"testing"

	"github.com/eldar/school-social/internal/domain/profile/entity"
)

type fakeProfileRepo struct {
	byID        map[string]*entity.Profile
	updates     int
	searchLimit int
}

func (f *fakeProfileRepo) GetByUserID(ctx context.Context, userID string) (*entity.Profile, error) {
	return f.byID[userID], nil
}

func (f *fakeProfileRepo) Update(ctx context.Context, userID string, upd entity.ProfileUpdate) error {
	f.updates++
	return nil
}

func (f *fakeProfileRepo) Search(ctx context.Context, query, excludeUserID string, limit int) ([]entity.Profile, error) {
	f.searchLimit = limit
	return nil, nil
}

func (f *fakeProfileRepo) FollowCounts(ctx context.Context, userID string) (int, int, error) {
	return 12, 7, nil
}

type fakeFollowRepo struct {
	follows []string
}

func (f *fakeFollowRepo) Insert(ctx context.Context, followerID, followingID string) error {
	f.follows = append(f.follows, followerID+">"+followingID)
	return nil
}

func (f *fakeFollowRepo) Delete(ctx context.Context, followerID, followingID string) error {
	return nil
}

func (f *fakeFollowRepo) Exists(ctx context.Context, followerID, followingID string) (bool, error) {
	return false, nil
}

func TestGetProfileAttachesCounts(t *testing.T) {
	profiles := &fakeProfileRepo{byID: map[string]*entity.Profile{
		"u1": {UserID: "u1", Username: "sam"},
	}}
	svc := New(profiles, &fakeFollowRepo{})

	p, err := svc.GetProfile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.FollowerCount != 12 || p.FollowingCount != 7 {
		t.Errorf("expected counts 12/7, got %d/%d", p.FollowerCount, p.FollowingCount)
	}
}

func TestGetProfileMissing(t *testing.T) {
	svc := New(&fakeProfileRepo{}, &fakeFollowRepo{})

	_, err := svc.GetProfile(context.Background(), "ghost")
	if !errors.Is(err, entity.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestUpdateProfileValidates(t *testing.T) {
	profiles := &fakeProfileRepo{}
	svc := New(profiles, &fakeFollowRepo{})
	ctx := context.Background()

	if err := svc.UpdateProfile(ctx, "u1", entity.ProfileUpdate{}); !errors.Is(err, entity.ErrNothingToUpdate) {
		t.Errorf("expected ErrNothingToUpdate, got %v", err)
	}

	empty := "  "
	if err := svc.UpdateProfile(ctx, "u1", entity.ProfileUpdate{DisplayName: &empty}); !errors.Is(err, entity.ErrEmptyDisplayName) {
		t.Errorf("expected ErrEmptyDisplayName, got %v", err)
	}

	if profiles.updates != 0 {
		t.Errorf("invalid updates must not reach the store, got %d", profiles.updates)
	}

	name := "Sam W"
	if err := svc.UpdateProfile(ctx, "u1", entity.ProfileUpdate{DisplayName: &name}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profiles.updates != 1 {
		t.Errorf("expected 1 store write, got %d", profiles.updates)
	}
}

func TestSearchClampsLimit(t *testing.T) {
	profiles := &fakeProfileRepo{}
	svc := New(profiles, &fakeFollowRepo{})
	ctx := context.Background()

	if _, err := svc.Search(ctx, "u1", "sam", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profiles.searchLimit != 5 {
		t.Errorf("expected default limit 5, got %d", profiles.searchLimit)
	}

	if _, err := svc.Search(ctx, "u1", "sam", 1000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profiles.searchLimit != 5 {
		t.Errorf("expected oversized limit clamped to 5, got %d", profiles.searchLimit)
	}
}

func TestFollowRejectsSelf(t *testing.T) {
	follows := &fakeFollowRepo{}
	svc := New(&fakeProfileRepo{}, follows)

	if err := svc.Follow(context.Background(), "u1", "u1"); !errors.Is(err, entity.ErrSelfFollow) {
		t.Fatalf("expected ErrSelfFollow, got %v", err)
	}
	if len(follows.follows) != 0 {
		t.Error("self-follow must not reach the store")
	}

	if err := svc.Follow(context.Background(), "u1", "u2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(follows.follows) != 1 || follows.follows[0] != "u1>u2" {
		t.Errorf("unexpected follow edge: %v", follows.follows)
	}
}
