package service

import (
	"context"
	"errors"
	"testing"

	"github.com/eldar/school-social/internal/domain/community/entity"
	"github.com/eldar/school-social/internal/realtime"
)

type fakeCommunityRepo struct {
	byID         map[string]*entity.Community
	members      map[string]bool              // communityID+":"+userID
	roles        map[string]entity.MemberRole // communityID+":"+userID
	inserted     []*entity.Community
	added        []string
	removed      []string
	roleChanges  []string
	descriptions []string
	posts        []*entity.Post
	addErr       error
	removeErr    error
}

func (f *fakeCommunityRepo) Insert(ctx context.Context, c *entity.Community) error {
	c.ID = "c-new"
	f.inserted = append(f.inserted, c)
	return nil
}

func (f *fakeCommunityRepo) List(ctx context.Context) ([]entity.Community, error) {
	return nil, nil
}

func (f *fakeCommunityRepo) GetByID(ctx context.Context, id string) (*entity.Community, error) {
	return f.byID[id], nil
}

func (f *fakeCommunityRepo) AddMember(ctx context.Context, communityID, userID string, role entity.MemberRole) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, communityID+":"+userID+":"+string(role))
	return nil
}

func (f *fakeCommunityRepo) RemoveMember(ctx context.Context, communityID, userID string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, communityID+":"+userID)
	return nil
}

func (f *fakeCommunityRepo) IsMember(ctx context.Context, communityID, userID string) (bool, error) {
	return f.members[communityID+":"+userID], nil
}

func (f *fakeCommunityRepo) RoleOf(ctx context.Context, communityID, userID string) (entity.MemberRole, error) {
	role, ok := f.roles[communityID+":"+userID]
	if !ok {
		return "", entity.ErrNotMember
	}
	return role, nil
}

func (f *fakeCommunityRepo) UpdateMemberRole(ctx context.Context, communityID, userID string, role entity.MemberRole) error {
	if _, ok := f.roles[communityID+":"+userID]; !ok {
		return entity.ErrNotMember
	}
	f.roleChanges = append(f.roleChanges, communityID+":"+userID+":"+string(role))
	return nil
}

func (f *fakeCommunityRepo) UpdateDescription(ctx context.Context, communityID, description string) error {
	if f.byID[communityID] == nil {
		return entity.ErrCommunityNotFound
	}
	f.descriptions = append(f.descriptions, communityID+":"+description)
	return nil
}

func (f *fakeCommunityRepo) Members(ctx context.Context, communityID string) ([]entity.Member, error) {
	return nil, nil
}

func (f *fakeCommunityRepo) InsertPost(ctx context.Context, p *entity.Post) error {
	p.ID = "cp-new"
	f.posts = append(f.posts, p)
	return nil
}

func (f *fakeCommunityRepo) Posts(ctx context.Context, communityID string) ([]entity.Post, error) {
	return nil, nil
}

func TestCreateMakesCreatorAdmin(t *testing.T) {
	repo := &fakeCommunityRepo{}
	svc := New(repo, nil, nil)

	c, err := svc.Create(context.Background(), CreateInput{
		Name:      "Chess Club",
		CreatorID: "u1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.added) != 1 {
		t.Fatalf("expected creator membership, got %v", repo.added)
	}
	want := c.ID + ":u1:" + string(entity.RoleAdmin)
	if repo.added[0] != want {
		t.Errorf("expected %q, got %q", want, repo.added[0])
	}
}

func TestCreateRejectsBadName(t *testing.T) {
	repo := &fakeCommunityRepo{}
	svc := New(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{Name: "  ", CreatorID: "u1"})
	if !errors.Is(err, entity.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Error("invalid community must not reach the store")
	}
}

func TestJoinUnknownCommunity(t *testing.T) {
	repo := &fakeCommunityRepo{}
	svc := New(repo, nil, nil)

	err := svc.Join(context.Background(), "ghost", "u1")
	if !errors.Is(err, entity.ErrCommunityNotFound) {
		t.Fatalf("expected ErrCommunityNotFound, got %v", err)
	}
}

func TestJoinAsRegularMember(t *testing.T) {
	repo := &fakeCommunityRepo{byID: map[string]*entity.Community{
		"c1": {ID: "c1", Name: "Drama Society"},
	}}
	svc := New(repo, nil, nil)

	if err := svc.Join(context.Background(), "c1", "u2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.added) != 1 || repo.added[0] != "c1:u2:"+string(entity.RoleMember) {
		t.Errorf("expected member role, got %v", repo.added)
	}
}

func TestPostRequiresMembership(t *testing.T) {
	repo := &fakeCommunityRepo{members: map[string]bool{"c1:member": true}}
	svc := New(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Post(ctx, PostInput{CommunityID: "c1", UserID: "outsider", Content: "hello"})
	if !errors.Is(err, entity.ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
	if len(repo.posts) != 0 {
		t.Error("non-member post must not reach the store")
	}

	post, err := svc.Post(ctx, PostInput{CommunityID: "c1", UserID: "member", Content: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.CommunityID != "c1" || post.UserID != "member" {
		t.Errorf("unexpected post: %+v", post)
	}
}

func TestUpdateDescriptionAdminOnly(t *testing.T) {
	repo := &fakeCommunityRepo{
		byID: map[string]*entity.Community{"c1": {ID: "c1", Name: "Chess Club"}},
		roles: map[string]entity.MemberRole{
			"c1:admin":  entity.RoleAdmin,
			"c1:member": entity.RoleMember,
		},
	}
	svc := New(repo, nil, nil)
	ctx := context.Background()

	for _, caller := range []string{"member", "outsider"} {
		err := svc.UpdateDescription(ctx, "c1", caller, "new text")
		if !errors.Is(err, entity.ErrNotAdmin) {
			t.Errorf("caller %s: expected ErrNotAdmin, got %v", caller, err)
		}
	}
	if len(repo.descriptions) != 0 {
		t.Fatalf("non-admin edit must not reach the store, got %v", repo.descriptions)
	}

	if err := svc.UpdateDescription(ctx, "c1", "admin", "weekly on Thursdays"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.descriptions) != 1 || repo.descriptions[0] != "c1:weekly on Thursdays" {
		t.Errorf("unexpected description writes: %v", repo.descriptions)
	}
}

func TestSetMemberRole(t *testing.T) {
	repo := &fakeCommunityRepo{
		roles: map[string]entity.MemberRole{
			"c1:admin":  entity.RoleAdmin,
			"c1:member": entity.RoleMember,
		},
	}
	svc := New(repo, nil, nil)
	ctx := context.Background()

	if err := svc.SetMemberRole(ctx, "c1", "admin", "member", "owner"); !errors.Is(err, entity.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	err := svc.SetMemberRole(ctx, "c1", "member", "admin", entity.RoleMember)
	if !errors.Is(err, entity.ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin for non-admin caller, got %v", err)
	}
	if len(repo.roleChanges) != 0 {
		t.Fatalf("gated call must not reach the store, got %v", repo.roleChanges)
	}

	if err := svc.SetMemberRole(ctx, "c1", "admin", "member", entity.RoleAdmin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "c1:member:" + string(entity.RoleAdmin)
	if len(repo.roleChanges) != 1 || repo.roleChanges[0] != want {
		t.Errorf("expected %q, got %v", want, repo.roleChanges)
	}

	err = svc.SetMemberRole(ctx, "c1", "admin", "ghost", entity.RoleMember)
	if !errors.Is(err, entity.ErrNotMember) {
		t.Fatalf("expected ErrNotMember for unknown target, got %v", err)
	}
}

func TestRemoveMember(t *testing.T) {
	repo := &fakeCommunityRepo{
		roles: map[string]entity.MemberRole{
			"c1:admin":  entity.RoleAdmin,
			"c1:member": entity.RoleMember,
		},
	}
	svc := New(repo, nil, nil)
	ctx := context.Background()

	err := svc.RemoveMember(ctx, "c1", "member", "admin")
	if !errors.Is(err, entity.ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
	if len(repo.removed) != 0 {
		t.Fatalf("gated removal must not reach the store, got %v", repo.removed)
	}

	if err := svc.RemoveMember(ctx, "c1", "admin", "member"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.removed) != 1 || repo.removed[0] != "c1:member" {
		t.Errorf("expected c1:member removed, got %v", repo.removed)
	}

	// Removing yourself is just leaving, no admin gate
	if err := svc.RemoveMember(ctx, "c1", "member", "member"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.removed) != 2 || repo.removed[1] != "c1:member" {
		t.Errorf("expected self-removal, got %v", repo.removed)
	}
}

func TestPostPublishesEvent(t *testing.T) {
	repo := &fakeCommunityRepo{members: map[string]bool{"c1:member": true}}
	broker := &memberEventRecorder{}
	svc := New(repo, broker, nil)

	_, err := svc.Post(context.Background(), PostInput{CommunityID: "c1", UserID: "member", Content: "meeting at 4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(broker.events) != 1 || broker.events[0].Table != realtime.TableCommunityPosts {
		t.Errorf("expected one community_posts event, got %+v", broker.events)
	}
}

type memberEventRecorder struct {
	events []realtime.Event
}

func (e *memberEventRecorder) Publish(ctx context.Context, ev realtime.Event) error {
	e.events = append(e.events, ev)
	return nil
}

func (e *memberEventRecorder) Subscribe(table string, handler func(realtime.Event)) (realtime.Subscription, error) {
	return noopSub{}, nil
}

func (e *memberEventRecorder) Close() {}

type noopSub struct{}

func (noopSub) Unsubscribe() error { return nil }
