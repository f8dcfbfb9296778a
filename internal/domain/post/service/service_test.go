package service

import (
	"context"
	"errors"
	"testing"

	"github.com/eldar/school-social/internal/domain/post/entity"
	"github.com/eldar/school-social/internal/realtime"
)

type fakePostRepo struct {
	byID     map[string]*entity.Post
	inserted []*entity.Post
	deleted  []string
}

func (f *fakePostRepo) Insert(ctx context.Context, post *entity.Post) error {
	post.ID = "p-new"
	f.inserted = append(f.inserted, post)
	return nil
}

func (f *fakePostRepo) Feed(ctx context.Context, viewerID string, limit int) ([]entity.Post, error) {
	return nil, nil
}

func (f *fakePostRepo) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	return f.byID[id], nil
}

func (f *fakePostRepo) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeInteractionRepo struct {
	comments []*entity.Comment
	likeErr  error
}

func (f *fakeInteractionRepo) Like(ctx context.Context, postID, userID string) error {
	return f.likeErr
}

func (f *fakeInteractionRepo) Unlike(ctx context.Context, postID, userID string) error {
	return nil
}

func (f *fakeInteractionRepo) InsertComment(ctx context.Context, c *entity.Comment) error {
	c.ID = "c-new"
	f.comments = append(f.comments, c)
	return nil
}

func (f *fakeInteractionRepo) ListComments(ctx context.Context, postID string) ([]entity.Comment, error) {
	return nil, nil
}

type eventRecorder struct {
	events []realtime.Event
}

func (e *eventRecorder) Publish(ctx context.Context, ev realtime.Event) error {
	e.events = append(e.events, ev)
	return nil
}

func (e *eventRecorder) Subscribe(table string, handler func(realtime.Event)) (realtime.Subscription, error) {
	return nopSub{}, nil
}

func (e *eventRecorder) Close() {}

type nopSub struct{}

func (nopSub) Unsubscribe() error { return nil }

func TestCreateValidatesContent(t *testing.T) {
	posts := &fakePostRepo{}
	svc := New(posts, &fakeInteractionRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{UserID: "u1", Content: "  "})
	if !errors.Is(err, entity.ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	if len(posts.inserted) != 0 {
		t.Error("invalid post must not reach the store")
	}
}

func TestCreatePublishesEvent(t *testing.T) {
	posts := &fakePostRepo{}
	broker := &eventRecorder{}
	svc := New(posts, &fakeInteractionRepo{}, broker, nil)

	post, err := svc.Create(context.Background(), CreateInput{UserID: "u1", Content: "first day back"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if post.UserID != "u1" {
		t.Errorf("expected author u1, got %s", post.UserID)
	}
	if len(broker.events) != 1 || broker.events[0].Table != realtime.TablePosts {
		t.Errorf("expected one posts event, got %+v", broker.events)
	}
}

func TestDeleteOwn(t *testing.T) {
	posts := &fakePostRepo{byID: map[string]*entity.Post{
		"p1": {ID: "p1", UserID: "author"},
	}}
	svc := New(posts, &fakeInteractionRepo{}, nil, nil)
	ctx := context.Background()

	if err := svc.DeleteOwn(ctx, "intruder", "p1"); !errors.Is(err, entity.ErrNotAuthor) {
		t.Errorf("expected ErrNotAuthor, got %v", err)
	}
	if len(posts.deleted) != 0 {
		t.Error("non-author must not delete")
	}

	if err := svc.DeleteOwn(ctx, "author", "ghost"); !errors.Is(err, entity.ErrPostNotFound) {
		t.Errorf("expected ErrPostNotFound, got %v", err)
	}

	if err := svc.DeleteOwn(ctx, "author", "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts.deleted) != 1 || posts.deleted[0] != "p1" {
		t.Errorf("expected p1 deleted, got %v", posts.deleted)
	}
}

func TestCommentRequiresExistingPost(t *testing.T) {
	posts := &fakePostRepo{byID: map[string]*entity.Post{
		"p1": {ID: "p1", UserID: "author"},
	}}
	interactions := &fakeInteractionRepo{}
	svc := New(posts, interactions, nil, nil)
	ctx := context.Background()

	_, err := svc.Comment(ctx, CommentInput{UserID: "u1", PostID: "ghost", Content: "nice"})
	if !errors.Is(err, entity.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}

	_, err = svc.Comment(ctx, CommentInput{UserID: "u1", PostID: "p1", Content: ""})
	if !errors.Is(err, entity.ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}

	comment, err := svc.Comment(ctx, CommentInput{UserID: "u1", PostID: "p1", Content: "nice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comment.PostID != "p1" || comment.UserID != "u1" {
		t.Errorf("unexpected comment: %+v", comment)
	}
	if comment.CreatedAt.IsZero() {
		t.Error("comment timestamp must be set")
	}
}

func TestLikePassesThrough(t *testing.T) {
	interactions := &fakeInteractionRepo{likeErr: entity.ErrAlreadyLiked}
	svc := New(&fakePostRepo{}, interactions, nil, nil)

	if err := svc.Like(context.Background(), "u1", "p1"); !errors.Is(err, entity.ErrAlreadyLiked) {
		t.Errorf("expected ErrAlreadyLiked, got %v", err)
	}
}
