package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/eldar/school-social/internal/domain/post/entity"
	"github.com/eldar/school-social/internal/realtime"
)

// PostRepository defines the interface for post storage
type PostRepository interface {
	Insert(ctx context.Context, post *entity.Post) error
	Feed(ctx context.Context, viewerID string, limit int) ([]entity.Post, error)
	GetByID(ctx context.Context, id string) (*entity.Post, error)
	Delete(ctx context.Context, id string) error
}

// InteractionRepository defines like and comment storage
type InteractionRepository interface {
	Like(ctx context.Context, postID, userID string) error
	Unlike(ctx context.Context, postID, userID string) error
	InsertComment(ctx context.Context, c *entity.Comment) error
	ListComments(ctx context.Context, postID string) ([]entity.Comment, error)
}

// Service handles feed and post interactions
type Service struct {
	posts        PostRepository
	interactions InteractionRepository
	broker       realtime.Broker
	logger       *slog.Logger
}

// New creates a new post service
func New(posts PostRepository, interactions InteractionRepository, broker realtime.Broker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{posts: posts, interactions: interactions, broker: broker, logger: logger}
}

// Feed returns the newest posts for the viewer
func (s *Service) Feed(ctx context.Context, viewerID string, limit int) ([]entity.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	posts, err := s.posts.Feed(ctx, viewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading feed: %w", err)
	}
	return posts, nil
}

// CreateInput represents a new post
type CreateInput struct {
	UserID   string
	Content  string
	ImageURL string
}

// Create validates and stores a new post
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Post, error) {
	if err := entity.ValidatePostContent(in.Content); err != nil {
		return nil, err
	}

	post := &entity.Post{
		UserID:    in.UserID,
		Content:   in.Content,
		ImageURL:  in.ImageURL,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.posts.Insert(ctx, post); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.publish(ctx, realtime.Event{
		Table:    realtime.TablePosts,
		Action:   realtime.ActionInsert,
		RecordID: post.ID,
		ActorID:  post.UserID,
	})

	return post, nil
}

// DeleteOwn removes a post after verifying the caller wrote it
func (s *Service) DeleteOwn(ctx context.Context, callerID, postID string) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("loading post: %w", err)
	}
	if post == nil {
		return entity.ErrPostNotFound
	}
	if post.UserID != callerID {
		return entity.ErrNotAuthor
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}

	s.publish(ctx, realtime.Event{
		Table:    realtime.TablePosts,
		Action:   realtime.ActionDelete,
		RecordID: postID,
		ActorID:  callerID,
	})

	return nil
}

// Like records a viewer's like on a post
func (s *Service) Like(ctx context.Context, viewerID, postID string) error {
	return s.interactions.Like(ctx, postID, viewerID)
}

// Unlike removes a viewer's like
func (s *Service) Unlike(ctx context.Context, viewerID, postID string) error {
	return s.interactions.Unlike(ctx, postID, viewerID)
}

// CommentInput represents a new comment
type CommentInput struct {
	UserID  string
	PostID  string
	Content string
}

// Comment validates and attaches a comment to a post
func (s *Service) Comment(ctx context.Context, in CommentInput) (*entity.Comment, error) {
	if err := entity.ValidateCommentContent(in.Content); err != nil {
		return nil, err
	}

	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, fmt.Errorf("loading post: %w", err)
	}
	if post == nil {
		return nil, entity.ErrPostNotFound
	}

	comment := &entity.Comment{
		PostID:    in.PostID,
		UserID:    in.UserID,
		Content:   in.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.interactions.InsertComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}
	return comment, nil
}

// Comments returns a post's comments oldest first
func (s *Service) Comments(ctx context.Context, postID string) ([]entity.Comment, error) {
	comments, err := s.interactions.ListComments(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("loading comments: %w", err)
	}
	return comments, nil
}

func (s *Service) publish(ctx context.Context, ev realtime.Event) {
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(ctx, ev); err != nil {
		s.logger.Warn("publishing change event failed", "table", ev.Table, "error", err)
	}
}
