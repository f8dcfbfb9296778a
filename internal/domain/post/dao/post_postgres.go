package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eldar/school-social/internal/domain/post/entity"
)

// PostPostgres implements post storage for PostgreSQL
type PostPostgres struct {
	pool *pgxpool.Pool
}

// NewPostPostgres creates a new PostgreSQL post repository
func NewPostPostgres(pool *pgxpool.Pool) *PostPostgres {
	return &PostPostgres{pool: pool}
}

// Insert stores a new post
func (r *PostPostgres) Insert(ctx context.Context, post *entity.Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO posts (id, user_id, content, image_url, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
	`, post.ID, post.UserID, post.Content, post.ImageURL, post.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting post: %w", err)
	}
	return nil
}

// Feed returns the newest posts with author summaries and per-viewer like
// state, in one query
func (r *PostPostgres) Feed(ctx context.Context, viewerID string, limit int) ([]entity.Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.user_id, p.content, COALESCE(p.image_url, ''), p.created_at,
		       pr.username, pr.display_name, COALESCE(pr.avatar_url, ''), pr.user_type, pr.is_verified,
		       (SELECT COUNT(*) FROM post_interactions i
		         WHERE i.post_id = p.id AND i.interaction_type = 'like'),
		       (SELECT COUNT(*) FROM post_comments c WHERE c.post_id = p.id),
		       EXISTS (SELECT 1 FROM post_interactions i
		         WHERE i.post_id = p.id AND i.user_id = $1 AND i.interaction_type = 'like')
		FROM posts p
		JOIN profiles pr ON pr.user_id = p.user_id
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2
	`, viewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying feed: %w", err)
	}
	defer rows.Close()

	var posts []entity.Post
	for rows.Next() {
		var (
			p      entity.Post
			author entity.ProfileSummary
		)
		err := rows.Scan(
			&p.ID, &p.UserID, &p.Content, &p.ImageURL, &p.CreatedAt,
			&author.Username, &author.DisplayName, &author.AvatarURL, &author.UserType, &author.IsVerified,
			&p.LikeCount, &p.CommentCount, &p.ViewerLiked,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning post row: %w", err)
		}
		author.UserID = p.UserID
		p.Author = &author
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetByID loads one post without counts, nil when absent
func (r *PostPostgres) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	var p entity.Post
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, content, COALESCE(image_url, ''), created_at
		FROM posts
		WHERE id = $1
	`, id).Scan(&p.ID, &p.UserID, &p.Content, &p.ImageURL, &p.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning post: %w", err)
	}
	return &p, nil
}

// Delete removes a post row
func (r *PostPostgres) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrPostNotFound
	}
	return nil
}

// DeleteReturningAuthor removes a post and reports who wrote it. Used by the
// moderation flow, which needs the author for its audit record.
func (r *PostPostgres) DeleteReturningAuthor(ctx context.Context, postID string) (string, error) {
	var authorID string
	err := r.pool.QueryRow(ctx, `
		DELETE FROM posts WHERE id = $1 RETURNING user_id
	`, postID).Scan(&authorID)
	if err == pgx.ErrNoRows {
		return "", entity.ErrPostNotFound
	}
	if err != nil {
		return "", fmt.Errorf("deleting post: %w", err)
	}
	return authorID, nil
}
