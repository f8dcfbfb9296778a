package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eldar/school-social/internal/domain/post/entity"
)

// InteractionPostgres implements like and comment storage for PostgreSQL
type InteractionPostgres struct {
	pool *pgxpool.Pool
}

// NewInteractionPostgres creates a new PostgreSQL interaction repository
func NewInteractionPostgres(pool *pgxpool.Pool) *InteractionPostgres {
	return &InteractionPostgres{pool: pool}
}

// Like records a like. The unique (post, user, type) constraint maps
// duplicates to ErrAlreadyLiked.
func (r *InteractionPostgres) Like(ctx context.Context, postID, userID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO post_interactions (id, post_id, user_id, interaction_type)
		VALUES ($1, $2, $3, 'like')
	`, uuid.New().String(), postID, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return entity.ErrAlreadyLiked
		}
		return fmt.Errorf("inserting like: %w", err)
	}
	return nil
}

// Unlike removes a like
func (r *InteractionPostgres) Unlike(ctx context.Context, postID, userID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM post_interactions
		WHERE post_id = $1 AND user_id = $2 AND interaction_type = 'like'
	`, postID, userID)
	if err != nil {
		return fmt.Errorf("deleting like: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrNotLiked
	}
	return nil
}

// InsertComment attaches a comment to a post
func (r *InteractionPostgres) InsertComment(ctx context.Context, c *entity.Comment) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO post_comments (id, post_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.PostID, c.UserID, c.Content, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting comment: %w", err)
	}
	return nil
}

// ListComments returns a post's comments oldest first with author summaries
func (r *InteractionPostgres) ListComments(ctx context.Context, postID string) ([]entity.Comment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.post_id, c.user_id, c.content, c.created_at,
		       pr.username, pr.display_name, COALESCE(pr.avatar_url, '')
		FROM post_comments c
		JOIN profiles pr ON pr.user_id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC, c.id ASC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()

	var comments []entity.Comment
	for rows.Next() {
		var (
			c      entity.Comment
			author entity.ProfileSummary
		)
		err := rows.Scan(
			&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt,
			&author.Username, &author.DisplayName, &author.AvatarURL,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning comment row: %w", err)
		}
		author.UserID = c.UserID
		c.Author = &author
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
