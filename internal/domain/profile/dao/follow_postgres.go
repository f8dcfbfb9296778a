package dao

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eldar/school-social/internal/domain/profile/entity"
)

// FollowPostgres implements follow-relationship storage for PostgreSQL
type FollowPostgres struct {
	pool *pgxpool.Pool
}

// NewFollowPostgres creates a new PostgreSQL follow repository
func NewFollowPostgres(pool *pgxpool.Pool) *FollowPostgres {
	return &FollowPostgres{pool: pool}
}

// Insert records a follow edge. A duplicate edge maps to ErrAlreadyFollowing
// via the unique constraint.
func (r *FollowPostgres) Insert(ctx context.Context, followerID, followingID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO follows (id, follower_id, following_id)
		VALUES ($1, $2, $3)
	`, uuid.New().String(), followerID, followingID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return entity.ErrAlreadyFollowing
		}
		return fmt.Errorf("inserting follow: %w", err)
	}
	return nil
}

// Delete removes a follow edge
func (r *FollowPostgres) Delete(ctx context.Context, followerID, followingID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM follows
		WHERE follower_id = $1 AND following_id = $2
	`, followerID, followingID)
	if err != nil {
		return fmt.Errorf("deleting follow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrNotFollowing
	}
	return nil
}

// Exists reports whether follower follows following
func (r *FollowPostgres) Exists(ctx context.Context, followerID, followingID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2
		)
	`, followerID, followingID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking follow: %w", err)
	}
	return exists, nil
}
