package dao

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eldar/school-social/internal/domain/profile/entity"
)

// ProfilePostgres implements profile storage for PostgreSQL
type ProfilePostgres struct {
	pool *pgxpool.Pool
}

// NewProfilePostgres creates a new PostgreSQL profile repository
func NewProfilePostgres(pool *pgxpool.Pool) *ProfilePostgres {
	return &ProfilePostgres{pool: pool}
}

// GetByUserID loads one profile, nil when absent
func (r *ProfilePostgres) GetByUserID(ctx context.Context, userID string) (*entity.Profile, error) {
	var p entity.Profile
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, username, display_name, COALESCE(avatar_url, ''), COALESCE(bio, ''),
		       user_type, is_moderator, is_verified, created_at
		FROM profiles
		WHERE user_id = $1
	`, userID).Scan(
		&p.UserID, &p.Username, &p.DisplayName, &p.AvatarURL, &p.Bio,
		&p.UserType, &p.IsModerator, &p.IsVerified, &p.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning profile: %w", err)
	}
	return &p, nil
}

// Update patches the caller-editable fields of one profile
func (r *ProfilePostgres) Update(ctx context.Context, userID string, upd entity.ProfileUpdate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE profiles
		SET display_name = COALESCE($1, display_name),
		    bio          = COALESCE($2, bio),
		    avatar_url   = COALESCE($3, avatar_url)
		WHERE user_id = $4
	`, upd.DisplayName, upd.Bio, upd.AvatarURL, userID)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrProfileNotFound
	}
	return nil
}

// Search finds profiles whose username or display name matches the pattern,
// excluding one user (the searcher)
func (r *ProfilePostgres) Search(ctx context.Context, query, excludeUserID string, limit int) ([]entity.Profile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, username, display_name, COALESCE(avatar_url, ''), COALESCE(bio, ''),
		       user_type, is_moderator, is_verified, created_at
		FROM profiles
		WHERE user_id <> $1
		  AND (username ILIKE '%' || $2 || '%' OR display_name ILIKE '%' || $2 || '%')
		ORDER BY username ASC
		LIMIT $3
	`, excludeUserID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching profiles: %w", err)
	}
	defer rows.Close()

	var profiles []entity.Profile
	for rows.Next() {
		var p entity.Profile
		err := rows.Scan(
			&p.UserID, &p.Username, &p.DisplayName, &p.AvatarURL, &p.Bio,
			&p.UserType, &p.IsModerator, &p.IsVerified, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning profile row: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// FollowCounts returns follower and following totals for a user
func (r *ProfilePostgres) FollowCounts(ctx context.Context, userID string) (followers, following int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM follows WHERE following_id = $1),
			(SELECT COUNT(*) FROM follows WHERE follower_id = $1)
	`, userID).Scan(&followers, &following)
	if err != nil {
		return 0, 0, fmt.Errorf("counting follows: %w", err)
	}
	return followers, following, nil
}
