package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eldar/school-social/internal/domain/moderation/entity"
)

// ActionPostgres implements moderation action storage for PostgreSQL
type ActionPostgres struct {
	pool *pgxpool.Pool
}

// NewActionPostgres creates a new PostgreSQL action repository
func NewActionPostgres(pool *pgxpool.Pool) *ActionPostgres {
	return &ActionPostgres{pool: pool}
}

// Insert appends one action record. Records are never updated or deleted.
func (r *ActionPostgres) Insert(ctx context.Context, action *entity.ModerationAction) error {
	if action.ID == "" {
		action.ID = uuid.New().String()
	}
	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_moderation (id, user_id, moderator_id, action_type, reason, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, action.ID, action.UserID, action.ModeratorID, action.ActionType, action.Reason, action.ExpiresAt, action.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting moderation action: %w", err)
	}
	return nil
}

const actionSelect = `
	SELECT a.id, a.user_id, a.moderator_id, a.action_type, a.reason, a.expires_at, a.created_at,
	       tp.username, tp.display_name, COALESCE(tp.avatar_url, ''),
	       mp.username, mp.display_name, COALESCE(mp.avatar_url, '')
	FROM user_moderation a
	JOIN profiles tp ON tp.user_id = a.user_id
	JOIN profiles mp ON mp.user_id = a.moderator_id
`

// List returns recorded actions newest first
func (r *ActionPostgres) List(ctx context.Context, limit int) ([]entity.ModerationAction, error) {
	rows, err := r.pool.Query(ctx, actionSelect+`
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying actions: %w", err)
	}
	defer rows.Close()

	var actions []entity.ModerationAction
	for rows.Next() {
		var (
			a    entity.ModerationAction
			targ entity.ProfileSummary
			mod  entity.ProfileSummary
		)
		err := rows.Scan(
			&a.ID, &a.UserID, &a.ModeratorID, &a.ActionType, &a.Reason, &a.ExpiresAt, &a.CreatedAt,
			&targ.Username, &targ.DisplayName, &targ.AvatarURL,
			&mod.Username, &mod.DisplayName, &mod.AvatarURL,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning action row: %w", err)
		}
		targ.UserID = a.UserID
		mod.UserID = a.ModeratorID
		a.TargetUser = &targ
		a.Moderator = &mod
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// ListForUser returns one user's punitive history, newest first
func (r *ActionPostgres) ListForUser(ctx context.Context, userID string) ([]entity.ModerationAction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, moderator_id, action_type, reason, expires_at, created_at
		FROM user_moderation
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying user actions: %w", err)
	}
	defer rows.Close()

	var actions []entity.ModerationAction
	for rows.Next() {
		var a entity.ModerationAction
		err := rows.Scan(&a.ID, &a.UserID, &a.ModeratorID, &a.ActionType, &a.Reason, &a.ExpiresAt, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning action row: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
