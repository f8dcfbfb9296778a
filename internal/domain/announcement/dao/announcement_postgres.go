package dao

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eldar/school-social/internal/domain/announcement/entity"
)

// AnnouncementPostgres persists announcements
type AnnouncementPostgres struct {
	db *pgxpool.Pool
}

func NewAnnouncementPostgres(db *pgxpool.Pool) *AnnouncementPostgres {
	return &AnnouncementPostgres{db: db}
}

func (r *AnnouncementPostgres) Insert(ctx context.Context, a *entity.Announcement) error {
	query := `
		INSERT INTO announcements (id, user_id, title, content, priority, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		a.ID, a.UserID, a.Title, a.Content, string(a.Priority), a.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting announcement: %w", err)
	}

	return nil
}

func (r *AnnouncementPostgres) List(ctx context.Context, limit int) ([]*entity.Announcement, error) {
	query := `
		SELECT a.id, a.user_id, a.title, a.content, a.priority, a.created_at,
		       p.username, COALESCE(p.display_name, ''), COALESCE(p.avatar_url, ''),
		       p.user_type, p.is_moderator
		FROM announcements a
		JOIN profiles p ON p.user_id = a.user_id
		ORDER BY
			CASE a.priority WHEN 'urgent' THEN 2 WHEN 'high' THEN 1 ELSE 0 END DESC,
			a.created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing announcements: %w", err)
	}
	defer rows.Close()

	var out []*entity.Announcement
	for rows.Next() {
		a := &entity.Announcement{Author: &entity.ProfileSummary{}}
		var priority string
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.Title, &a.Content, &priority, &a.CreatedAt,
			&a.Author.Username, &a.Author.DisplayName, &a.Author.AvatarURL,
			&a.Author.UserType, &a.Author.IsModerator,
		); err != nil {
			return nil, fmt.Errorf("scanning announcement: %w", err)
		}
		a.Priority = entity.Priority(priority)
		a.Author.UserID = a.UserID
		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating announcements: %w", err)
	}

	return out, nil
}
