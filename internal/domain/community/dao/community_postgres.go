package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eldar/school-social/internal/domain/community/entity"
)

// CommunityPostgres implements community storage for PostgreSQL
type CommunityPostgres struct {
	pool *pgxpool.Pool
}

// NewCommunityPostgres creates a new PostgreSQL community repository
func NewCommunityPostgres(pool *pgxpool.Pool) *CommunityPostgres {
	return &CommunityPostgres{pool: pool}
}

// Insert stores a new community
func (r *CommunityPostgres) Insert(ctx context.Context, c *entity.Community) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO communities (id, name, description, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.Name, c.Description, c.CreatedBy, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting community: %w", err)
	}
	return nil
}

// List returns all communities newest first with creator summaries and
// member counts
func (r *CommunityPostgres) List(ctx context.Context) ([]entity.Community, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.name, COALESCE(c.description, ''), c.created_by, c.created_at,
		       pr.username, pr.display_name, COALESCE(pr.avatar_url, ''),
		       (SELECT COUNT(*) FROM community_members m WHERE m.community_id = c.id)
		FROM communities c
		JOIN profiles pr ON pr.user_id = c.created_by
		ORDER BY c.created_at DESC, c.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying communities: %w", err)
	}
	defer rows.Close()

	var communities []entity.Community
	for rows.Next() {
		var (
			c       entity.Community
			creator entity.ProfileSummary
		)
		err := rows.Scan(
			&c.ID, &c.Name, &c.Description, &c.CreatedBy, &c.CreatedAt,
			&creator.Username, &creator.DisplayName, &creator.AvatarURL,
			&c.MemberCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning community row: %w", err)
		}
		creator.UserID = c.CreatedBy
		c.Creator = &creator
		communities = append(communities, c)
	}
	return communities, rows.Err()
}

// GetByID loads one community, nil when absent
func (r *CommunityPostgres) GetByID(ctx context.Context, id string) (*entity.Community, error) {
	var c entity.Community
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(description, ''), created_by, created_at
		FROM communities
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedBy, &c.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning community: %w", err)
	}
	return &c, nil
}

// UpdateDescription replaces a community's description
func (r *CommunityPostgres) UpdateDescription(ctx context.Context, communityID, description string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE communities
		SET description = NULLIF($2, '')
		WHERE id = $1
	`, communityID, description)
	if err != nil {
		return fmt.Errorf("updating community description: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrCommunityNotFound
	}
	return nil
}

// RoleOf returns userID's membership role, ErrNotMember when absent
func (r *CommunityPostgres) RoleOf(ctx context.Context, communityID, userID string) (entity.MemberRole, error) {
	var role entity.MemberRole
	err := r.pool.QueryRow(ctx, `
		SELECT role FROM community_members
		WHERE community_id = $1 AND user_id = $2
	`, communityID, userID).Scan(&role)
	if err == pgx.ErrNoRows {
		return "", entity.ErrNotMember
	}
	if err != nil {
		return "", fmt.Errorf("scanning membership role: %w", err)
	}
	return role, nil
}

// UpdateMemberRole changes one membership row's role
func (r *CommunityPostgres) UpdateMemberRole(ctx context.Context, communityID, userID string, role entity.MemberRole) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE community_members
		SET role = $3
		WHERE community_id = $1 AND user_id = $2
	`, communityID, userID, role)
	if err != nil {
		return fmt.Errorf("updating membership role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrNotMember
	}
	return nil
}

// AddMember records a membership. Duplicate joins map to ErrAlreadyMember.
func (r *CommunityPostgres) AddMember(ctx context.Context, communityID, userID string, role entity.MemberRole) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO community_members (id, community_id, user_id, role)
		VALUES ($1, $2, $3, $4)
	`, uuid.New().String(), communityID, userID, role)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return entity.ErrAlreadyMember
		}
		return fmt.Errorf("inserting membership: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership
func (r *CommunityPostgres) RemoveMember(ctx context.Context, communityID, userID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM community_members
		WHERE community_id = $1 AND user_id = $2
	`, communityID, userID)
	if err != nil {
		return fmt.Errorf("deleting membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrNotMember
	}
	return nil
}

// IsMember reports whether userID belongs to the community
func (r *CommunityPostgres) IsMember(ctx context.Context, communityID, userID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM community_members WHERE community_id = $1 AND user_id = $2
		)
	`, communityID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking membership: %w", err)
	}
	return exists, nil
}

// Members returns a community's members, oldest joined first
func (r *CommunityPostgres) Members(ctx context.Context, communityID string) ([]entity.Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.community_id, m.user_id, m.role, m.joined_at,
		       pr.username, pr.display_name, COALESCE(pr.avatar_url, ''), pr.user_type
		FROM community_members m
		JOIN profiles pr ON pr.user_id = m.user_id
		WHERE m.community_id = $1
		ORDER BY m.joined_at ASC, m.id ASC
	`, communityID)
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}
	defer rows.Close()

	var members []entity.Member
	for rows.Next() {
		var (
			m entity.Member
			p entity.ProfileSummary
		)
		err := rows.Scan(
			&m.ID, &m.CommunityID, &m.UserID, &m.Role, &m.JoinedAt,
			&p.Username, &p.DisplayName, &p.AvatarURL, &p.UserType,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}
		p.UserID = m.UserID
		m.Profile = &p
		members = append(members, m)
	}
	return members, rows.Err()
}

// InsertPost stores a community post
func (r *CommunityPostgres) InsertPost(ctx context.Context, p *entity.Post) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO community_posts (id, community_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.CommunityID, p.UserID, p.Content, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting community post: %w", err)
	}
	return nil
}

// Posts returns a community's posts oldest first with author summaries
func (r *CommunityPostgres) Posts(ctx context.Context, communityID string) ([]entity.Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.community_id, p.user_id, p.content, p.created_at,
		       pr.username, pr.display_name, COALESCE(pr.avatar_url, ''), pr.user_type
		FROM community_posts p
		JOIN profiles pr ON pr.user_id = p.user_id
		WHERE p.community_id = $1
		ORDER BY p.created_at ASC, p.id ASC
	`, communityID)
	if err != nil {
		return nil, fmt.Errorf("querying community posts: %w", err)
	}
	defer rows.Close()

	var posts []entity.Post
	for rows.Next() {
		var (
			p      entity.Post
			author entity.ProfileSummary
		)
		err := rows.Scan(
			&p.ID, &p.CommunityID, &p.UserID, &p.Content, &p.CreatedAt,
			&author.Username, &author.DisplayName, &author.AvatarURL, &author.UserType,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning community post row: %w", err)
		}
		author.UserID = p.UserID
		p.Author = &author
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
