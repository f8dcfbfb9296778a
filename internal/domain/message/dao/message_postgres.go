package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eldar/school-social/internal/domain/message/entity"
)

// MessagePostgres implements message repository for PostgreSQL
type MessagePostgres struct {
	pool *pgxpool.Pool
}

// NewMessagePostgres creates a new PostgreSQL message repository
func NewMessagePostgres(pool *pgxpool.Pool) *MessagePostgres {
	return &MessagePostgres{pool: pool}
}

const messageColumns = `
	m.id, m.sender_id, m.recipient_id, m.content, m.is_read, m.created_at,
	sp.user_id, sp.username, sp.display_name, COALESCE(sp.avatar_url, ''),
	rp.user_id, rp.username, rp.display_name, COALESCE(rp.avatar_url, '')
`

const messageJoins = `
	JOIN profiles sp ON sp.user_id = m.sender_id
	JOIN profiles rp ON rp.user_id = m.recipient_id
`

// ListForUser returns every message involving userID, newest first
func (r *MessagePostgres) ListForUser(ctx context.Context, userID string) ([]entity.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m ` + messageJoins + `
		WHERE m.sender_id = $1 OR m.recipient_id = $1
		ORDER BY m.created_at DESC, m.id DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ListBetween returns the transcript between two users, oldest first
func (r *MessagePostgres) ListBetween(ctx context.Context, a, b string) ([]entity.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m ` + messageJoins + `
		WHERE (m.sender_id = $1 AND m.recipient_id = $2)
		   OR (m.sender_id = $2 AND m.recipient_id = $1)
		ORDER BY m.created_at ASC, m.id ASC
	`

	rows, err := r.pool.Query(ctx, query, a, b)
	if err != nil {
		return nil, fmt.Errorf("querying transcript: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// Insert stores a new message row, assigning its ID and timestamp
func (r *MessagePostgres) Insert(ctx context.Context, msg *entity.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO messages (id, sender_id, recipient_id, content, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		msg.ID, msg.SenderID, msg.RecipientID, msg.Content, msg.IsRead, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

// MarkRead acknowledges every unread message from senderID to recipientID in
// one bulk update
func (r *MessagePostgres) MarkRead(ctx context.Context, recipientID, senderID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE recipient_id = $1 AND sender_id = $2 AND NOT is_read
	`, recipientID, senderID)
	if err != nil {
		return 0, fmt.Errorf("marking messages read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanMessages(rows pgx.Rows) ([]entity.Message, error) {
	var messages []entity.Message
	for rows.Next() {
		var (
			msg    entity.Message
			sender entity.ProfileSummary
			recip  entity.ProfileSummary
		)
		err := rows.Scan(
			&msg.ID, &msg.SenderID, &msg.RecipientID, &msg.Content, &msg.IsRead, &msg.CreatedAt,
			&sender.UserID, &sender.Username, &sender.DisplayName, &sender.AvatarURL,
			&recip.UserID, &recip.Username, &recip.DisplayName, &recip.AvatarURL,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		msg.Sender = &sender
		msg.Recipient = &recip
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading message rows: %w", err)
	}
	return messages, nil
}
