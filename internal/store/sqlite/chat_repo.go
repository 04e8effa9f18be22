package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"matchlink/internal/domain"
)

type ChatRepo struct {
	db *sql.DB
}

func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

var _ domain.ChatRepository = (*ChatRepo)(nil)

func (r *ChatRepo) Create(ctx context.Context, c *domain.Chat) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO chats (profile1_id, profile2_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, c.Profile1ID, c.Profile2ID, now, now)
	if err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func (r *ChatRepo) GetByID(ctx context.Context, id int64) (*domain.Chat, error) {
	return r.getOne(ctx, `WHERE id = ?`, id)
}

func (r *ChatRepo) GetByPair(ctx context.Context, profile1ID, profile2ID int64) (*domain.Chat, error) {
	return r.getOne(ctx, `WHERE profile1_id = ? AND profile2_id = ?`, profile1ID, profile2ID)
}

func (r *ChatRepo) getOne(ctx context.Context, where string, args ...any) (*domain.Chat, error) {
	query := `
		SELECT id, profile1_id, profile2_id, created_at, updated_at, last_message, last_message_at
		FROM chats
	` + where
	c := &domain.Chat{}
	var lastMessage sql.NullString
	var lastMessageAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&c.ID,
		&c.Profile1ID,
		&c.Profile2ID,
		&c.CreatedAt,
		&c.UpdatedAt,
		&lastMessage,
		&lastMessageAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	if lastMessage.Valid {
		c.LastMessage = &lastMessage.String
	}
	if lastMessageAt.Valid {
		c.LastMessageAt = &lastMessageAt.Time
	}
	return c, nil
}

func (r *ChatRepo) ListForProfile(ctx context.Context, profileID int64) ([]*domain.Chat, error) {
	query := `
		SELECT id, profile1_id, profile2_id, created_at, updated_at, last_message, last_message_at
		FROM chats
		WHERE profile1_id = ? OR profile2_id = ?
		ORDER BY last_message_at IS NULL, last_message_at DESC, created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, profileID, profileID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var res []*domain.Chat
	for rows.Next() {
		c := &domain.Chat{}
		var lastMessage sql.NullString
		var lastMessageAt sql.NullTime
		if err := rows.Scan(
			&c.ID,
			&c.Profile1ID,
			&c.Profile2ID,
			&c.CreatedAt,
			&c.UpdatedAt,
			&lastMessage,
			&lastMessageAt,
		); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		if lastMessage.Valid {
			c.LastMessage = &lastMessage.String
		}
		if lastMessageAt.Valid {
			c.LastMessageAt = &lastMessageAt.Time
		}
		res = append(res, c)
	}
	return res, rows.Err()
}
