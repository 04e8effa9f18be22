package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"matchlink/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

// Create persists the message and refreshes the chat's denormalized
// last-message cache in the same transaction, so the cache can never point
// at a message that was not durably written.
func (r *MessageRepo) Create(ctx context.Context, m *domain.Message, preview string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO messages (chat_id, sender_id, content, is_edited, is_read, created_at, updated_at)
		VALUES (?, ?, ?, 0, 0, ?, ?)
	`, m.ChatID, m.SenderID, m.Content, now, now)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE chats SET last_message = ?, last_message_at = ?, updated_at = ?
		WHERE id = ?
	`, preview, now, now, m.ChatID); err != nil {
		return fmt.Errorf("update chat last message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	m.ID = id
	m.CreatedAt = now
	m.UpdatedAt = now
	return nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	query := `
		SELECT id, chat_id, sender_id, content, is_edited, is_read, created_at, updated_at
		FROM messages
		WHERE id = ?
	`
	m := &domain.Message{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID,
		&m.ChatID,
		&m.SenderID,
		&m.Content,
		&m.IsEdited,
		&m.IsRead,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

func (r *MessageRepo) Update(ctx context.Context, m *domain.Message) error {
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, `
		UPDATE messages SET content = ?, is_edited = ?, updated_at = ?
		WHERE id = ?
	`, m.Content, m.IsEdited, now, m.ID); err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	m.UpdatedAt = now
	return nil
}

func (r *MessageRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func (r *MessageRepo) ListForChat(ctx context.Context, chatID int64, limit, offset int) ([]*domain.Message, error) {
	query := `
		SELECT id, chat_id, sender_id, content, is_edited, is_read, created_at, updated_at
		FROM messages
		WHERE chat_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, chatID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var res []*domain.Message
	for rows.Next() {
		m := &domain.Message{}
		if err := rows.Scan(
			&m.ID,
			&m.ChatID,
			&m.SenderID,
			&m.Content,
			&m.IsEdited,
			&m.IsRead,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (r *MessageRepo) MarkRead(ctx context.Context, chatID, readerID int64) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE messages SET is_read = 1, updated_at = ?
		WHERE chat_id = ? AND sender_id <> ? AND is_read = 0
	`, time.Now().UTC(), chatID, readerID); err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	return nil
}

func (r *MessageRepo) UnreadCount(ctx context.Context, profileID, chatID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM messages m
		JOIN chats c ON c.id = m.chat_id
		WHERE m.sender_id <> ? AND m.is_read = 0
		  AND (c.profile1_id = ? OR c.profile2_id = ?)
	`
	args := []any{profileID, profileID, profileID}
	if chatID != 0 {
		query += ` AND m.chat_id = ?`
		args = append(args, chatID)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}
