package service

import (
	"context"
	"fmt"
	"time"

	"matchlink/internal/domain"
	"matchlink/internal/metrics"
)

// lastMessagePreviewLen bounds the denormalized preview stored on the chat.
const lastMessagePreviewLen = 100

// MessageService owns the durable, ordered message log of a chat.
type MessageService struct {
	profiles domain.ProfileRepository
	chats    domain.ChatRepository
	messages domain.MessageRepository

	MaxMessageLength int
	DefaultListLimit int
}

func NewMessageService(profiles domain.ProfileRepository, chats domain.ChatRepository, messages domain.MessageRepository, maxMessageLength int) *MessageService {
	if maxMessageLength <= 0 {
		maxMessageLength = 2000
	}
	return &MessageService{
		profiles:         profiles,
		chats:            chats,
		messages:         messages,
		MaxMessageLength: maxMessageLength,
		DefaultListLimit: 50,
	}
}

// MessageResponse is a message with the sender summary attached.
type MessageResponse struct {
	ID        int64                  `json:"id"`
	ChatID    int64                  `json:"chat_id"`
	SenderID  int64                  `json:"sender_id"`
	Sender    *domain.ProfileSummary `json:"sender,omitempty"`
	Content   string                 `json:"content"`
	IsEdited  bool                   `json:"is_edited"`
	IsRead    bool                   `json:"is_read"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Send persists a message and updates the chat's last-message cache in the
// same logical operation. The caller must be a participant of the chat.
func (s *MessageService) Send(ctx context.Context, profileID, chatID int64, content string) (*MessageResponse, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	if chat == nil {
		return nil, domain.ErrNotFound
	}
	if !chat.HasParticipant(profileID) {
		return nil, domain.ErrForbidden
	}
	if err := s.validateContent(content); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ChatID:   chatID,
		SenderID: profileID,
		Content:  content,
	}
	if err := s.messages.Create(ctx, msg, truncate(content, lastMessagePreviewLen)); err != nil {
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues("sent").Inc()

	return s.ToResponse(ctx, msg), nil
}

// Edit replaces the content of a message authored by the caller.
func (s *MessageService) Edit(ctx context.Context, profileID, messageID int64, content string) (*MessageResponse, error) {
	if err := s.validateContent(content); err != nil {
		return nil, err
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	if msg == nil {
		return nil, domain.ErrNotFound
	}
	if msg.SenderID != profileID {
		return nil, domain.ErrForbidden
	}

	msg.Content = content
	msg.IsEdited = true
	if err := s.messages.Update(ctx, msg); err != nil {
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues("edited").Inc()

	return s.ToResponse(ctx, msg), nil
}

// Delete hard-deletes a message authored by the caller and returns the chat
// it belonged to, for room broadcasts.
func (s *MessageService) Delete(ctx context.Context, profileID, messageID int64) (int64, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return 0, fmt.Errorf("get message: %w", err)
	}
	if msg == nil {
		return 0, domain.ErrNotFound
	}
	if msg.SenderID != profileID {
		return 0, domain.ErrForbidden
	}
	if err := s.messages.Delete(ctx, messageID); err != nil {
		return 0, err
	}
	metrics.MessagesTotal.WithLabelValues("deleted").Inc()
	return msg.ChatID, nil
}

// List returns a page of the chat's messages in chronological order. The
// store pages newest-first; the page is reversed before returning.
func (s *MessageService) List(ctx context.Context, profileID, chatID int64, limit, offset int) ([]*MessageResponse, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	if chat == nil {
		return nil, domain.ErrNotFound
	}
	if !chat.HasParticipant(profileID) {
		return nil, domain.ErrForbidden
	}

	if limit <= 0 {
		limit = s.DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	msgs, err := s.messages.ListForChat(ctx, chatID, limit, offset)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	res := make([]*MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, s.ToResponse(ctx, m))
	}
	return res, nil
}

// MarkRead flips is_read on every unread message in the chat authored by
// the other participant. Idempotent.
func (s *MessageService) MarkRead(ctx context.Context, profileID, chatID int64) error {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return fmt.Errorf("get chat: %w", err)
	}
	if chat == nil {
		return domain.ErrNotFound
	}
	if !chat.HasParticipant(profileID) {
		return domain.ErrForbidden
	}
	return s.messages.MarkRead(ctx, chatID, profileID)
}

// UnreadCount counts unread messages addressed to the profile, optionally
// scoped to one chat (chatID 0 means all chats).
func (s *MessageService) UnreadCount(ctx context.Context, profileID, chatID int64) (int, error) {
	return s.messages.UnreadCount(ctx, profileID, chatID)
}

// ToResponse attaches the sender summary to a message.
func (s *MessageService) ToResponse(ctx context.Context, m *domain.Message) *MessageResponse {
	resp := &MessageResponse{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		IsEdited:  m.IsEdited,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if p, err := s.profiles.GetByID(ctx, m.SenderID); err == nil && p != nil {
		resp.Sender = p.Summary()
	}
	return resp
}

func (s *MessageService) validateContent(content string) error {
	if content == "" {
		return domain.ErrValidation
	}
	if len([]rune(content)) > s.MaxMessageLength {
		return domain.ErrValidation
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
