package service

import (
	"context"
	"fmt"

	"matchlink/internal/domain"
)

// ChatService maps a matched pair of profiles to their canonical chat.
type ChatService struct {
	profiles domain.ProfileRepository
	subs     domain.SubscriptionRepository
	chats    domain.ChatRepository
}

func NewChatService(profiles domain.ProfileRepository, subs domain.SubscriptionRepository, chats domain.ChatRepository) *ChatService {
	return &ChatService{
		profiles: profiles,
		subs:     subs,
		chats:    chats,
	}
}

// ChatResponse is a chat with both participant summaries attached.
type ChatResponse struct {
	*domain.Chat
	Profile1 *domain.ProfileSummary `json:"profile1"`
	Profile2 *domain.ProfileSummary `json:"profile2"`
}

// GetOrCreateChat returns the chat between the caller and the other profile,
// creating it lazily on first request. Requires a current match; match
// history alone is not enough.
func (s *ChatService) GetOrCreateChat(ctx context.Context, profileID, otherProfileID int64) (*ChatResponse, error) {
	if profileID == otherProfileID {
		return nil, domain.ErrInvalidTarget
	}

	other, err := s.profiles.GetByID(ctx, otherProfileID)
	if err != nil {
		return nil, fmt.Errorf("get other profile: %w", err)
	}
	if other == nil {
		return nil, domain.ErrNotFound
	}

	matched, err := s.subs.HasMatch(ctx, profileID, otherProfileID)
	if err != nil {
		return nil, fmt.Errorf("check match: %w", err)
	}
	if !matched {
		return nil, domain.ErrForbidden
	}

	p1, p2 := profileID, otherProfileID
	if p1 > p2 {
		p1, p2 = p2, p1
	}

	chat, err := s.chats.GetByPair(ctx, p1, p2)
	if err != nil {
		return nil, fmt.Errorf("find chat: %w", err)
	}
	if chat == nil {
		chat = &domain.Chat{Profile1ID: p1, Profile2ID: p2}
		if err := s.chats.Create(ctx, chat); err != nil {
			// A concurrent request may have created the pair first; the
			// unique index makes the insert fail, so re-fetch.
			chat, err = s.chats.GetByPair(ctx, p1, p2)
			if err != nil {
				return nil, fmt.Errorf("refetch chat: %w", err)
			}
			if chat == nil {
				return nil, domain.ErrInternal
			}
		}
	}

	return s.toResponse(ctx, chat)
}

// ListChats returns the profile's chats, most recently active first.
func (s *ChatService) ListChats(ctx context.Context, profileID int64) ([]*ChatResponse, error) {
	chats, err := s.chats.ListForProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	res := make([]*ChatResponse, 0, len(chats))
	for _, chat := range chats {
		resp, err := s.toResponse(ctx, chat)
		if err != nil {
			return nil, err
		}
		res = append(res, resp)
	}
	return res, nil
}

// GetChat returns the chat by id; the caller must be a participant.
func (s *ChatService) GetChat(ctx context.Context, profileID, chatID int64) (*domain.Chat, error) {
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
	return chat, nil
}

func (s *ChatService) toResponse(ctx context.Context, chat *domain.Chat) (*ChatResponse, error) {
	resp := &ChatResponse{Chat: chat}
	if p, err := s.profiles.GetByID(ctx, chat.Profile1ID); err == nil && p != nil {
		resp.Profile1 = p.Summary()
	}
	if p, err := s.profiles.GetByID(ctx, chat.Profile2ID); err == nil && p != nil {
		resp.Profile2 = p.Summary()
	}
	return resp, nil
}
