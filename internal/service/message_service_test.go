package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"matchlink/internal/domain"
	"matchlink/internal/service"
)

type MockChatRepo struct {
	mock.Mock
}

func (m *MockChatRepo) Create(ctx context.Context, c *domain.Chat) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockChatRepo) GetByID(ctx context.Context, id int64) (*domain.Chat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chat), args.Error(1)
}

func (m *MockChatRepo) GetByPair(ctx context.Context, p1, p2 int64) (*domain.Chat, error) {
	args := m.Called(ctx, p1, p2)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chat), args.Error(1)
}

func (m *MockChatRepo) ListForProfile(ctx context.Context, profileID int64) ([]*domain.Chat, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Chat), args.Error(1)
}

type MockMessageRepo struct {
	mock.Mock
}

func (m *MockMessageRepo) Create(ctx context.Context, msg *domain.Message, preview string) error {
	args := m.Called(ctx, msg, preview)
	return args.Error(0)
}

func (m *MockMessageRepo) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepo) Update(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMessageRepo) ListForChat(ctx context.Context, chatID int64, limit, offset int) ([]*domain.Message, error) {
	args := m.Called(ctx, chatID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockMessageRepo) MarkRead(ctx context.Context, chatID, readerID int64) error {
	args := m.Called(ctx, chatID, readerID)
	return args.Error(0)
}

func (m *MockMessageRepo) UnreadCount(ctx context.Context, profileID, chatID int64) (int, error) {
	args := m.Called(ctx, profileID, chatID)
	return args.Int(0), args.Error(1)
}

func newMessageService(chats *MockChatRepo, msgs *MockMessageRepo) (*service.MessageService, *MockProfileRepo) {
	profiles := new(MockProfileRepo)
	profiles.On("GetByID", mock.Anything, mock.Anything).Return(&domain.Profile{ID: 1, DisplayName: "Alice"}, nil).Maybe()
	return service.NewMessageService(profiles, chats, msgs, 2000), profiles
}

func TestMessageServiceSend(t *testing.T) {
	ctx := context.Background()
	chat := &domain.Chat{ID: 5, Profile1ID: 1, Profile2ID: 2}

	t.Run("Success", func(t *testing.T) {
		chats := new(MockChatRepo)
		chats.On("GetByID", mock.Anything, int64(5)).Return(chat, nil)
		msgs := new(MockMessageRepo)
		msgs.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
			return m.ChatID == 5 && m.SenderID == 1 && m.Content == "hello"
		}), "hello").Return(nil)

		svc, _ := newMessageService(chats, msgs)
		resp, err := svc.Send(ctx, 1, 5, "hello")
		assert.NoError(t, err)
		assert.Equal(t, "hello", resp.Content)
		msgs.AssertExpectations(t)
	})

	t.Run("ChatMissing", func(t *testing.T) {
		chats := new(MockChatRepo)
		chats.On("GetByID", mock.Anything, int64(5)).Return(nil, nil)

		svc, _ := newMessageService(chats, new(MockMessageRepo))
		_, err := svc.Send(ctx, 1, 5, "hello")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("NotParticipant", func(t *testing.T) {
		chats := new(MockChatRepo)
		chats.On("GetByID", mock.Anything, int64(5)).Return(chat, nil)
		msgs := new(MockMessageRepo)

		svc, _ := newMessageService(chats, msgs)
		_, err := svc.Send(ctx, 9, 5, "hello")
		assert.ErrorIs(t, err, domain.ErrForbidden)
		msgs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("EmptyContent", func(t *testing.T) {
		chats := new(MockChatRepo)
		chats.On("GetByID", mock.Anything, int64(5)).Return(chat, nil)

		svc, _ := newMessageService(chats, new(MockMessageRepo))
		_, err := svc.Send(ctx, 1, 5, "")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("TooLong", func(t *testing.T) {
		chats := new(MockChatRepo)
		chats.On("GetByID", mock.Anything, int64(5)).Return(chat, nil)

		svc, _ := newMessageService(chats, new(MockMessageRepo))
		_, err := svc.Send(ctx, 1, 5, strings.Repeat("x", 2001))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("PreviewTruncated", func(t *testing.T) {
		long := strings.Repeat("a", 150)
		chats := new(MockChatRepo)
		chats.On("GetByID", mock.Anything, int64(5)).Return(chat, nil)
		msgs := new(MockMessageRepo)
		msgs.On("Create", mock.Anything, mock.Anything, strings.Repeat("a", 100)).Return(nil)

		svc, _ := newMessageService(chats, msgs)
		_, err := svc.Send(ctx, 1, 5, long)
		assert.NoError(t, err)
		msgs.AssertExpectations(t)
	})
}

func TestMessageServiceEdit(t *testing.T) {
	ctx := context.Background()

	t.Run("OnlyAuthor", func(t *testing.T) {
		msgs := new(MockMessageRepo)
		msgs.On("GetByID", mock.Anything, int64(3)).Return(&domain.Message{ID: 3, ChatID: 5, SenderID: 2, Content: "orig"}, nil)

		svc, _ := newMessageService(new(MockChatRepo), msgs)
		_, err := svc.Edit(ctx, 1, 3, "changed")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("SetsEditedFlag", func(t *testing.T) {
		msgs := new(MockMessageRepo)
		msgs.On("GetByID", mock.Anything, int64(3)).Return(&domain.Message{ID: 3, ChatID: 5, SenderID: 1, Content: "orig"}, nil)
		msgs.On("Update", mock.Anything, mock.MatchedBy(func(m *domain.Message) bool {
			return m.Content == "changed" && m.IsEdited
		})).Return(nil)

		svc, _ := newMessageService(new(MockChatRepo), msgs)
		resp, err := svc.Edit(ctx, 1, 3, "changed")
		assert.NoError(t, err)
		assert.True(t, resp.IsEdited)
		msgs.AssertExpectations(t)
	})
}

func TestMessageServiceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("ReturnsChatID", func(t *testing.T) {
		msgs := new(MockMessageRepo)
		msgs.On("GetByID", mock.Anything, int64(3)).Return(&domain.Message{ID: 3, ChatID: 5, SenderID: 1}, nil)
		msgs.On("Delete", mock.Anything, int64(3)).Return(nil)

		svc, _ := newMessageService(new(MockChatRepo), msgs)
		chatID, err := svc.Delete(ctx, 1, 3)
		assert.NoError(t, err)
		assert.Equal(t, int64(5), chatID)
	})

	t.Run("Missing", func(t *testing.T) {
		msgs := new(MockMessageRepo)
		msgs.On("GetByID", mock.Anything, int64(3)).Return(nil, nil)

		svc, _ := newMessageService(new(MockChatRepo), msgs)
		_, err := svc.Delete(ctx, 1, 3)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestMessageServiceList_ReversesPage(t *testing.T) {
	ctx := context.Background()
	chat := &domain.Chat{ID: 5, Profile1ID: 1, Profile2ID: 2}

	chats := new(MockChatRepo)
	chats.On("GetByID", mock.Anything, int64(5)).Return(chat, nil)
	msgs := new(MockMessageRepo)
	// Store pages newest-first.
	msgs.On("ListForChat", mock.Anything, int64(5), 50, 0).Return([]*domain.Message{
		{ID: 3, ChatID: 5, SenderID: 1, Content: "third"},
		{ID: 2, ChatID: 5, SenderID: 2, Content: "second"},
		{ID: 1, ChatID: 5, SenderID: 1, Content: "first"},
	}, nil)

	svc, _ := newMessageService(chats, msgs)
	resp, err := svc.List(ctx, 1, 5, 0, 0)
	assert.NoError(t, err)
	assert.Len(t, resp, 3)
	assert.Equal(t, "first", resp[0].Content)
	assert.Equal(t, "third", resp[2].Content)
}

func TestChatServiceGetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("ForbiddenWithoutMatch", func(t *testing.T) {
		profiles := new(MockProfileRepo)
		profiles.On("GetByID", mock.Anything, int64(2)).Return(&domain.Profile{ID: 2}, nil)
		subs := new(MockSubscriptionRepo)
		subs.On("HasMatch", mock.Anything, int64(1), int64(2)).Return(false, nil)

		svc := service.NewChatService(profiles, subs, new(MockChatRepo))
		_, err := svc.GetOrCreateChat(ctx, 1, 2)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("CanonicalPair", func(t *testing.T) {
		profiles := new(MockProfileRepo)
		profiles.On("GetByID", mock.Anything, mock.Anything).Return(&domain.Profile{ID: 1, DisplayName: "A"}, nil)
		subs := new(MockSubscriptionRepo)
		subs.On("HasMatch", mock.Anything, int64(9), int64(2)).Return(true, nil)

		chats := new(MockChatRepo)
		// Caller id is larger; lookup must still use (smaller, larger).
		chats.On("GetByPair", mock.Anything, int64(2), int64(9)).Return(&domain.Chat{ID: 4, Profile1ID: 2, Profile2ID: 9}, nil)

		svc := service.NewChatService(profiles, subs, chats)
		resp, err := svc.GetOrCreateChat(ctx, 9, 2)
		assert.NoError(t, err)
		assert.Equal(t, int64(4), resp.ID)
		chats.AssertExpectations(t)
	})

	t.Run("SelfChat", func(t *testing.T) {
		svc := service.NewChatService(new(MockProfileRepo), new(MockSubscriptionRepo), new(MockChatRepo))
		_, err := svc.GetOrCreateChat(ctx, 1, 1)
		assert.ErrorIs(t, err, domain.ErrInvalidTarget)
	})
}
