package sqlite

import (
	"context"
	"sync/atomic"
	"testing"

	"matchlink/internal/domain"
)

var nextUserID atomic.Int64

func newTestDB(t *testing.T) *DBFixture {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &DBFixture{
		Profiles:      NewProfileRepo(db),
		Subscriptions: NewSubscriptionRepo(db),
		Chats:         NewChatRepo(db),
		Messages:      NewMessageRepo(db),
	}
}

type DBFixture struct {
	Profiles      *ProfileRepo
	Subscriptions *SubscriptionRepo
	Chats         *ChatRepo
	Messages      *MessageRepo
}

// seedProfile inserts a profile and returns its id.
func (f *DBFixture) seedProfile(t *testing.T, username string) int64 {
	t.Helper()
	p := &domain.Profile{
		UserID:         nextUserID.Add(1),
		Username:       username,
		DisplayName:    username,
		HashedPassword: "x",
	}
	if err := f.Profiles.Create(context.Background(), p); err != nil {
		t.Fatalf("seed profile %s: %v", username, err)
	}
	return p.ID
}
