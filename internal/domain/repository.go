package domain

import (
	"context"
	"time"
)

// ProfileRepository resolves profiles. Provisioning happens outside this
// service; Create exists for fixtures and external tooling.
type ProfileRepository interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id int64) (*Profile, error)
	GetByUserID(ctx context.Context, userID int64) (*Profile, error)
	GetByUsername(ctx context.Context, username string) (*Profile, error)
}

// SubscriptionRepository owns the follow/match state machine rows.
//
// Subscribe and Unsubscribe are transactional: the reciprocity check-and-flip
// and the matched-pair revert each touch two rows and must not be torn by a
// concurrent writer.
type SubscriptionRepository interface {
	// Subscribe creates (or revives from REJECTED) the follower's row and,
	// if a reciprocal PENDING row exists, flips both rows to MATCHED with
	// the given timestamp. The bool result reports whether a match fired.
	Subscribe(ctx context.Context, followerID, followingID int64, now time.Time) (*Subscription, bool, error)
	// Unsubscribe deletes the follower's row. If the row was MATCHED the
	// reciprocal row reverts to PENDING with matched_at cleared.
	Unsubscribe(ctx context.Context, followerID, followingID int64) error
	// Reject marks an incoming request REJECTED. Only the followed side
	// (following_id == profileID) may reject.
	Reject(ctx context.Context, profileID, subscriptionID int64) (*Subscription, error)
	Get(ctx context.Context, followerID, followingID int64) (*Subscription, error)
	// HasMatch reports whether a current MATCHED pair exists between the
	// two profiles, in either direction.
	HasMatch(ctx context.Context, profileA, profileB int64) (bool, error)
	// HasHistory reports whether rows have ever existed in both directions
	// between the two profiles, regardless of current status.
	HasHistory(ctx context.Context, profileA, profileB int64) (bool, error)
	ListFollowing(ctx context.Context, profileID int64) ([]*Subscription, error)
	ListFollowers(ctx context.Context, profileID int64) ([]*Subscription, error)
	ListMatches(ctx context.Context, profileID int64) ([]*Subscription, error)
	Stats(ctx context.Context, profileID int64) (*SubscriptionStats, error)
}

// ChatRepository defines persistence operations for chats.
type ChatRepository interface {
	Create(ctx context.Context, c *Chat) error
	GetByID(ctx context.Context, id int64) (*Chat, error)
	// GetByPair looks a chat up by its canonical (smaller, larger) pair.
	GetByPair(ctx context.Context, profile1ID, profile2ID int64) (*Chat, error)
	// ListForProfile returns chats the profile participates in, most
	// recently active first (chats without messages last).
	ListForProfile(ctx context.Context, profileID int64) ([]*Chat, error)
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	// Create persists the message and refreshes the owning chat's
	// last_message preview and last_message_at in the same transaction.
	Create(ctx context.Context, m *Message, preview string) error
	GetByID(ctx context.Context, id int64) (*Message, error)
	Update(ctx context.Context, m *Message) error
	Delete(ctx context.Context, id int64) error
	// ListForChat returns messages newest-first for pagination; callers
	// reverse before returning to clients.
	ListForChat(ctx context.Context, chatID int64, limit, offset int) ([]*Message, error)
	// MarkRead flips is_read on every unread message in the chat not
	// authored by readerID. Idempotent.
	MarkRead(ctx context.Context, chatID, readerID int64) error
	// UnreadCount counts unread messages addressed to the profile; chatID 0
	// means across all chats the profile participates in.
	UnreadCount(ctx context.Context, profileID, chatID int64) (int, error)
}
