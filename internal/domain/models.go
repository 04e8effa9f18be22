package domain

import "time"

// SubscriptionStatus is the state of a one-directional follow request.
type SubscriptionStatus string

const (
	StatusPending  SubscriptionStatus = "PENDING"
	StatusMatched  SubscriptionStatus = "MATCHED"
	StatusRejected SubscriptionStatus = "REJECTED"
)

// Profile is the record backing a dating profile. Account and profile
// attribute management live outside this service; we only resolve profiles
// and verify login credentials.
type Profile struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	Username       string    `db:"username" json:"username"`
	DisplayName    string    `db:"display_name" json:"display_name"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// ProfileSummary is the public shape of a profile attached to chats,
// messages, and subscriptions.
type ProfileSummary struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
}

// Summary returns the public view of the profile.
func (p *Profile) Summary() *ProfileSummary {
	return &ProfileSummary{ID: p.ID, DisplayName: p.DisplayName}
}

// Subscription is a directional follow row. A mutual match is represented by
// two rows, one per direction, both MATCHED with the same MatchedAt.
type Subscription struct {
	ID          int64              `db:"id" json:"id"`
	FollowerID  int64              `db:"follower_id" json:"follower_id"`
	FollowingID int64              `db:"following_id" json:"following_id"`
	Status      SubscriptionStatus `db:"status" json:"status"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
	MatchedAt   *time.Time         `db:"matched_at" json:"matched_at,omitempty"`
}

// SubscriptionStats aggregates a profile's follow counts.
type SubscriptionStats struct {
	Followers int `json:"followers"`
	Following int `json:"following"`
	Matches   int `json:"matches"`
}

// Chat is the canonical conversation between two matched profiles.
// Profile1ID < Profile2ID always; the unordered pair is unique.
type Chat struct {
	ID            int64      `db:"id" json:"id"`
	Profile1ID    int64      `db:"profile1_id" json:"profile1_id"`
	Profile2ID    int64      `db:"profile2_id" json:"profile2_id"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
	LastMessage   *string    `db:"last_message" json:"last_message,omitempty"`
	LastMessageAt *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
}

// HasParticipant reports whether the profile is one of the chat's two sides.
func (c *Chat) HasParticipant(profileID int64) bool {
	return c.Profile1ID == profileID || c.Profile2ID == profileID
}

// OtherParticipant returns the opposite side of the chat for the given
// participant.
func (c *Chat) OtherParticipant(profileID int64) int64 {
	if c.Profile1ID == profileID {
		return c.Profile2ID
	}
	return c.Profile1ID
}

// Message is a single chat message.
type Message struct {
	ID        int64     `db:"id" json:"id"`
	ChatID    int64     `db:"chat_id" json:"chat_id"`
	SenderID  int64     `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	IsEdited  bool      `db:"is_edited" json:"is_edited"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
