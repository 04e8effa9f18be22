package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database with the given DSN.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer; funneling everything through one
	// connection avoids SQLITE_BUSY under concurrent transactions.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

// Migrate creates the schema. Idempotent CREATE TABLE / CREATE INDEX
// statements; there is no versioned migration history yet.
func Migrate(db *sql.DB) error {
	stmts := []string{
		// Profiles are provisioned by the external account service; this
		// table is the local resolution target.
		`CREATE TABLE IF NOT EXISTS profiles (
			id INTEGER PRIMARY KEY,
			user_id INTEGER UNIQUE NOT NULL,
			username VARCHAR(50) UNIQUE NOT NULL,
			display_name VARCHAR(100) NOT NULL,
			hashed_password VARCHAR(255) NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		// One row per ordered (follower, following) pair. A mutual match
		// is two rows, both MATCHED with equal matched_at.
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id INTEGER PRIMARY KEY,
			follower_id INTEGER NOT NULL,
			following_id INTEGER NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
			created_at DATETIME NOT NULL,
			matched_at DATETIME DEFAULT NULL,
			UNIQUE (follower_id, following_id),
			CHECK (follower_id <> following_id),
			FOREIGN KEY (follower_id) REFERENCES profiles(id) ON DELETE CASCADE,
			FOREIGN KEY (following_id) REFERENCES profiles(id) ON DELETE CASCADE
		);`,
		// profile1_id < profile2_id always; the unordered pair is unique.
		`CREATE TABLE IF NOT EXISTS chats (
			id INTEGER PRIMARY KEY,
			profile1_id INTEGER NOT NULL,
			profile2_id INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			last_message TEXT DEFAULT NULL,
			last_message_at DATETIME DEFAULT NULL,
			UNIQUE (profile1_id, profile2_id),
			CHECK (profile1_id < profile2_id),
			FOREIGN KEY (profile1_id) REFERENCES profiles(id) ON DELETE CASCADE,
			FOREIGN KEY (profile2_id) REFERENCES profiles(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY,
			chat_id INTEGER NOT NULL,
			sender_id INTEGER NOT NULL,
			content TEXT NOT NULL,
			is_edited BOOLEAN NOT NULL DEFAULT 0,
			is_read BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (chat_id) REFERENCES chats(id) ON DELETE CASCADE,
			FOREIGN KEY (sender_id) REFERENCES profiles(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_profiles_user ON profiles(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_follower ON subscriptions(follower_id);`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_following ON subscriptions(following_id);`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_status ON subscriptions(status);`,
		`CREATE INDEX IF NOT EXISTS idx_chats_profile1 ON chats(profile1_id);`,
		`CREATE INDEX IF NOT EXISTS idx_chats_profile2 ON chats(profile2_id);`,
		`CREATE INDEX IF NOT EXISTS idx_chats_last_message_at ON chats(last_message_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat_created ON messages(chat_id, created_at DESC, id DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(chat_id, is_read);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
