package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"matchlink/internal/domain"
)

type SubscriptionRepo struct {
	db *sql.DB
}

func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

var _ domain.SubscriptionRepository = (*SubscriptionRepo)(nil)

// Subscribe runs the follow state machine inside one transaction so two
// profiles racing to complete a mutual follow cannot both miss the reciprocal
// row or double-apply the match transition.
func (r *SubscriptionRepo) Subscribe(ctx context.Context, followerID, followingID int64, now time.Time) (*domain.Subscription, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var existingID int64
	var existingStatus domain.SubscriptionStatus
	err = tx.QueryRowContext(ctx, `
		SELECT id, status FROM subscriptions
		WHERE follower_id = ? AND following_id = ?
	`, followerID, followingID).Scan(&existingID, &existingStatus)
	switch {
	case err == nil:
		if existingStatus != domain.StatusRejected {
			return nil, false, domain.ErrConflict
		}
		// Re-request after rejection: the row goes back to PENDING.
		if _, err := tx.ExecContext(ctx, `
			UPDATE subscriptions SET status = ?, matched_at = NULL
			WHERE id = ?
		`, domain.StatusPending, existingID); err != nil {
			return nil, false, fmt.Errorf("revive rejected subscription: %w", err)
		}
	case err == sql.ErrNoRows:
		res, err := tx.ExecContext(ctx, `
			INSERT INTO subscriptions (follower_id, following_id, status, created_at)
			VALUES (?, ?, ?, ?)
		`, followerID, followingID, domain.StatusPending, now)
		if err != nil {
			return nil, false, fmt.Errorf("insert subscription: %w", err)
		}
		existingID, err = res.LastInsertId()
		if err != nil {
			return nil, false, fmt.Errorf("last insert id: %w", err)
		}
	default:
		return nil, false, fmt.Errorf("get subscription: %w", err)
	}

	sub := &domain.Subscription{
		ID:          existingID,
		FollowerID:  followerID,
		FollowingID: followingID,
		Status:      domain.StatusPending,
		CreatedAt:   now,
	}

	// Reciprocity check-and-flip. Both updates are guarded on PENDING so a
	// transition already applied elsewhere is never applied twice.
	var reverseID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM subscriptions
		WHERE follower_id = ? AND following_id = ? AND status = ?
	`, followingID, followerID, domain.StatusPending).Scan(&reverseID)
	if err == sql.ErrNoRows {
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("commit: %w", err)
		}
		return sub, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get reverse subscription: %w", err)
	}

	matched := true
	for _, id := range []int64{reverseID, existingID} {
		res, err := tx.ExecContext(ctx, `
			UPDATE subscriptions SET status = ?, matched_at = ?
			WHERE id = ? AND status = ?
		`, domain.StatusMatched, now, id, domain.StatusPending)
		if err != nil {
			return nil, false, fmt.Errorf("apply match: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, false, fmt.Errorf("rows affected: %w", err)
		}
		if n != 1 {
			matched = false
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}

	if matched {
		sub.Status = domain.StatusMatched
		matchedAt := now
		sub.MatchedAt = &matchedAt
	}
	return sub, matched, nil
}

// Unsubscribe deletes the follower's row. Breaking a match is one-sided: the
// reciprocal row reverts to PENDING instead of being deleted.
func (r *SubscriptionRepo) Unsubscribe(ctx context.Context, followerID, followingID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	var status domain.SubscriptionStatus
	err = tx.QueryRowContext(ctx, `
		SELECT id, status FROM subscriptions
		WHERE follower_id = ? AND following_id = ?
	`, followerID, followingID).Scan(&id, &status)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get subscription: %w", err)
	}

	if status == domain.StatusMatched {
		if _, err := tx.ExecContext(ctx, `
			UPDATE subscriptions SET status = ?, matched_at = NULL
			WHERE follower_id = ? AND following_id = ?
		`, domain.StatusPending, followingID, followerID); err != nil {
			return fmt.Errorf("revert reverse subscription: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *SubscriptionRepo) Reject(ctx context.Context, profileID, subscriptionID int64) (*domain.Subscription, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	sub := &domain.Subscription{}
	var matchedAt sql.NullTime
	err = tx.QueryRowContext(ctx, `
		SELECT id, follower_id, following_id, status, created_at, matched_at
		FROM subscriptions WHERE id = ?
	`, subscriptionID).Scan(&sub.ID, &sub.FollowerID, &sub.FollowingID, &sub.Status, &sub.CreatedAt, &matchedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	if sub.FollowingID != profileID {
		return nil, domain.ErrForbidden
	}

	// Rejecting a matched request also breaks the match; the reciprocal
	// row cannot stay MATCHED on its own.
	if sub.Status == domain.StatusMatched {
		if _, err := tx.ExecContext(ctx, `
			UPDATE subscriptions SET status = ?, matched_at = NULL
			WHERE follower_id = ? AND following_id = ?
		`, domain.StatusPending, sub.FollowingID, sub.FollowerID); err != nil {
			return nil, fmt.Errorf("revert reverse subscription: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE subscriptions SET status = ?, matched_at = NULL WHERE id = ?
	`, domain.StatusRejected, sub.ID); err != nil {
		return nil, fmt.Errorf("reject subscription: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	sub.Status = domain.StatusRejected
	sub.MatchedAt = nil
	return sub, nil
}

func (r *SubscriptionRepo) Get(ctx context.Context, followerID, followingID int64) (*domain.Subscription, error) {
	sub := &domain.Subscription{}
	var matchedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, follower_id, following_id, status, created_at, matched_at
		FROM subscriptions
		WHERE follower_id = ? AND following_id = ?
	`, followerID, followingID).Scan(&sub.ID, &sub.FollowerID, &sub.FollowingID, &sub.Status, &sub.CreatedAt, &matchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	if matchedAt.Valid {
		sub.MatchedAt = &matchedAt.Time
	}
	return sub, nil
}

func (r *SubscriptionRepo) HasMatch(ctx context.Context, profileA, profileB int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE status = ?
			  AND ((follower_id = ? AND following_id = ?)
			    OR (follower_id = ? AND following_id = ?))
		)
	`, domain.StatusMatched, profileA, profileB, profileB, profileA).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check match: %w", err)
	}
	return exists, nil
}

func (r *SubscriptionRepo) HasHistory(ctx context.Context, profileA, profileB int64) (bool, error) {
	matched, err := r.HasMatch(ctx, profileA, profileB)
	if err != nil {
		return false, err
	}
	if matched {
		return true, nil
	}
	var exists bool
	err = r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions WHERE follower_id = ? AND following_id = ?
		) AND EXISTS (
			SELECT 1 FROM subscriptions WHERE follower_id = ? AND following_id = ?
		)
	`, profileA, profileB, profileB, profileA).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check history: %w", err)
	}
	return exists, nil
}

func (r *SubscriptionRepo) ListFollowing(ctx context.Context, profileID int64) ([]*domain.Subscription, error) {
	return r.list(ctx, `WHERE follower_id = ? ORDER BY created_at DESC`, profileID)
}

func (r *SubscriptionRepo) ListFollowers(ctx context.Context, profileID int64) ([]*domain.Subscription, error) {
	return r.list(ctx, `WHERE following_id = ? ORDER BY created_at DESC`, profileID)
}

// ListMatches returns the profile's own direction of each matched pair; the
// reciprocal row carries no extra information.
func (r *SubscriptionRepo) ListMatches(ctx context.Context, profileID int64) ([]*domain.Subscription, error) {
	return r.list(ctx, `WHERE follower_id = ? AND status = 'MATCHED' ORDER BY matched_at DESC`, profileID)
}

func (r *SubscriptionRepo) list(ctx context.Context, where string, arg any) ([]*domain.Subscription, error) {
	query := `
		SELECT id, follower_id, following_id, status, created_at, matched_at
		FROM subscriptions
	` + where
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var res []*domain.Subscription
	for rows.Next() {
		sub := &domain.Subscription{}
		var matchedAt sql.NullTime
		if err := rows.Scan(&sub.ID, &sub.FollowerID, &sub.FollowingID, &sub.Status, &sub.CreatedAt, &matchedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		if matchedAt.Valid {
			sub.MatchedAt = &matchedAt.Time
		}
		res = append(res, sub)
	}
	return res, rows.Err()
}

func (r *SubscriptionRepo) Stats(ctx context.Context, profileID int64) (*domain.SubscriptionStats, error) {
	stats := &domain.SubscriptionStats{}
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM subscriptions WHERE following_id = ?),
			(SELECT COUNT(*) FROM subscriptions WHERE follower_id = ?),
			(SELECT COUNT(*) FROM subscriptions WHERE follower_id = ? AND status = 'MATCHED')
	`, profileID, profileID, profileID).Scan(&stats.Followers, &stats.Following, &stats.Matches)
	if err != nil {
		return nil, fmt.Errorf("subscription stats: %w", err)
	}
	return stats, nil
}
