package service

import (
	"context"
	"fmt"
	"time"

	"matchlink/internal/domain"
	"matchlink/internal/metrics"
)

// MatchService owns the follow/match state machine over ordered pairs of
// profile ids. Chat creation and rating eligibility both gate on it.
type MatchService struct {
	profiles domain.ProfileRepository
	subs     domain.SubscriptionRepository
}

func NewMatchService(profiles domain.ProfileRepository, subs domain.SubscriptionRepository) *MatchService {
	return &MatchService{
		profiles: profiles,
		subs:     subs,
	}
}

// SubscribeResult is the outcome of a follow request. IsMatch is set when
// the request completed a mutual match.
type SubscribeResult struct {
	Subscription *domain.Subscription `json:"subscription"`
	IsMatch      bool                 `json:"is_match"`
}

func (s *MatchService) Subscribe(ctx context.Context, followerProfileID, targetProfileID int64) (*SubscribeResult, error) {
	if followerProfileID == targetProfileID {
		return nil, domain.ErrInvalidTarget
	}

	target, err := s.profiles.GetByID(ctx, targetProfileID)
	if err != nil {
		return nil, fmt.Errorf("get target profile: %w", err)
	}
	if target == nil {
		return nil, domain.ErrNotFound
	}

	sub, matched, err := s.subs.Subscribe(ctx, followerProfileID, targetProfileID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if matched {
		metrics.MatchesTotal.Inc()
	}
	return &SubscribeResult{Subscription: sub, IsMatch: matched}, nil
}

func (s *MatchService) Unsubscribe(ctx context.Context, followerProfileID, targetProfileID int64) error {
	return s.subs.Unsubscribe(ctx, followerProfileID, targetProfileID)
}

func (s *MatchService) Reject(ctx context.Context, profileID, subscriptionID int64) (*domain.Subscription, error) {
	return s.subs.Reject(ctx, profileID, subscriptionID)
}

// HasMatch reports whether a current MATCHED pair exists between the two
// profiles. Chat creation gates on this.
func (s *MatchService) HasMatch(ctx context.Context, profileA, profileB int64) (bool, error) {
	return s.subs.HasMatch(ctx, profileA, profileB)
}

// HasMatchHistory reports whether the two profiles are currently matched or
// have ever followed each other in both directions. Rating and comment
// eligibility use this looser rule so it survives an unmatch.
func (s *MatchService) HasMatchHistory(ctx context.Context, profileA, profileB int64) (bool, error) {
	return s.subs.HasHistory(ctx, profileA, profileB)
}

// SubscriptionView is a subscription row with the counterpart profile
// summary attached.
type SubscriptionView struct {
	*domain.Subscription
	Profile *domain.ProfileSummary `json:"profile"`
}

func (s *MatchService) ListFollowing(ctx context.Context, profileID int64) ([]*SubscriptionView, error) {
	subs, err := s.subs.ListFollowing(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.attachProfiles(ctx, subs, func(sub *domain.Subscription) int64 { return sub.FollowingID })
}

func (s *MatchService) ListFollowers(ctx context.Context, profileID int64) ([]*SubscriptionView, error) {
	subs, err := s.subs.ListFollowers(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.attachProfiles(ctx, subs, func(sub *domain.Subscription) int64 { return sub.FollowerID })
}

func (s *MatchService) ListMatches(ctx context.Context, profileID int64) ([]*SubscriptionView, error) {
	subs, err := s.subs.ListMatches(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.attachProfiles(ctx, subs, func(sub *domain.Subscription) int64 { return sub.FollowingID })
}

func (s *MatchService) Stats(ctx context.Context, profileID int64) (*domain.SubscriptionStats, error) {
	return s.subs.Stats(ctx, profileID)
}

func (s *MatchService) attachProfiles(ctx context.Context, subs []*domain.Subscription, counterpart func(*domain.Subscription) int64) ([]*SubscriptionView, error) {
	res := make([]*SubscriptionView, 0, len(subs))
	for _, sub := range subs {
		view := &SubscriptionView{Subscription: sub}
		if p, err := s.profiles.GetByID(ctx, counterpart(sub)); err == nil && p != nil {
			view.Profile = p.Summary()
		}
		res = append(res, view)
	}
	return res, nil
}
