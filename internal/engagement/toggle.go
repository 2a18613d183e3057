// Package engagement implements the relationship toggle service: idempotent
// create/remove of like and subscription edges with derived counters.
package engagement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tubeworks/backend/internal/apperr"
	"github.com/tubeworks/backend/internal/models"
	"github.com/tubeworks/backend/internal/repositories"
)

// LikeStore captures the like-edge operations the toggle service needs.
type LikeStore interface {
	Insert(ctx context.Context, like models.Like) error
	Remove(ctx context.Context, actorID string, target models.LikeTarget) (bool, error)
	CountForTarget(ctx context.Context, target models.LikeTarget) (int64, error)
}

// SubscriptionStore captures the subscription-edge operations the toggle
// service needs.
type SubscriptionStore interface {
	Insert(ctx context.Context, sub models.Subscription) error
	Remove(ctx context.Context, subscriberID, channelID string) (bool, error)
	CountForChannel(ctx context.Context, channelID string) (int64, error)
}

// TargetChecker verifies that a like target currently exists.
type TargetChecker interface {
	VideoExists(ctx context.Context, id string) error
	CommentExists(ctx context.Context, id string) error
	UserExists(ctx context.Context, id string) error
}

// LikeState is the result of a like toggle.
type LikeState struct {
	Liked     bool  `json:"isLiked"`
	LikeCount int64 `json:"likeCount"`
}

// SubscriptionState is the result of a subscribe toggle. SubscriberCount is
// computed fresh from the edge table, never cached.
type SubscriptionState struct {
	Subscribed      bool  `json:"isSubscribed"`
	SubscriberCount int64 `json:"subscriberCount"`
}

// Service toggles social-graph edges.
type Service struct {
	likes    LikeStore
	subs     SubscriptionStore
	entities TargetChecker
	now      func() time.Time
}

// NewService constructs the toggle service.
func NewService(likes LikeStore, subs SubscriptionStore, entities TargetChecker) *Service {
	return &Service{likes: likes, subs: subs, entities: entities, now: func() time.Time { return time.Now().UTC() }}
}

// WithNowFunc overrides the clock, for tests.
func (s *Service) WithNowFunc(now func() time.Time) *Service {
	s.now = now
	return s
}

// ToggleLike flips the like edge for (actor, target). The removal runs
// first: if an edge was deleted the toggle is done. Otherwise an insert is
// attempted; a uniqueness conflict means a concurrent call created the edge,
// which is reported as liked rather than an error.
func (s *Service) ToggleLike(ctx context.Context, actorID string, target models.LikeTarget) (LikeState, error) {
	if actorID == "" {
		return LikeState{}, apperr.Invalid("actor is required")
	}
	if target.IsZero() {
		return LikeState{}, apperr.Invalid("like target is required")
	}

	if err := s.checkTarget(ctx, target); err != nil {
		return LikeState{}, err
	}

	removed, err := s.likes.Remove(ctx, actorID, target)
	if err != nil {
		return LikeState{}, apperr.Internal("failed to toggle like", err)
	}

	liked := false
	if !removed {
		like := models.Like{
			ID:        uuid.NewString(),
			LikedBy:   actorID,
			Target:    target,
			CreatedAt: s.now(),
		}
		switch err := s.likes.Insert(ctx, like); {
		case err == nil, errors.Is(err, repositories.ErrConflict):
			// A conflict means a concurrent toggle won the insert; either
			// way the edge exists now.
			liked = true
		case errors.Is(err, repositories.ErrNotFound):
			return LikeState{}, apperr.NotFound("%s not found", target.Kind())
		default:
			return LikeState{}, apperr.Internal("failed to toggle like", err)
		}
	}

	count, err := s.likes.CountForTarget(ctx, target)
	if err != nil {
		return LikeState{}, apperr.Internal("failed to count likes", err)
	}

	return LikeState{Liked: liked, LikeCount: count}, nil
}

// ToggleSubscribe flips the subscription edge from actor to channel.
// Subscribing to yourself is rejected before any write.
func (s *Service) ToggleSubscribe(ctx context.Context, actorID, channelID string) (SubscriptionState, error) {
	if actorID == "" || channelID == "" {
		return SubscriptionState{}, apperr.Invalid("subscriber and channel are required")
	}
	if actorID == channelID {
		return SubscriptionState{}, apperr.Invalid("cannot subscribe to your own channel")
	}

	if err := s.entities.UserExists(ctx, channelID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return SubscriptionState{}, apperr.NotFound("channel not found")
		}
		return SubscriptionState{}, apperr.Internal("failed to resolve channel", err)
	}

	removed, err := s.subs.Remove(ctx, actorID, channelID)
	if err != nil {
		return SubscriptionState{}, apperr.Internal("failed to toggle subscription", err)
	}

	subscribed := false
	if !removed {
		sub := models.Subscription{
			ID:           uuid.NewString(),
			SubscriberID: actorID,
			ChannelID:    channelID,
			CreatedAt:    s.now(),
		}
		switch err := s.subs.Insert(ctx, sub); {
		case err == nil, errors.Is(err, repositories.ErrConflict):
			subscribed = true
		case errors.Is(err, repositories.ErrNotFound):
			return SubscriptionState{}, apperr.NotFound("channel not found")
		default:
			return SubscriptionState{}, apperr.Internal("failed to toggle subscription", err)
		}
	}

	count, err := s.subs.CountForChannel(ctx, channelID)
	if err != nil {
		return SubscriptionState{}, apperr.Internal("failed to count subscribers", err)
	}

	return SubscriptionState{Subscribed: subscribed, SubscriberCount: count}, nil
}

func (s *Service) checkTarget(ctx context.Context, target models.LikeTarget) error {
	var err error
	switch target.Kind() {
	case models.LikeTargetVideo:
		err = s.entities.VideoExists(ctx, target.ID())
	case models.LikeTargetComment:
		err = s.entities.CommentExists(ctx, target.ID())
	default:
		return apperr.Invalid("unknown like target kind")
	}

	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.NotFound("%s not found", target.Kind())
		}
		return apperr.Internal("failed to resolve like target", err)
	}

	return nil
}
