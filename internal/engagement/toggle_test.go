package engagement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubeworks/backend/internal/apperr"
	"github.com/tubeworks/backend/internal/models"
	"github.com/tubeworks/backend/internal/repositories"
)

type fakeLikeStore struct {
	edges       map[string]models.Like
	insertErr   error
	removeCalls int
	insertCalls int
}

func newFakeLikeStore() *fakeLikeStore {
	return &fakeLikeStore{edges: make(map[string]models.Like)}
}

func likeKey(actorID string, target models.LikeTarget) string {
	return actorID + "|" + string(target.Kind()) + "|" + target.ID()
}

func (s *fakeLikeStore) Insert(_ context.Context, like models.Like) error {
	s.insertCalls++
	if s.insertErr != nil {
		return s.insertErr
	}
	key := likeKey(like.LikedBy, like.Target)
	if _, exists := s.edges[key]; exists {
		return repositories.ErrConflict
	}
	s.edges[key] = like
	return nil
}

func (s *fakeLikeStore) Remove(_ context.Context, actorID string, target models.LikeTarget) (bool, error) {
	s.removeCalls++
	key := likeKey(actorID, target)
	if _, exists := s.edges[key]; !exists {
		return false, nil
	}
	delete(s.edges, key)
	return true, nil
}

func (s *fakeLikeStore) CountForTarget(_ context.Context, target models.LikeTarget) (int64, error) {
	var count int64
	for _, like := range s.edges {
		if like.Target == target {
			count++
		}
	}
	return count, nil
}

type fakeSubStore struct {
	edges map[string]models.Subscription
}

func newFakeSubStore() *fakeSubStore {
	return &fakeSubStore{edges: make(map[string]models.Subscription)}
}

func (s *fakeSubStore) Insert(_ context.Context, sub models.Subscription) error {
	key := sub.SubscriberID + "|" + sub.ChannelID
	if _, exists := s.edges[key]; exists {
		return repositories.ErrConflict
	}
	s.edges[key] = sub
	return nil
}

func (s *fakeSubStore) Remove(_ context.Context, subscriberID, channelID string) (bool, error) {
	key := subscriberID + "|" + channelID
	if _, exists := s.edges[key]; !exists {
		return false, nil
	}
	delete(s.edges, key)
	return true, nil
}

func (s *fakeSubStore) CountForChannel(_ context.Context, channelID string) (int64, error) {
	var count int64
	for _, sub := range s.edges {
		if sub.ChannelID == channelID {
			count++
		}
	}
	return count, nil
}

type fakeChecker struct {
	videos   map[string]bool
	comments map[string]bool
	users    map[string]bool
}

func (c fakeChecker) VideoExists(_ context.Context, id string) error {
	if !c.videos[id] {
		return repositories.ErrNotFound
	}
	return nil
}

func (c fakeChecker) CommentExists(_ context.Context, id string) error {
	if !c.comments[id] {
		return repositories.ErrNotFound
	}
	return nil
}

func (c fakeChecker) UserExists(_ context.Context, id string) error {
	if !c.users[id] {
		return repositories.ErrNotFound
	}
	return nil
}

func newService(likes *fakeLikeStore, subs *fakeSubStore, checker fakeChecker) *Service {
	svc := NewService(likes, subs, checker)
	return svc.WithNowFunc(func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) })
}

func TestToggleLikePairRestoresOriginalState(t *testing.T) {
	ctx := context.Background()
	likes := newFakeLikeStore()
	checker := fakeChecker{videos: map[string]bool{"vid-1": true}}
	svc := newService(likes, newFakeSubStore(), checker)

	target := models.VideoTarget("vid-1")

	first, err := svc.ToggleLike(ctx, "user-1", target)
	require.NoError(t, err)
	assert.True(t, first.Liked)
	assert.Equal(t, int64(1), first.LikeCount)

	second, err := svc.ToggleLike(ctx, "user-1", target)
	require.NoError(t, err)
	assert.False(t, second.Liked)
	assert.Equal(t, int64(0), second.LikeCount)
	assert.Empty(t, likes.edges)
}

func TestToggleLikeCommentTarget(t *testing.T) {
	ctx := context.Background()
	likes := newFakeLikeStore()
	checker := fakeChecker{comments: map[string]bool{"com-1": true}}
	svc := newService(likes, newFakeSubStore(), checker)

	state, err := svc.ToggleLike(ctx, "user-1", models.CommentTarget("com-1"))
	require.NoError(t, err)
	assert.True(t, state.Liked)
	assert.Equal(t, int64(1), state.LikeCount)
}

func TestToggleLikeInsertConflictReportsLiked(t *testing.T) {
	// A concurrent toggle can insert the edge between this call's remove and
	// insert. The uniqueness violation is absorbed: the edge exists, so the
	// caller is told they like the target.
	ctx := context.Background()
	likes := newFakeLikeStore()
	likes.insertErr = repositories.ErrConflict
	checker := fakeChecker{videos: map[string]bool{"vid-1": true}}
	svc := newService(likes, newFakeSubStore(), checker)

	state, err := svc.ToggleLike(ctx, "user-1", models.VideoTarget("vid-1"))
	require.NoError(t, err)
	assert.True(t, state.Liked)
}

func TestToggleLikeMissingTarget(t *testing.T) {
	ctx := context.Background()
	likes := newFakeLikeStore()
	svc := newService(likes, newFakeSubStore(), fakeChecker{})

	_, err := svc.ToggleLike(ctx, "user-1", models.VideoTarget("missing"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Zero(t, likes.removeCalls, "no writes expected for a missing target")
}

func TestToggleLikeZeroTarget(t *testing.T) {
	svc := newService(newFakeLikeStore(), newFakeSubStore(), fakeChecker{})

	_, err := svc.ToggleLike(context.Background(), "user-1", models.LikeTarget{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestToggleSubscribePair(t *testing.T) {
	ctx := context.Background()
	subs := newFakeSubStore()
	checker := fakeChecker{users: map[string]bool{"channel-1": true}}
	svc := newService(newFakeLikeStore(), subs, checker)

	first, err := svc.ToggleSubscribe(ctx, "user-1", "channel-1")
	require.NoError(t, err)
	assert.True(t, first.Subscribed)
	assert.Equal(t, int64(1), first.SubscriberCount)

	second, err := svc.ToggleSubscribe(ctx, "user-1", "channel-1")
	require.NoError(t, err)
	assert.False(t, second.Subscribed)
	assert.Equal(t, int64(0), second.SubscriberCount)
}

func TestToggleSubscribeSelfRejected(t *testing.T) {
	subs := newFakeSubStore()
	checker := fakeChecker{users: map[string]bool{"user-1": true}}
	svc := newService(newFakeLikeStore(), subs, checker)

	_, err := svc.ToggleSubscribe(context.Background(), "user-1", "user-1")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
	assert.Empty(t, subs.edges)
}

func TestToggleSubscribeMissingChannel(t *testing.T) {
	svc := newService(newFakeLikeStore(), newFakeSubStore(), fakeChecker{})

	_, err := svc.ToggleSubscribe(context.Background(), "user-1", "ghost")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
