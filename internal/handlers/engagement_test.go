package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/tubeworks/backend/internal/apperr"
	"github.com/tubeworks/backend/internal/engagement"
	"github.com/tubeworks/backend/internal/middleware"
	"github.com/tubeworks/backend/internal/models"
)

type stubToggleService struct {
	likeState  engagement.LikeState
	subState   engagement.SubscriptionState
	err        error
	gotActor   string
	gotTarget  models.LikeTarget
	gotChannel string
}

func (s *stubToggleService) ToggleLike(_ context.Context, actorID string, target models.LikeTarget) (engagement.LikeState, error) {
	s.gotActor = actorID
	s.gotTarget = target
	return s.likeState, s.err
}

func (s *stubToggleService) ToggleSubscribe(_ context.Context, actorID, channelID string) (engagement.SubscriptionState, error) {
	s.gotActor = actorID
	s.gotChannel = channelID
	return s.subState, s.err
}

// requestWithRouteParams builds a request carrying a chi route context and an
// authenticated actor.
func requestWithRouteParams(method, path, actorID string, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, path, nil)

	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}

	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if actorID != "" {
		ctx = middleware.WithActor(ctx, actorID)
	}
	return req.WithContext(ctx)
}

func TestToggleVideoLike(t *testing.T) {
	svc := &stubToggleService{likeState: engagement.LikeState{Liked: true, LikeCount: 4}}
	handler := EngagementHandler{Toggles: svc}

	req := requestWithRouteParams(http.MethodPost, "/api/v1/likes/videos/vid-1", "user-1", map[string]string{"videoID": "vid-1"})
	rec := httptest.NewRecorder()

	handler.ToggleVideoLike(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotActor != "user-1" {
		t.Fatalf("actor = %q, want user-1", svc.gotActor)
	}
	if svc.gotTarget.Kind() != models.LikeTargetVideo || svc.gotTarget.ID() != "vid-1" {
		t.Fatalf("unexpected target: %+v", svc.gotTarget)
	}

	env := decodeEnvelope(t, rec)
	var state engagement.LikeState
	if err := json.Unmarshal(env.Data, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if !state.Liked || state.LikeCount != 4 {
		t.Fatalf("unexpected state: %+v", state)
	}
}

func TestToggleCommentLike(t *testing.T) {
	svc := &stubToggleService{likeState: engagement.LikeState{Liked: false, LikeCount: 0}}
	handler := EngagementHandler{Toggles: svc}

	req := requestWithRouteParams(http.MethodPost, "/api/v1/likes/comments/com-1", "user-1", map[string]string{"commentID": "com-1"})
	rec := httptest.NewRecorder()

	handler.ToggleCommentLike(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.gotTarget.Kind() != models.LikeTargetComment || svc.gotTarget.ID() != "com-1" {
		t.Fatalf("unexpected target: %+v", svc.gotTarget)
	}
}

func TestToggleLikeMissingTargetStatus(t *testing.T) {
	svc := &stubToggleService{err: apperr.NotFound("video not found")}
	handler := EngagementHandler{Toggles: svc}

	req := requestWithRouteParams(http.MethodPost, "/api/v1/likes/videos/ghost", "user-1", map[string]string{"videoID": "ghost"})
	rec := httptest.NewRecorder()

	handler.ToggleVideoLike(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success {
		t.Fatal("error envelope must not report success")
	}
}

func TestToggleSubscribe(t *testing.T) {
	svc := &stubToggleService{subState: engagement.SubscriptionState{Subscribed: true, SubscriberCount: 9}}
	handler := EngagementHandler{Toggles: svc}

	req := requestWithRouteParams(http.MethodPost, "/api/v1/subscriptions/channel-1", "user-1", map[string]string{"channelID": "channel-1"})
	rec := httptest.NewRecorder()

	handler.ToggleSubscribe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.gotChannel != "channel-1" {
		t.Fatalf("channel = %q, want channel-1", svc.gotChannel)
	}
}

func TestToggleSubscribeSelfStatus(t *testing.T) {
	svc := &stubToggleService{err: apperr.Invalid("cannot subscribe to your own channel")}
	handler := EngagementHandler{Toggles: svc}

	req := requestWithRouteParams(http.MethodPost, "/api/v1/subscriptions/user-1", "user-1", map[string]string{"channelID": "user-1"})
	rec := httptest.NewRecorder()

	handler.ToggleSubscribe(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
