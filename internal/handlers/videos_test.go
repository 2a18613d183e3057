package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tubeworks/backend/internal/apperr"
	"github.com/tubeworks/backend/internal/models"
	"github.com/tubeworks/backend/internal/repositories"
	"github.com/tubeworks/backend/internal/views"
)

type inMemoryVideoStore struct {
	videos map[string]models.Video
}

func newInMemoryVideoStore() *inMemoryVideoStore {
	return &inMemoryVideoStore{videos: make(map[string]models.Video)}
}

func (s *inMemoryVideoStore) Create(_ context.Context, video models.Video) error {
	s.videos[video.ID] = video
	return nil
}

func (s *inMemoryVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *inMemoryVideoStore) Update(_ context.Context, video models.Video) error {
	if _, ok := s.videos[video.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.videos[video.ID] = video
	return nil
}

func (s *inMemoryVideoStore) SetPublished(_ context.Context, id string, published bool) error {
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.IsPublished = published
	s.videos[id] = video
	return nil
}

// stubComposer satisfies ViewComposer with canned values; only the fields a
// test sets are meaningful.
type stubComposer struct {
	videoView views.VideoView
	feed      views.Page[views.VideoSummary]
	err       error
}

func (s *stubComposer) VideoDetail(context.Context, string, string) (views.VideoView, error) {
	return s.videoView, s.err
}

func (s *stubComposer) RegisterView(context.Context, string, string) error { return s.err }

func (s *stubComposer) CommentPage(context.Context, string, string, int, int) (views.Page[views.CommentView], error) {
	return views.Page[views.CommentView]{}, s.err
}

func (s *stubComposer) PlaylistDetail(context.Context, string, string) (views.PlaylistView, error) {
	return views.PlaylistView{}, s.err
}

func (s *stubComposer) OwnerPlaylists(context.Context, string) ([]views.PlaylistSummary, error) {
	return nil, s.err
}

func (s *stubComposer) ChannelStats(context.Context, string, string) (views.StatsView, error) {
	return views.StatsView{}, s.err
}

func (s *stubComposer) ChannelVideos(context.Context, string, string, int, int, string, string) (views.Page[views.ChannelVideoSummary], error) {
	return views.Page[views.ChannelVideoSummary]{}, s.err
}

func (s *stubComposer) Feed(context.Context, repositories.VideoFilter, int, int) (views.Page[views.VideoSummary], error) {
	return s.feed, s.err
}

func (s *stubComposer) Subscriptions(context.Context, string, int, int) (views.Page[views.FollowedChannel], error) {
	return views.Page[views.FollowedChannel]{}, s.err
}

func (s *stubComposer) Subscribers(context.Context, string, int, int) (views.Page[models.Profile], error) {
	return views.Page[models.Profile]{}, s.err
}

func (s *stubComposer) WatchHistory(context.Context, string, int, int) (views.Page[views.VideoSummary], error) {
	return views.Page[views.VideoSummary]{}, s.err
}

type stubCascades struct {
	deletedVideos   []string
	deletedComments []string
	err             error
}

func (s *stubCascades) DeleteVideo(_ context.Context, videoID, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.deletedVideos = append(s.deletedVideos, videoID)
	return nil
}

func (s *stubCascades) DeleteComment(_ context.Context, commentID, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.deletedComments = append(s.deletedComments, commentID)
	return nil
}

func (s *stubCascades) AddPlaylistVideo(context.Context, string, string, string) error { return s.err }

func (s *stubCascades) RemovePlaylistVideo(context.Context, string, string, string) error {
	return s.err
}

// jsonRequest builds an authenticated request with a JSON body and chi route
// params.
func jsonRequest(t *testing.T, method, path, actorID string, params map[string]string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := requestWithRouteParams(method, path, actorID, params)
	req.Body = io.NopCloser(bytes.NewReader(body))
	return req
}

func TestVideoHandlerCreate(t *testing.T) {
	store := newInMemoryVideoStore()
	handler := VideoHandler{Videos: store}

	req := jsonRequest(t, http.MethodPost, "/api/v1/videos", "user-1", nil,
		createVideoRequest{Title: "My Video", VideoURL: "videos/raw.mp4", Duration: 90})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if len(store.videos) != 1 {
		t.Fatalf("expected one stored video, got %d", len(store.videos))
	}
	for _, video := range store.videos {
		if video.IsPublished {
			t.Fatal("new videos must start unpublished")
		}
		if video.OwnerID != "user-1" {
			t.Fatalf("owner = %q, want user-1", video.OwnerID)
		}
	}
}

func TestVideoHandlerCreateValidation(t *testing.T) {
	handler := VideoHandler{Videos: newInMemoryVideoStore()}

	req := jsonRequest(t, http.MethodPost, "/api/v1/videos", "user-1", nil,
		createVideoRequest{Title: "   ", VideoURL: "videos/raw.mp4"})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank title, got %d", rec.Code)
	}
}

func TestVideoHandlerTogglePublish(t *testing.T) {
	store := newInMemoryVideoStore()
	store.videos["vid-1"] = models.Video{ID: "vid-1", OwnerID: "user-1", IsPublished: false}
	handler := VideoHandler{Videos: store}

	req := requestWithRouteParams(http.MethodPatch, "/api/v1/videos/vid-1/publish", "user-1", map[string]string{"videoID": "vid-1"})
	rec := httptest.NewRecorder()

	handler.TogglePublish(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !store.videos["vid-1"].IsPublished {
		t.Fatal("video should now be published")
	}

	// Toggling again reverts to unpublished.
	rec = httptest.NewRecorder()
	handler.TogglePublish(rec, requestWithRouteParams(http.MethodPatch, "/api/v1/videos/vid-1/publish", "user-1", map[string]string{"videoID": "vid-1"}))
	if store.videos["vid-1"].IsPublished {
		t.Fatal("second toggle should unpublish")
	}
}

func TestVideoHandlerTogglePublishNonOwner(t *testing.T) {
	store := newInMemoryVideoStore()
	store.videos["vid-1"] = models.Video{ID: "vid-1", OwnerID: "user-1"}
	handler := VideoHandler{Videos: store}

	req := requestWithRouteParams(http.MethodPatch, "/api/v1/videos/vid-1/publish", "intruder", map[string]string{"videoID": "vid-1"})
	rec := httptest.NewRecorder()

	handler.TogglePublish(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestVideoHandlerDetailNotFound(t *testing.T) {
	handler := VideoHandler{Views: &stubComposer{err: apperr.NotFound("video not found")}}

	req := requestWithRouteParams(http.MethodGet, "/api/v1/videos/ghost", "", map[string]string{"videoID": "ghost"})
	rec := httptest.NewRecorder()

	handler.Detail(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestVideoHandlerDelete(t *testing.T) {
	cascades := &stubCascades{}
	handler := VideoHandler{Cascades: cascades}

	req := requestWithRouteParams(http.MethodDelete, "/api/v1/videos/vid-1", "user-1", map[string]string{"videoID": "vid-1"})
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(cascades.deletedVideos) != 1 || cascades.deletedVideos[0] != "vid-1" {
		t.Fatalf("cascade not invoked: %+v", cascades.deletedVideos)
	}
}

func TestVideoHandlerFeedParams(t *testing.T) {
	composer := &stubComposer{feed: views.NewPage([]views.VideoSummary{}, 0, 1, 10)}
	handler := VideoHandler{Views: composer}

	req := requestWithRouteParams(http.MethodGet, "/api/v1/videos?page=2&limit=5&userId=owner-1", "", nil)
	rec := httptest.NewRecorder()

	handler.Feed(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
