package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tubeworks/backend/internal/apperr"
	"github.com/tubeworks/backend/internal/middleware"
	"github.com/tubeworks/backend/internal/models"
	"github.com/tubeworks/backend/internal/policy"
	"github.com/tubeworks/backend/internal/repositories"
)

// VideoHandler exposes video CRUD, the public feed, and the play signal.
type VideoHandler struct {
	Videos   VideoStore
	Views    ViewComposer
	Cascades CascadeManager
	NowFunc  func() time.Time
}

type createVideoRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	VideoURL     string `json:"videoUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Duration     int64  `json:"duration"`
}

type updateVideoRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	ThumbnailURL *string `json:"thumbnailUrl"`
}

// pageParams extracts page/limit query values; bounds are enforced by the
// view composer.
func pageParams(r *http.Request) (page, limit int) {
	page = 1
	if v := r.URL.Query().Get("page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			page = parsed
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	return page, limit
}

// Feed handles GET /api/v1/videos. The owner filter applies only when the
// userId query parameter is present.
func (h VideoHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, limit := pageParams(r)

	filter := repositories.VideoFilter{
		OwnerID: r.URL.Query().Get("userId"),
		Query:   strings.TrimSpace(r.URL.Query().Get("query")),
	}

	result, err := h.Views.Feed(ctx, filter, page, limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, result, "")
}

// Detail handles GET /api/v1/videos/{videoID}. Fetching metadata does not
// register a play.
func (h VideoHandler) Detail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := middleware.ActorFromContext(ctx)

	view, err := h.Views.VideoDetail(ctx, chi.URLParam(r, "videoID"), viewerID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, view, "")
}

// RegisterView handles POST /api/v1/videos/{videoID}/views, the
// caller-provided play signal.
func (h VideoHandler) RegisterView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := middleware.ActorFromContext(ctx)

	if err := h.Views.RegisterView(ctx, chi.URLParam(r, "videoID"), viewerID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "view registered")
}

// Create handles POST /api/v1/videos. Asset upload and transcoding happen
// upstream; this records the resulting metadata. Videos start unpublished.
func (h VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)

	var req createVideoRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.VideoURL == "" {
		respondError(ctx, w, apperr.Invalid("title and videoUrl are required"))
		return
	}
	if req.Duration < 0 {
		respondError(ctx, w, apperr.Invalid("duration must not be negative"))
		return
	}

	now := h.now()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      actorID,
		VideoURL:     req.VideoURL,
		ThumbnailURL: req.ThumbnailURL,
		Title:        req.Title,
		Description:  req.Description,
		Duration:     req.Duration,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		respondError(ctx, w, apperr.Internal("failed to create video", err))
		return
	}

	respondData(ctx, w, http.StatusCreated, map[string]string{"id": video.ID}, "video created")
}

// Update handles PATCH /api/v1/videos/{videoID}. Owner-only content edits.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)

	video, err := h.loadOwnedVideo(ctx, chi.URLParam(r, "videoID"), actorID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req updateVideoRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			respondError(ctx, w, apperr.Invalid("title must not be empty"))
			return
		}
		video.Title = title
	}
	if req.Description != nil {
		video.Description = *req.Description
	}
	if req.ThumbnailURL != nil {
		video.ThumbnailURL = *req.ThumbnailURL
	}
	video.UpdatedAt = h.now()

	if err := h.Videos.Update(ctx, video); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.NotFound("video not found"))
			return
		}
		respondError(ctx, w, apperr.Internal("failed to update video", err))
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "video updated")
}

// TogglePublish handles PATCH /api/v1/videos/{videoID}/publish, flipping the
// two-state publish flag. Owner-only, fully reversible.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)

	video, err := h.loadOwnedVideo(ctx, chi.URLParam(r, "videoID"), actorID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	next := !video.IsPublished
	if err := h.Videos.SetPublished(ctx, video.ID, next); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.NotFound("video not found"))
			return
		}
		respondError(ctx, w, apperr.Internal("failed to toggle publish state", err))
		return
	}

	respondData(ctx, w, http.StatusOK, map[string]bool{"isPublished": next}, "")
}

// Delete handles DELETE /api/v1/videos/{videoID}. Delegates to the cascade
// manager, which owns authorization and dependent cleanup.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)

	if err := h.Cascades.DeleteVideo(ctx, chi.URLParam(r, "videoID"), actorID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "video deleted")
}

func (h VideoHandler) loadOwnedVideo(ctx context.Context, videoID, actorID string) (models.Video, error) {
	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, apperr.NotFound("video not found")
		}
		return models.Video{}, apperr.Internal("failed to load video", err)
	}

	if !policy.CanMutateVideo(video, actorID) {
		return models.Video{}, apperr.Forbidden("only the owner may modify this video")
	}

	return video, nil
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
