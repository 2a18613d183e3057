package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tubeworks/backend/internal/apperr"
	"github.com/tubeworks/backend/internal/middleware"
	"github.com/tubeworks/backend/internal/models"
	"github.com/tubeworks/backend/internal/policy"
	"github.com/tubeworks/backend/internal/repositories"
)

// CommentHandler exposes the comment thread under a video.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
	Views    ViewComposer
	Cascades CascadeManager
	NowFunc  func() time.Time
}

type commentRequest struct {
	Content string `json:"content"`
}

// Page handles GET /api/v1/videos/{videoID}/comments, newest first.
func (h CommentHandler) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := middleware.ActorFromContext(ctx)
	page, limit := pageParams(r)

	result, err := h.Views.CommentPage(ctx, chi.URLParam(r, "videoID"), viewerID, page, limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, result, "")
}

// Create handles POST /api/v1/videos/{videoID}/comments. Comments are only
// accepted on videos the author can see.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)

	content, err := h.readContent(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	video, err := h.Videos.FindByID(ctx, chi.URLParam(r, "videoID"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.NotFound("video not found"))
			return
		}
		respondError(ctx, w, apperr.Internal("failed to load video", err))
		return
	}

	if !policy.CanCommentOnVideo(video, actorID) {
		respondError(ctx, w, apperr.Forbidden("video is not published"))
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   video.ID,
		OwnerID:   actorID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		respondError(ctx, w, apperr.Internal("failed to create comment", err))
		return
	}

	respondData(ctx, w, http.StatusCreated, map[string]string{"id": comment.ID}, "comment added")
}

// Update handles PATCH /api/v1/comments/{commentID}. Author-only; the video
// owner may delete comments but never edit them.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)

	content, err := h.readContent(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	comment, err := h.Comments.FindByID(ctx, chi.URLParam(r, "commentID"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.NotFound("comment not found"))
			return
		}
		respondError(ctx, w, apperr.Internal("failed to load comment", err))
		return
	}

	if !policy.CanEditComment(comment, actorID) {
		respondError(ctx, w, apperr.Forbidden("only the author may edit this comment"))
		return
	}

	comment.Content = content
	comment.UpdatedAt = h.now()

	if err := h.Comments.Update(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.NotFound("comment not found"))
			return
		}
		respondError(ctx, w, apperr.Internal("failed to update comment", err))
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "comment updated")
}

// Delete handles DELETE /api/v1/comments/{commentID}. Authorization and like
// cleanup live in the cascade manager.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)

	if err := h.Cascades.DeleteComment(ctx, chi.URLParam(r, "commentID"), actorID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "comment deleted")
}

func (h CommentHandler) readContent(r *http.Request) (string, error) {
	var req commentRequest
	if err := decodeBody(r, &req); err != nil {
		return "", err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return "", apperr.Invalid("comment content must not be empty")
	}
	// Limits count characters, matching the char_length schema checks.
	if utf8.RuneCountInString(content) > models.MaxCommentLength {
		return "", apperr.Invalid("comment content is too long")
	}

	return content, nil
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
