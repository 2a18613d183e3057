package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tubeworks/backend/internal/middleware"
	"github.com/tubeworks/backend/internal/models"
)

// EngagementHandler exposes the like and subscription toggles.
type EngagementHandler struct {
	Toggles ToggleService
}

// ToggleVideoLike handles POST /api/v1/likes/videos/{videoID}.
func (h EngagementHandler) ToggleVideoLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)
	target := models.VideoTarget(chi.URLParam(r, "videoID"))

	state, err := h.Toggles.ToggleLike(ctx, actorID, target)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, state, "")
}

// ToggleCommentLike handles POST /api/v1/likes/comments/{commentID}.
func (h EngagementHandler) ToggleCommentLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)
	target := models.CommentTarget(chi.URLParam(r, "commentID"))

	state, err := h.Toggles.ToggleLike(ctx, actorID, target)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, state, "")
}

// ToggleSubscribe handles POST /api/v1/subscriptions/{channelID}.
func (h EngagementHandler) ToggleSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)
	channelID := chi.URLParam(r, "channelID")

	state, err := h.Toggles.ToggleSubscribe(ctx, actorID, channelID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, state, "")
}
