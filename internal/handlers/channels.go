package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tubeworks/backend/internal/middleware"
)

// ChannelHandler serves the channel-facing read views.
type ChannelHandler struct {
	Views ViewComposer
}

// Stats handles GET /api/v1/channels/{channelID}/stats. Owner-only.
func (h ChannelHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)

	stats, err := h.Views.ChannelStats(ctx, chi.URLParam(r, "channelID"), actorID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, stats, "")
}

// Videos handles GET /api/v1/channels/{channelID}/videos. Owner-only because
// the listing includes unpublished drafts.
func (h ChannelHandler) Videos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)
	page, limit := pageParams(r)

	q := r.URL.Query()
	result, err := h.Views.ChannelVideos(ctx, chi.URLParam(r, "channelID"), actorID, page, limit, q.Get("sortBy"), q.Get("sortDir"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, result, "")
}

// Subscriptions handles GET /api/v1/users/me/subscriptions.
func (h ChannelHandler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)
	page, limit := pageParams(r)

	result, err := h.Views.Subscriptions(ctx, actorID, page, limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, result, "")
}

// Subscribers handles GET /api/v1/channels/{channelID}/subscribers.
func (h ChannelHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, limit := pageParams(r)

	result, err := h.Views.Subscribers(ctx, chi.URLParam(r, "channelID"), page, limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, result, "")
}
