package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tubeworks/backend/internal/apperr"
	"github.com/tubeworks/backend/internal/middleware"
	"github.com/tubeworks/backend/internal/repositories"
)

// UserHandler serves the authenticated user's own profile and history.
type UserHandler struct {
	Users   UserStore
	Views   ViewComposer
	NowFunc func() time.Time
}

type updateProfileRequest struct {
	FullName  *string `json:"fullName"`
	AvatarURL *string `json:"avatarUrl"`
	CoverURL  *string `json:"coverUrl"`
}

// Profile handles GET /api/v1/users/me.
func (h UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)

	user, err := h.Users.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.NotFound("user not found"))
			return
		}
		respondError(ctx, w, apperr.Internal("failed to load profile", err))
		return
	}

	respondData(ctx, w, http.StatusOK, user.PublicProfile(), "")
}

// UpdateProfile handles PATCH /api/v1/users/me.
func (h UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)

	var req updateProfileRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	user, err := h.Users.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.NotFound("user not found"))
			return
		}
		respondError(ctx, w, apperr.Internal("failed to load profile", err))
		return
	}

	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}
	if req.CoverURL != nil {
		user.CoverURL = *req.CoverURL
	}
	user.UpdatedAt = h.now()

	if err := h.Users.Update(ctx, user); err != nil {
		respondError(ctx, w, apperr.Internal("failed to update profile", err))
		return
	}

	respondData(ctx, w, http.StatusOK, user.PublicProfile(), "profile updated")
}

// WatchHistory handles GET /api/v1/users/me/history, most recent first.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)
	page, limit := pageParams(r)

	result, err := h.Views.WatchHistory(ctx, actorID, page, limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, result, "")
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
