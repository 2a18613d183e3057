package handlers

import (
	"context"
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

// PlaylistHandler exposes playlist CRUD and membership endpoints.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Views     ViewComposer
	Cascades  CascadeManager
	NowFunc   func() time.Time
}

type createPlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    *bool  `json:"isPublic"`
}

type updatePlaylistRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"isPublic"`
}

// Detail handles GET /api/v1/playlists/{playlistID}.
func (h PlaylistHandler) Detail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := middleware.ActorFromContext(ctx)

	view, err := h.Views.PlaylistDetail(ctx, chi.URLParam(r, "playlistID"), viewerID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, view, "")
}

// ListByOwner handles GET /api/v1/users/{userID}/playlists. Private playlists
// are included only when the owner asks for their own list.
func (h PlaylistHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := middleware.ActorFromContext(ctx)
	ownerID := chi.URLParam(r, "userID")

	summaries, err := h.Views.OwnerPlaylists(ctx, ownerID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if viewerID != ownerID {
		visible := summaries[:0]
		for _, s := range summaries {
			if s.IsPublic {
				visible = append(visible, s)
			}
		}
		summaries = visible
	}

	respondData(ctx, w, http.StatusOK, summaries, "")
}

// Create handles POST /api/v1/playlists. Playlists default to public.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)

	var req createPlaylistRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	name := strings.TrimSpace(req.Name)
	if err := validatePlaylistFields(name, req.Description); err != nil {
		respondError(ctx, w, err)
		return
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     actorID,
		Name:        name,
		Description: req.Description,
		IsPublic:    isPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		respondError(ctx, w, apperr.Internal("failed to create playlist", err))
		return
	}

	respondData(ctx, w, http.StatusCreated, map[string]string{"id": playlist.ID}, "playlist created")
}

// Update handles PATCH /api/v1/playlists/{playlistID}. Owner-only.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)

	playlist, err := h.loadOwnedPlaylist(ctx, chi.URLParam(r, "playlistID"), actorID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req updatePlaylistRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	if req.Name != nil {
		playlist.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		playlist.Description = *req.Description
	}
	if req.IsPublic != nil {
		playlist.IsPublic = *req.IsPublic
	}

	if err := validatePlaylistFields(playlist.Name, playlist.Description); err != nil {
		respondError(ctx, w, err)
		return
	}
	playlist.UpdatedAt = h.now()

	if err := h.Playlists.Update(ctx, playlist); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.NotFound("playlist not found"))
			return
		}
		respondError(ctx, w, apperr.Internal("failed to update playlist", err))
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "playlist updated")
}

// Delete handles DELETE /api/v1/playlists/{playlistID}. Removes memberships
// with the playlist; the referenced videos are untouched.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)

	playlist, err := h.loadOwnedPlaylist(ctx, chi.URLParam(r, "playlistID"), actorID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Playlists.Delete(ctx, playlist.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperr.NotFound("playlist not found"))
			return
		}
		respondError(ctx, w, apperr.Internal("failed to delete playlist", err))
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "playlist deleted")
}

// AddVideo handles POST /api/v1/playlists/{playlistID}/videos/{videoID}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)

	err := h.Cascades.AddPlaylistVideo(ctx, chi.URLParam(r, "playlistID"), chi.URLParam(r, "videoID"), actorID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "video added to playlist")
}

// RemoveVideo handles DELETE /api/v1/playlists/{playlistID}/videos/{videoID}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.ActorFromContext(ctx)

	err := h.Cascades.RemovePlaylistVideo(ctx, chi.URLParam(r, "playlistID"), chi.URLParam(r, "videoID"), actorID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "video removed from playlist")
}

func (h PlaylistHandler) loadOwnedPlaylist(ctx context.Context, playlistID, actorID string) (models.Playlist, error) {
	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Playlist{}, apperr.NotFound("playlist not found")
		}
		return models.Playlist{}, apperr.Internal("failed to load playlist", err)
	}

	if !policy.CanMutatePlaylist(playlist, actorID) {
		return models.Playlist{}, apperr.Forbidden("only the owner may modify this playlist")
	}

	return playlist, nil
}

func validatePlaylistFields(name, description string) error {
	if name == "" {
		return apperr.Invalid("playlist name must not be empty")
	}
	// Limits count characters, matching the char_length schema checks.
	if utf8.RuneCountInString(name) > models.MaxPlaylistNameLength {
		return apperr.Invalid("playlist name is too long")
	}
	if utf8.RuneCountInString(description) > models.MaxPlaylistDescriptionLength {
		return apperr.Invalid("playlist description is too long")
	}
	return nil
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
