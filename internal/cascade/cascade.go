// Package cascade keeps referential state consistent when root entities are
// deleted. The store offers no multi-document transactions, so every step is
// an independent, idempotent delete: an interrupted cascade can be re-run
// safely against the partially cleaned state.
package cascade

import (
	"context"
	"errors"

	"github.com/tubeworks/backend/internal/apperr"
	"github.com/tubeworks/backend/internal/logging"
	"github.com/tubeworks/backend/internal/models"
	"github.com/tubeworks/backend/internal/policy"
	"github.com/tubeworks/backend/internal/repositories"
)

// VideoStore captures the video operations the cascade needs.
type VideoStore interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
	Delete(ctx context.Context, id string) error
}

// CommentStore captures the comment operations the cascade needs.
type CommentStore interface {
	FindByID(ctx context.Context, id string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
	DeleteByVideo(ctx context.Context, videoID string) error
}

// LikeStore captures the bulk like deletions the cascade needs.
type LikeStore interface {
	DeleteForVideo(ctx context.Context, videoID string) error
	DeleteForVideoComments(ctx context.Context, videoID string) error
	DeleteForComment(ctx context.Context, commentID string) error
}

// PlaylistStore captures playlist membership operations.
type PlaylistStore interface {
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideoEverywhere(ctx context.Context, videoID string) error
}

// HistoryStore prunes watch-history references.
type HistoryStore interface {
	DeleteForVideo(ctx context.Context, videoID string) error
}

// AssetDeleter removes external media objects. Failures are logged and
// never block the database cascade; orphaned assets are an accepted
// trade-off.
type AssetDeleter interface {
	Delete(ctx context.Context, key string) error
}

// Manager runs cascading cleanups and playlist membership changes.
type Manager struct {
	videos    VideoStore
	comments  CommentStore
	likes     LikeStore
	playlists PlaylistStore
	history   HistoryStore
	assets    AssetDeleter
}

// NewManager wires the cascade manager's store dependencies. assets may be
// nil when no external object store is configured.
func NewManager(videos VideoStore, comments CommentStore, likes LikeStore, playlists PlaylistStore, history HistoryStore, assets AssetDeleter) *Manager {
	return &Manager{
		videos:    videos,
		comments:  comments,
		likes:     likes,
		playlists: playlists,
		history:   history,
		assets:    assets,
	}
}

// DeleteVideo removes a video and every dependent record: likes on the
// video and on its comments, the comments themselves, playlist memberships,
// and watch-history entries. Only the owner may delete. External assets are
// deleted best-effort first.
func (m *Manager) DeleteVideo(ctx context.Context, videoID, actorID string) error {
	video, err := m.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.NotFound("video not found")
		}
		return apperr.Internal("failed to load video", err)
	}

	if !policy.CanMutateVideo(video, actorID) {
		return apperr.Forbidden("only the owner may delete this video")
	}

	ctx, span := logging.StartSpan(ctx, "cascade.delete_video")
	defer span.End()
	logger := logging.FromContext(ctx)

	m.deleteAsset(ctx, video.VideoURL)
	m.deleteAsset(ctx, video.ThumbnailURL)

	// Likes on comments go before the comments themselves: the comment
	// rows drive that delete's subquery.
	if err := m.likes.DeleteForVideoComments(ctx, videoID); err != nil {
		return apperr.Internal("failed to delete comment likes", err)
	}
	if err := m.likes.DeleteForVideo(ctx, videoID); err != nil {
		return apperr.Internal("failed to delete video likes", err)
	}
	if err := m.comments.DeleteByVideo(ctx, videoID); err != nil {
		return apperr.Internal("failed to delete comments", err)
	}
	if err := m.playlists.RemoveVideoEverywhere(ctx, videoID); err != nil {
		return apperr.Internal("failed to prune playlists", err)
	}
	if err := m.history.DeleteForVideo(ctx, videoID); err != nil {
		return apperr.Internal("failed to prune watch history", err)
	}
	if err := m.videos.Delete(ctx, videoID); err != nil {
		return apperr.Internal("failed to delete video", err)
	}

	logger.Info("video cascade completed", "videoId", videoID)
	return nil
}

// DeleteComment removes a comment and the likes targeting it. Permitted for
// the comment owner or the owner of the video it sits on.
func (m *Manager) DeleteComment(ctx context.Context, commentID, actorID string) error {
	comment, err := m.comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.NotFound("comment not found")
		}
		return apperr.Internal("failed to load comment", err)
	}

	video, err := m.videos.FindByID(ctx, comment.VideoID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return apperr.Internal("failed to load video", err)
	}

	if !policy.CanDeleteComment(comment, video, actorID) {
		return apperr.Forbidden("only the comment or video owner may delete this comment")
	}

	if err := m.likes.DeleteForComment(ctx, commentID); err != nil {
		return apperr.Internal("failed to delete comment likes", err)
	}
	if err := m.comments.Delete(ctx, commentID); err != nil {
		return apperr.Internal("failed to delete comment", err)
	}

	return nil
}

// AddPlaylistVideo appends a published video to the playlist. Owner-only;
// a duplicate add surfaces as Conflict without changing the member list.
func (m *Manager) AddPlaylistVideo(ctx context.Context, playlistID, videoID, actorID string) error {
	playlist, err := m.loadOwnedPlaylist(ctx, playlistID, actorID)
	if err != nil {
		return err
	}

	video, err := m.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.NotFound("video not found")
		}
		return apperr.Internal("failed to load video", err)
	}

	if !video.IsPublished {
		return apperr.Invalid("only published videos can be added to a playlist")
	}

	if err := m.playlists.AddVideo(ctx, playlist.ID, videoID); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return apperr.Conflict("video is already in the playlist")
		}
		return apperr.Internal("failed to add playlist video", err)
	}

	return nil
}

// RemovePlaylistVideo drops a video from the playlist. Owner-only; removing
// a video that is not a member is NotFound.
func (m *Manager) RemovePlaylistVideo(ctx context.Context, playlistID, videoID, actorID string) error {
	playlist, err := m.loadOwnedPlaylist(ctx, playlistID, actorID)
	if err != nil {
		return err
	}

	if err := m.playlists.RemoveVideo(ctx, playlist.ID, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.NotFound("video is not in the playlist")
		}
		return apperr.Internal("failed to remove playlist video", err)
	}

	return nil
}

func (m *Manager) loadOwnedPlaylist(ctx context.Context, playlistID, actorID string) (models.Playlist, error) {
	playlist, err := m.playlists.FindByID(ctx, playlistID)
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

// deleteAsset is the best-effort external cleanup: a failure is logged and
// the surrounding cascade continues.
func (m *Manager) deleteAsset(ctx context.Context, key string) {
	if m.assets == nil || key == "" {
		return
	}
	if err := m.assets.Delete(ctx, key); err != nil {
		logging.FromContext(ctx).Warn("asset deletion failed, continuing cascade", "key", key, "error", err)
	}
}
