package handlers

import (
	"context"

	"github.com/tubeworks/backend/internal/auth"
	"github.com/tubeworks/backend/internal/engagement"
	"github.com/tubeworks/backend/internal/models"
	"github.com/tubeworks/backend/internal/repositories"
	"github.com/tubeworks/backend/internal/views"
)

// UserStore captures the persistence operations required by the auth and
// profile handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Update(ctx context.Context, user models.User) error
}

// SessionManager issues, refreshes, and revokes bearer credentials.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (auth.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (auth.Tokens, error)
	Revoke(ctx context.Context, userID string) error
}

// ToggleService flips social-graph edges.
type ToggleService interface {
	ToggleLike(ctx context.Context, actorID string, target models.LikeTarget) (engagement.LikeState, error)
	ToggleSubscribe(ctx context.Context, actorID, channelID string) (engagement.SubscriptionState, error)
}

// ViewComposer builds the read projections served by GET endpoints.
type ViewComposer interface {
	VideoDetail(ctx context.Context, videoID, viewerID string) (views.VideoView, error)
	RegisterView(ctx context.Context, videoID, viewerID string) error
	CommentPage(ctx context.Context, videoID, viewerID string, page, limit int) (views.Page[views.CommentView], error)
	PlaylistDetail(ctx context.Context, playlistID, viewerID string) (views.PlaylistView, error)
	OwnerPlaylists(ctx context.Context, ownerID string) ([]views.PlaylistSummary, error)
	ChannelStats(ctx context.Context, ownerID, actorID string) (views.StatsView, error)
	ChannelVideos(ctx context.Context, ownerID, actorID string, page, limit int, sortBy, sortDir string) (views.Page[views.ChannelVideoSummary], error)
	Feed(ctx context.Context, filter repositories.VideoFilter, page, limit int) (views.Page[views.VideoSummary], error)
	Subscriptions(ctx context.Context, userID string, page, limit int) (views.Page[views.FollowedChannel], error)
	Subscribers(ctx context.Context, channelID string, page, limit int) (views.Page[models.Profile], error)
	WatchHistory(ctx context.Context, userID string, page, limit int) (views.Page[views.VideoSummary], error)
}

// CascadeManager runs cascading deletions and playlist membership changes.
type CascadeManager interface {
	DeleteVideo(ctx context.Context, videoID, actorID string) error
	DeleteComment(ctx context.Context, commentID, actorID string) error
	AddPlaylistVideo(ctx context.Context, playlistID, videoID, actorID string) error
	RemovePlaylistVideo(ctx context.Context, playlistID, videoID, actorID string) error
}

// VideoStore captures the direct video mutations handled outside the
// cascade manager.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Update(ctx context.Context, video models.Video) error
	SetPublished(ctx context.Context, id string, published bool) error
}

// CommentStore captures comment creation and edits.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	Update(ctx context.Context, comment models.Comment) error
}

// PlaylistStore captures playlist CRUD outside membership changes.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	Update(ctx context.Context, playlist models.Playlist) error
	Delete(ctx context.Context, id string) error
}

// Dependencies aggregates collaborators required by the HTTP handlers.
// Assets is nil when no object store is configured; the upload route is
// only mounted when it is present.
type Dependencies struct {
	Users     UserStore
	Sessions  SessionManager
	Verifier  TokenVerifier
	Toggles   ToggleService
	Views     ViewComposer
	Cascades  CascadeManager
	Videos    VideoStore
	Comments  CommentStore
	Playlists PlaylistStore
	Assets    AssetStore
}

// TokenVerifier resolves a bearer token to an actor id; re-exported here so
// route wiring needs only the handlers package.
type TokenVerifier interface {
	Verify(token string) (string, error)
}
