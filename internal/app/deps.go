package app

import (
	"github.com/tubeworks/backend/internal/auth"
	"github.com/tubeworks/backend/internal/cascade"
	"github.com/tubeworks/backend/internal/config"
	"github.com/tubeworks/backend/internal/db"
	"github.com/tubeworks/backend/internal/engagement"
	"github.com/tubeworks/backend/internal/handlers"
	"github.com/tubeworks/backend/internal/repositories"
	"github.com/tubeworks/backend/internal/views"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. deleter and uploads may be nil when no object store is configured.
func buildDependencies(pool db.Pool, cfg config.Config, deleter cascade.AssetDeleter, uploads handlers.AssetStore) handlers.Dependencies {
	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)
	comments := repositories.NewPostgresCommentRepository(pool)
	likes := repositories.NewPostgresLikeRepository(pool)
	subs := repositories.NewPostgresSubscriptionRepository(pool)
	playlists := repositories.NewPostgresPlaylistRepository(pool)
	history := repositories.NewPostgresWatchHistoryRepository(pool)
	checker := repositories.NewPostgresEntityChecker(pool)

	sessions := auth.NewManager(cfg.TokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, users)

	return handlers.Dependencies{
		Users:     users,
		Sessions:  sessions,
		Verifier:  sessions,
		Toggles:   engagement.NewService(likes, subs, checker),
		Views:     views.NewComposer(videos, comments, likes, subs, playlists, users, history),
		Cascades:  cascade.NewManager(videos, comments, likes, playlists, history, deleter),
		Videos:    videos,
		Comments:  comments,
		Playlists: playlists,
		Assets:    uploads,
	}
}
