package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/tubeworks/backend/internal/metrics"
	"github.com/tubeworks/backend/internal/middleware"
)

// RegisterRoutes wires all HTTP handlers into the provided chi router.
func RegisterRoutes(r chi.Router, deps Dependencies) {
	authHandler := AuthHandler{Users: deps.Users, Sessions: deps.Sessions}
	engagementHandler := EngagementHandler{Toggles: deps.Toggles}
	videoHandler := VideoHandler{Videos: deps.Videos, Views: deps.Views, Cascades: deps.Cascades}
	commentHandler := CommentHandler{Comments: deps.Comments, Videos: deps.Videos, Views: deps.Views, Cascades: deps.Cascades}
	playlistHandler := PlaylistHandler{Playlists: deps.Playlists, Views: deps.Views, Cascades: deps.Cascades}
	channelHandler := ChannelHandler{Views: deps.Views}
	userHandler := UserHandler{Users: deps.Users, Views: deps.Views}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", HealthHandler{}.Handle)
	r.Method("GET", "/metrics", metrics.Handler())

	authLimiter := middleware.NewIPRateLimiter(10, time.Minute, 5, 10*time.Minute)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.Throttle(authLimiter))
			r.Post("/signup", authHandler.SignUp)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.With(middleware.RequireActor(deps.Verifier)).Post("/logout", authHandler.Logout)
		})

		// Reads vary per viewer; a token is honoured but not required.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalActor(deps.Verifier))
			r.Get("/videos", videoHandler.Feed)
			r.Get("/videos/{videoID}", videoHandler.Detail)
			r.Post("/videos/{videoID}/views", videoHandler.RegisterView)
			r.Get("/videos/{videoID}/comments", commentHandler.Page)
			r.Get("/playlists/{playlistID}", playlistHandler.Detail)
			r.Get("/users/{userID}/playlists", playlistHandler.ListByOwner)
			r.Get("/channels/{channelID}/subscribers", channelHandler.Subscribers)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireActor(deps.Verifier))

			if deps.Assets != nil {
				uploadHandler := UploadHandler{Assets: deps.Assets}
				r.Post("/uploads", uploadHandler.Upload)
			}

			r.Post("/likes/videos/{videoID}", engagementHandler.ToggleVideoLike)
			r.Post("/likes/comments/{commentID}", engagementHandler.ToggleCommentLike)
			r.Post("/subscriptions/{channelID}", engagementHandler.ToggleSubscribe)

			r.Post("/videos", videoHandler.Create)
			r.Patch("/videos/{videoID}", videoHandler.Update)
			r.Patch("/videos/{videoID}/publish", videoHandler.TogglePublish)
			r.Delete("/videos/{videoID}", videoHandler.Delete)

			r.Post("/videos/{videoID}/comments", commentHandler.Create)
			r.Patch("/comments/{commentID}", commentHandler.Update)
			r.Delete("/comments/{commentID}", commentHandler.Delete)

			r.Post("/playlists", playlistHandler.Create)
			r.Patch("/playlists/{playlistID}", playlistHandler.Update)
			r.Delete("/playlists/{playlistID}", playlistHandler.Delete)
			r.Post("/playlists/{playlistID}/videos/{videoID}", playlistHandler.AddVideo)
			r.Delete("/playlists/{playlistID}/videos/{videoID}", playlistHandler.RemoveVideo)

			r.Get("/channels/{channelID}/stats", channelHandler.Stats)
			r.Get("/channels/{channelID}/videos", channelHandler.Videos)
			r.Get("/users/me/subscriptions", channelHandler.Subscriptions)
			r.Get("/users/me/history", userHandler.WatchHistory)
			r.Get("/users/me", userHandler.Profile)
			r.Patch("/users/me", userHandler.UpdateProfile)
		})
	})
}
