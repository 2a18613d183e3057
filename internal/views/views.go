package views

import (
	"time"

	"github.com/tubeworks/backend/internal/models"
	"github.com/tubeworks/backend/internal/repositories"
)

// ChannelInfo embeds an owner profile with audience numbers relative to the
// viewer.
type ChannelInfo struct {
	models.Profile
	SubscriberCount int64 `json:"subscriberCount"`
	IsSubscribed    bool  `json:"isSubscribed"`
}

// VideoView is the composed video detail projection.
type VideoView struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	VideoURL     string      `json:"videoUrl"`
	ThumbnailURL string      `json:"thumbnailUrl"`
	Duration     int64       `json:"duration"`
	Views        int64       `json:"views"`
	IsPublished  bool        `json:"isPublished"`
	LikeCount    int64       `json:"likeCount"`
	Owner        ChannelInfo `json:"owner"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// VideoSummary is the lighter projection used in feeds, playlists, and
// history listings.
type VideoSummary struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	ThumbnailURL string         `json:"thumbnailUrl"`
	Duration     int64          `json:"duration"`
	Views        int64          `json:"views"`
	Owner        models.Profile `json:"owner"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// ChannelVideoSummary adds the owner-facing engagement counts and publish
// state to a video summary.
type ChannelVideoSummary struct {
	VideoSummary
	IsPublished  bool  `json:"isPublished"`
	LikeCount    int64 `json:"likeCount"`
	CommentCount int64 `json:"commentCount"`
}

// CommentView is a comment joined to its owner with the viewer's like state.
type CommentView struct {
	ID        string         `json:"id"`
	VideoID   string         `json:"videoId"`
	Content   string         `json:"content"`
	Owner     models.Profile `json:"owner"`
	IsLiked   bool           `json:"isLiked"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// PlaylistView is the composed playlist detail projection with derived
// aggregates.
type PlaylistView struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	IsPublic      bool           `json:"isPublic"`
	Owner         models.Profile `json:"owner"`
	Videos        []VideoSummary `json:"videos"`
	VideoCount    int            `json:"videoCount"`
	TotalDuration int64          `json:"totalDuration"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// PlaylistSummary is a playlist listing entry with its member count and
// cover thumbnail.
type PlaylistSummary struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	IsPublic       bool      `json:"isPublic"`
	VideoCount     int64     `json:"videoCount"`
	CoverThumbnail string    `json:"coverThumbnail"`
	CreatedAt      time.Time `json:"createdAt"`
}

// FollowedChannel is a channel the user subscribes to, reported with that
// channel's own subscriber count.
type FollowedChannel struct {
	models.Profile
	SubscriberCount int64     `json:"subscriberCount"`
	SubscribedAt    time.Time `json:"subscribedAt"`
}

// StatsView is the owner dashboard aggregate.
type StatsView struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalLikes       int64 `json:"totalLikes"`
	TotalSubscribers int64 `json:"totalSubscribers"`
}

func summaryFromFeedRow(row repositories.FeedRow) VideoSummary {
	return VideoSummary{
		ID:           row.Video.ID,
		Title:        row.Video.Title,
		ThumbnailURL: row.Video.ThumbnailURL,
		Duration:     row.Video.Duration,
		Views:        row.Video.Views,
		Owner:        row.Owner,
		CreatedAt:    row.Video.CreatedAt,
	}
}
