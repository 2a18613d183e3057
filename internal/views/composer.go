// Package views composes read projections by joining entities at query
// time. Composition is stateless: every call recomputes joins and counts
// from current storage state.
package views

import (
	"context"
	"errors"
	"time"

	"github.com/tubeworks/backend/internal/apperr"
	"github.com/tubeworks/backend/internal/models"
	"github.com/tubeworks/backend/internal/policy"
	"github.com/tubeworks/backend/internal/repositories"
)

// VideoReader captures the video queries the composer needs.
type VideoReader interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
	DetailByID(ctx context.Context, videoID, viewerID string) (repositories.VideoDetailRow, error)
	ListPublished(ctx context.Context, filter repositories.VideoFilter, offset, limit int) ([]repositories.FeedRow, int64, error)
	ListByOwner(ctx context.Context, ownerID string, sortBy, sortDir string, offset, limit int) ([]repositories.ChannelVideoRow, int64, error)
	StatsForOwner(ctx context.Context, ownerID string) (repositories.ChannelStats, error)
	IncrementViews(ctx context.Context, id string) error
}

// CommentReader captures the comment queries the composer needs.
type CommentReader interface {
	PageByVideo(ctx context.Context, videoID string, offset, limit int) ([]repositories.CommentRow, int64, error)
}

// LikeReader resolves per-viewer like state in batches.
type LikeReader interface {
	LikedCommentIDs(ctx context.Context, actorID string, commentIDs []string) (map[string]bool, error)
}

// SubscriptionReader captures the subscription listings the composer needs.
type SubscriptionReader interface {
	ListChannels(ctx context.Context, subscriberID string, offset, limit int) ([]repositories.ChannelRow, int64, error)
	ListSubscribers(ctx context.Context, channelID string, offset, limit int) ([]models.Profile, int64, error)
}

// PlaylistReader captures the playlist queries the composer needs.
type PlaylistReader interface {
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	MemberVideos(ctx context.Context, playlistID string) ([]repositories.FeedRow, error)
	ListByOwner(ctx context.Context, ownerID string) ([]repositories.PlaylistSummaryRow, error)
}

// UserReader resolves owner profiles for nested joins.
type UserReader interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// HistoryStore records and lists watch history.
type HistoryStore interface {
	Record(ctx context.Context, userID, videoID string, watchedAt time.Time) error
	ListForUser(ctx context.Context, userID string, offset, limit int) ([]repositories.FeedRow, int64, error)
}

// Composer builds denormalized read views over the entity store.
type Composer struct {
	videos    VideoReader
	comments  CommentReader
	likes     LikeReader
	subs      SubscriptionReader
	playlists PlaylistReader
	users     UserReader
	history   HistoryStore
	now       func() time.Time
}

// NewComposer wires the composer's repository dependencies.
func NewComposer(videos VideoReader, comments CommentReader, likes LikeReader, subs SubscriptionReader, playlists PlaylistReader, users UserReader, history HistoryStore) *Composer {
	return &Composer{
		videos:    videos,
		comments:  comments,
		likes:     likes,
		subs:      subs,
		playlists: playlists,
		users:     users,
		history:   history,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithNowFunc overrides the clock, for tests.
func (c *Composer) WithNowFunc(now func() time.Time) *Composer {
	c.now = now
	return c
}

// VideoDetail composes the full video view. An unpublished video is visible
// only to its owner; other viewers get Forbidden. Fetching detail does not
// count as a play — see RegisterView.
func (c *Composer) VideoDetail(ctx context.Context, videoID, viewerID string) (VideoView, error) {
	row, err := c.videos.DetailByID(ctx, videoID, viewerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return VideoView{}, apperr.NotFound("video not found")
		}
		return VideoView{}, apperr.Internal("failed to load video", err)
	}

	if !policy.CanViewVideo(row.Video, viewerID) {
		return VideoView{}, apperr.Forbidden("video is not published")
	}

	return VideoView{
		ID:           row.Video.ID,
		Title:        row.Video.Title,
		Description:  row.Video.Description,
		VideoURL:     row.Video.VideoURL,
		ThumbnailURL: row.Video.ThumbnailURL,
		Duration:     row.Video.Duration,
		Views:        row.Video.Views,
		IsPublished:  row.Video.IsPublished,
		LikeCount:    row.LikeCount,
		Owner: ChannelInfo{
			Profile:         row.Owner,
			SubscriberCount: row.SubscriberCount,
			IsSubscribed:    row.IsSubscribed,
		},
		CreatedAt: row.Video.CreatedAt,
	}, nil
}

// RegisterView handles the caller-provided play signal: the view counter is
// incremented exactly once per call, and an authenticated viewer's watch
// history gains a deduplicated entry.
func (c *Composer) RegisterView(ctx context.Context, videoID, viewerID string) error {
	video, err := c.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.NotFound("video not found")
		}
		return apperr.Internal("failed to load video", err)
	}

	if !policy.CanViewVideo(video, viewerID) {
		return apperr.Forbidden("video is not published")
	}

	if err := c.videos.IncrementViews(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.NotFound("video not found")
		}
		return apperr.Internal("failed to register view", err)
	}

	if viewerID != "" {
		if err := c.history.Record(ctx, viewerID, videoID, c.now()); err != nil {
			return apperr.Internal("failed to record watch history", err)
		}
	}

	return nil
}

// CommentPage composes one page of a video's comments. Per-viewer like state
// comes from a single batched lookup keyed by the page's comment ids.
func (c *Composer) CommentPage(ctx context.Context, videoID, viewerID string, page, limit int) (Page[CommentView], error) {
	offset, limit, err := ValidatePageParams(page, limit)
	if err != nil {
		return Page[CommentView]{}, err
	}

	video, err := c.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return Page[CommentView]{}, apperr.NotFound("video not found")
		}
		return Page[CommentView]{}, apperr.Internal("failed to load video", err)
	}

	if !policy.CanViewVideo(video, viewerID) {
		return Page[CommentView]{}, apperr.Forbidden("video is not published")
	}

	rows, total, err := c.comments.PageByVideo(ctx, videoID, offset, limit)
	if err != nil {
		return Page[CommentView]{}, apperr.Internal("failed to load comments", err)
	}

	commentIDs := make([]string, len(rows))
	for i, row := range rows {
		commentIDs[i] = row.Comment.ID
	}

	liked, err := c.likes.LikedCommentIDs(ctx, viewerID, commentIDs)
	if err != nil {
		return Page[CommentView]{}, apperr.Internal("failed to resolve like state", err)
	}

	docs := make([]CommentView, len(rows))
	for i, row := range rows {
		docs[i] = CommentView{
			ID:        row.Comment.ID,
			VideoID:   row.Comment.VideoID,
			Content:   row.Comment.Content,
			Owner:     row.Owner,
			IsLiked:   liked[row.Comment.ID],
			CreatedAt: row.Comment.CreatedAt,
			UpdatedAt: row.Comment.UpdatedAt,
		}
	}

	return NewPage(docs, total, page, limit), nil
}

// PlaylistDetail composes a playlist with its member videos (each joined to
// its owner) and the derived count and duration aggregates. A private
// playlist is visible only to its owner.
func (c *Composer) PlaylistDetail(ctx context.Context, playlistID, viewerID string) (PlaylistView, error) {
	playlist, err := c.playlists.FindByID(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return PlaylistView{}, apperr.NotFound("playlist not found")
		}
		return PlaylistView{}, apperr.Internal("failed to load playlist", err)
	}

	if !policy.CanViewPlaylist(playlist, viewerID) {
		return PlaylistView{}, apperr.Forbidden("playlist is private")
	}

	owner, err := c.users.FindByID(ctx, playlist.OwnerID)
	if err != nil {
		return PlaylistView{}, apperr.Internal("failed to load playlist owner", err)
	}

	members, err := c.playlists.MemberVideos(ctx, playlistID)
	if err != nil {
		return PlaylistView{}, apperr.Internal("failed to load playlist videos", err)
	}

	videos := make([]VideoSummary, len(members))
	var totalDuration int64
	for i, row := range members {
		videos[i] = summaryFromFeedRow(row)
		totalDuration += row.Video.Duration
	}

	return PlaylistView{
		ID:            playlist.ID,
		Name:          playlist.Name,
		Description:   playlist.Description,
		IsPublic:      playlist.IsPublic,
		Owner:         owner.PublicProfile(),
		Videos:        videos,
		VideoCount:    len(videos),
		TotalDuration: totalDuration,
		CreatedAt:     playlist.CreatedAt,
	}, nil
}

// OwnerPlaylists lists a user's playlists with member counts and cover
// thumbnails, newest first.
func (c *Composer) OwnerPlaylists(ctx context.Context, ownerID string) ([]PlaylistSummary, error) {
	rows, err := c.playlists.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal("failed to load playlists", err)
	}

	out := make([]PlaylistSummary, len(rows))
	for i, row := range rows {
		out[i] = PlaylistSummary{
			ID:             row.Playlist.ID,
			Name:           row.Playlist.Name,
			Description:    row.Playlist.Description,
			IsPublic:       row.Playlist.IsPublic,
			VideoCount:     row.VideoCount,
			CoverThumbnail: row.CoverThumbnail,
			CreatedAt:      row.Playlist.CreatedAt,
		}
	}

	return out, nil
}

// ChannelStats aggregates the owner dashboard numbers. Restricted to the
// owner; a channel with zero published videos still reports its subscriber
// count.
func (c *Composer) ChannelStats(ctx context.Context, ownerID, actorID string) (StatsView, error) {
	if actorID == "" || actorID != ownerID {
		return StatsView{}, apperr.Forbidden("dashboard is restricted to the channel owner")
	}

	stats, err := c.videos.StatsForOwner(ctx, ownerID)
	if err != nil {
		return StatsView{}, apperr.Internal("failed to aggregate channel stats", err)
	}

	return StatsView{
		TotalVideos:      stats.TotalVideos,
		TotalViews:       stats.TotalViews,
		TotalLikes:       stats.TotalLikes,
		TotalSubscribers: stats.TotalSubscribers,
	}, nil
}

// channelVideoSortColumns whitelists sortable columns; anything else is a
// validation error rather than SQL input.
var channelVideoSortColumns = map[string]string{
	"":          "created_at",
	"createdAt": "created_at",
	"views":     "view_count",
	"title":     "title",
	"duration":  "duration_seconds",
}

// ChannelVideos lists the owner's videos including unpublished ones with
// derived like/comment counts. Owner-only because drafts are included.
func (c *Composer) ChannelVideos(ctx context.Context, ownerID, actorID string, page, limit int, sortBy, sortDir string) (Page[ChannelVideoSummary], error) {
	if actorID == "" || actorID != ownerID {
		return Page[ChannelVideoSummary]{}, apperr.Forbidden("channel listing is restricted to the owner")
	}

	offset, limit, err := ValidatePageParams(page, limit)
	if err != nil {
		return Page[ChannelVideoSummary]{}, err
	}

	column, ok := channelVideoSortColumns[sortBy]
	if !ok {
		return Page[ChannelVideoSummary]{}, apperr.Invalid("unsupported sort field %q", sortBy)
	}

	direction := "DESC"
	switch sortDir {
	case "", "desc":
	case "asc":
		direction = "ASC"
	default:
		return Page[ChannelVideoSummary]{}, apperr.Invalid("sort direction must be asc or desc")
	}

	rows, total, err := c.videos.ListByOwner(ctx, ownerID, column, direction, offset, limit)
	if err != nil {
		return Page[ChannelVideoSummary]{}, apperr.Internal("failed to load channel videos", err)
	}

	docs := make([]ChannelVideoSummary, len(rows))
	for i, row := range rows {
		docs[i] = ChannelVideoSummary{
			VideoSummary: VideoSummary{
				ID:           row.Video.ID,
				Title:        row.Video.Title,
				ThumbnailURL: row.Video.ThumbnailURL,
				Duration:     row.Video.Duration,
				Views:        row.Video.Views,
				CreatedAt:    row.Video.CreatedAt,
			},
			IsPublished:  row.Video.IsPublished,
			LikeCount:    row.LikeCount,
			CommentCount: row.CommentCount,
		}
	}

	return NewPage(docs, total, page, limit), nil
}

// Feed lists published videos for everyone. The owner filter applies only
// when explicitly provided.
func (c *Composer) Feed(ctx context.Context, filter repositories.VideoFilter, page, limit int) (Page[VideoSummary], error) {
	offset, limit, err := ValidatePageParams(page, limit)
	if err != nil {
		return Page[VideoSummary]{}, err
	}

	rows, total, err := c.videos.ListPublished(ctx, filter, offset, limit)
	if err != nil {
		return Page[VideoSummary]{}, apperr.Internal("failed to load feed", err)
	}

	docs := make([]VideoSummary, len(rows))
	for i, row := range rows {
		docs[i] = summaryFromFeedRow(row)
	}

	return NewPage(docs, total, page, limit), nil
}

// Subscriptions lists the channels a user follows, each with its own
// subscriber count.
func (c *Composer) Subscriptions(ctx context.Context, userID string, page, limit int) (Page[FollowedChannel], error) {
	offset, limit, err := ValidatePageParams(page, limit)
	if err != nil {
		return Page[FollowedChannel]{}, err
	}

	rows, total, err := c.subs.ListChannels(ctx, userID, offset, limit)
	if err != nil {
		return Page[FollowedChannel]{}, apperr.Internal("failed to load subscriptions", err)
	}

	docs := make([]FollowedChannel, len(rows))
	for i, row := range rows {
		docs[i] = FollowedChannel{
			Profile:         row.Channel,
			SubscriberCount: row.SubscriberCount,
			SubscribedAt:    row.SubscribedAt,
		}
	}

	return NewPage(docs, total, page, limit), nil
}

// Subscribers lists a channel's subscribers as public profiles.
func (c *Composer) Subscribers(ctx context.Context, channelID string, page, limit int) (Page[models.Profile], error) {
	offset, limit, err := ValidatePageParams(page, limit)
	if err != nil {
		return Page[models.Profile]{}, err
	}

	profiles, total, err := c.subs.ListSubscribers(ctx, channelID, offset, limit)
	if err != nil {
		return Page[models.Profile]{}, apperr.Internal("failed to load subscribers", err)
	}

	return NewPage(profiles, total, page, limit), nil
}

// WatchHistory lists the user's history, most recently watched first.
func (c *Composer) WatchHistory(ctx context.Context, userID string, page, limit int) (Page[VideoSummary], error) {
	offset, limit, err := ValidatePageParams(page, limit)
	if err != nil {
		return Page[VideoSummary]{}, err
	}

	rows, total, err := c.history.ListForUser(ctx, userID, offset, limit)
	if err != nil {
		return Page[VideoSummary]{}, apperr.Internal("failed to load watch history", err)
	}

	docs := make([]VideoSummary, len(rows))
	for i, row := range rows {
		docs[i] = summaryFromFeedRow(row)
	}

	return NewPage(docs, total, page, limit), nil
}
