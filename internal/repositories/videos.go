package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tubeworks/backend/internal/db"
	"github.com/tubeworks/backend/internal/models"
)

// VideoDetailRow is the composed read projection for a single video: the
// video, its owner's public profile, and the owner's channel stats relative
// to the viewer.
type VideoDetailRow struct {
	Video           models.Video
	Owner           models.Profile
	LikeCount       int64
	SubscriberCount int64
	IsSubscribed    bool
}

// ChannelVideoRow pairs a video with its derived engagement counts for the
// owner-facing channel listing.
type ChannelVideoRow struct {
	Video        models.Video
	LikeCount    int64
	CommentCount int64
}

// ChannelStats aggregates a channel's published output and audience.
type ChannelStats struct {
	TotalVideos      int64
	TotalViews       int64
	TotalLikes       int64
	TotalSubscribers int64
}

// VideoFilter narrows the public feed. OwnerID is strictly optional; an
// empty value applies no owner filter.
type VideoFilter struct {
	OwnerID string
	Query   string
}

// VideoRepository defines the data access contract for videos, including the
// composed read queries used by the view layer.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Update(ctx context.Context, video models.Video) error
	SetPublished(ctx context.Context, id string, published bool) error
	IncrementViews(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DetailByID(ctx context.Context, videoID, viewerID string) (VideoDetailRow, error)
	ListPublished(ctx context.Context, filter VideoFilter, offset, limit int) ([]FeedRow, int64, error)
	ListByOwner(ctx context.Context, ownerID string, sortBy, sortDir string, offset, limit int) ([]ChannelVideoRow, int64, error)
	StatsForOwner(ctx context.Context, ownerID string) (ChannelStats, error)
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoColumns = `id, owner_id, video_url, thumbnail_url, title, description, duration_seconds, view_count, is_published, created_at, updated_at`

func scanVideo(row pgx.Row) (models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.OwnerID, &v.VideoURL, &v.ThumbnailURL, &v.Title, &v.Description, &v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, video_url, thumbnail_url, title, description, duration_seconds, view_count, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.VideoURL, video.ThumbnailURL, video.Title, video.Description, video.Duration, video.Views, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		if mapped := classify(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a video by primary key.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}

	return video, nil
}

// Update modifies the content fields of an existing video.
func (r *PostgresVideoRepository) Update(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET title = $2, description = $3, thumbnail_url = $4, updated_at = $5
        WHERE id = $1
    `, video.ID, video.Title, video.Description, video.ThumbnailURL, video.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SetPublished flips the two-state publish flag.
func (r *PostgresVideoRepository) SetPublished(ctx context.Context, id string, published bool) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET is_published = $2, updated_at = NOW() WHERE id = $1`, id, published)
	if err != nil {
		return fmt.Errorf("update publish state: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// IncrementViews bumps the monotonic view counter by one.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment view count: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes the video row. Dependent records are cleaned up by the
// cascade manager, not here.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	return nil
}

const videoDetailQuery = `
        SELECT v.id, v.owner_id, v.video_url, v.thumbnail_url, v.title, v.description,
               v.duration_seconds, v.view_count, v.is_published, v.created_at, v.updated_at,
               u.id, u.username, u.full_name, u.avatar_url,
               (SELECT COUNT(*) FROM likes l WHERE l.video_id = v.id) AS like_count,
               (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = v.owner_id) AS subscriber_count,
               EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = v.owner_id AND s.subscriber_id = $2) AS is_subscribed
        FROM videos v
        JOIN users u ON u.id = v.owner_id`

func scanVideoDetail(row pgx.Row) (VideoDetailRow, error) {
	var d VideoDetailRow
	err := row.Scan(
		&d.Video.ID, &d.Video.OwnerID, &d.Video.VideoURL, &d.Video.ThumbnailURL, &d.Video.Title, &d.Video.Description,
		&d.Video.Duration, &d.Video.Views, &d.Video.IsPublished, &d.Video.CreatedAt, &d.Video.UpdatedAt,
		&d.Owner.ID, &d.Owner.Username, &d.Owner.FullName, &d.Owner.AvatarURL,
		&d.LikeCount, &d.SubscriberCount, &d.IsSubscribed,
	)
	return d, err
}

// DetailByID composes the video detail view in one query: video, owner
// profile, like count, and the owner's subscriber count with the viewer's
// subscription state. An empty viewerID yields isSubscribed = false.
func (r *PostgresVideoRepository) DetailByID(ctx context.Context, videoID, viewerID string) (VideoDetailRow, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return VideoDetailRow{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	detail, err := scanVideoDetail(conn.QueryRow(ctx, videoDetailQuery+` WHERE v.id = $1`, videoID, viewerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VideoDetailRow{}, ErrNotFound
		}
		return VideoDetailRow{}, fmt.Errorf("select video detail: %w", err)
	}

	return detail, nil
}

// FeedRow pairs a published video with its owner's public profile for the
// public feed listing.
type FeedRow struct {
	Video models.Video
	Owner models.Profile
}

// ListPublished returns a page of the public feed, newest first. The owner
// filter applies only when the filter carries an owner id.
func (r *PostgresVideoRepository) ListPublished(ctx context.Context, filter VideoFilter, offset, limit int) ([]FeedRow, int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	const where = ` WHERE v.is_published
              AND ($1 = '' OR v.owner_id = $1)
              AND ($2 = '' OR v.title ILIKE '%' || $2 || '%')`

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM videos v`+where, filter.OwnerID, filter.Query).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count published videos: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.owner_id, v.video_url, v.thumbnail_url, v.title, v.description,
               v.duration_seconds, v.view_count, v.is_published, v.created_at, v.updated_at,
               u.id, u.username, u.full_name, u.avatar_url
        FROM videos v
        JOIN users u ON u.id = v.owner_id`+where+`
        ORDER BY v.created_at DESC
        OFFSET $3 LIMIT $4`, filter.OwnerID, filter.Query, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("query published videos: %w", err)
	}
	defer rows.Close()

	var out []FeedRow
	for rows.Next() {
		var row FeedRow
		if err := rows.Scan(
			&row.Video.ID, &row.Video.OwnerID, &row.Video.VideoURL, &row.Video.ThumbnailURL, &row.Video.Title, &row.Video.Description,
			&row.Video.Duration, &row.Video.Views, &row.Video.IsPublished, &row.Video.CreatedAt, &row.Video.UpdatedAt,
			&row.Owner.ID, &row.Owner.Username, &row.Owner.FullName, &row.Owner.AvatarURL,
		); err != nil {
			return nil, 0, fmt.Errorf("scan published video: %w", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate published videos: %w", err)
	}

	return out, total, nil
}

// ListByOwner returns the owner-facing channel listing including unpublished
// videos, each with derived like and comment counts. sortBy and sortDir must
// already be validated against the composer's whitelist.
func (r *PostgresVideoRepository) ListByOwner(ctx context.Context, ownerID string, sortBy, sortDir string, offset, limit int) ([]ChannelVideoRow, int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM videos WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count owner videos: %w", err)
	}

	query := fmt.Sprintf(`
        SELECT v.id, v.owner_id, v.video_url, v.thumbnail_url, v.title, v.description,
               v.duration_seconds, v.view_count, v.is_published, v.created_at, v.updated_at,
               (SELECT COUNT(*) FROM likes l WHERE l.video_id = v.id) AS like_count,
               (SELECT COUNT(*) FROM comments c WHERE c.video_id = v.id) AS comment_count
        FROM videos v
        WHERE v.owner_id = $1
        ORDER BY v.%s %s
        OFFSET $2 LIMIT $3`, sortBy, sortDir)

	rows, err := conn.Query(ctx, query, ownerID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("query owner videos: %w", err)
	}
	defer rows.Close()

	var out []ChannelVideoRow
	for rows.Next() {
		var row ChannelVideoRow
		if err := rows.Scan(
			&row.Video.ID, &row.Video.OwnerID, &row.Video.VideoURL, &row.Video.ThumbnailURL, &row.Video.Title, &row.Video.Description,
			&row.Video.Duration, &row.Video.Views, &row.Video.IsPublished, &row.Video.CreatedAt, &row.Video.UpdatedAt,
			&row.LikeCount, &row.CommentCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan owner video: %w", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate owner videos: %w", err)
	}

	return out, total, nil
}

// StatsForOwner aggregates the channel dashboard numbers over the owner's
// published videos. The subscriber count comes from the subscriptions table
// directly, so a channel with zero published videos still reports it.
func (r *PostgresVideoRepository) StatsForOwner(ctx context.Context, ownerID string) (ChannelStats, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return ChannelStats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT COALESCE(COUNT(v.id), 0),
               COALESCE(SUM(v.view_count), 0),
               COALESCE(SUM((SELECT COUNT(*) FROM likes l WHERE l.video_id = v.id)), 0),
               (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = $1)
        FROM videos v
        WHERE v.owner_id = $1 AND v.is_published
    `, ownerID)

	var stats ChannelStats
	if err := row.Scan(&stats.TotalVideos, &stats.TotalViews, &stats.TotalLikes, &stats.TotalSubscribers); err != nil {
		return ChannelStats{}, fmt.Errorf("aggregate channel stats: %w", err)
	}

	return stats, nil
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
