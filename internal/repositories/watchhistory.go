package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/tubeworks/backend/internal/db"
)

// WatchHistoryRepository defines the data access contract for watch history.
// History is an ordered, deduplicated list: one row per (user, video), with
// the watch timestamp refreshed on repeat plays.
type WatchHistoryRepository interface {
	Record(ctx context.Context, userID, videoID string, watchedAt time.Time) error
	ListForUser(ctx context.Context, userID string, offset, limit int) ([]FeedRow, int64, error)
	DeleteForVideo(ctx context.Context, videoID string) error
}

// PostgresWatchHistoryRepository provides PostgreSQL-backed persistence for
// watch history entries.
type PostgresWatchHistoryRepository struct {
	pool db.Pool
}

// NewPostgresWatchHistoryRepository constructs a watch history repository
// backed by PostgreSQL.
func NewPostgresWatchHistoryRepository(pool db.Pool) *PostgresWatchHistoryRepository {
	return &PostgresWatchHistoryRepository{pool: pool}
}

// Record upserts the (user, video) entry. Repeat plays refresh watched_at
// instead of creating duplicates.
func (r *PostgresWatchHistoryRepository) Record(ctx context.Context, userID, videoID string, watchedAt time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, video_id)
        DO UPDATE SET watched_at = EXCLUDED.watched_at
    `, userID, videoID, watchedAt)
	if err != nil {
		if mapped := classify(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("upsert watch history: %w", err)
	}

	return nil
}

// ListForUser returns a page of the user's history, most recently watched
// first, each entry joined to the video and its owner's profile.
func (r *PostgresWatchHistoryRepository) ListForUser(ctx context.Context, userID string, offset, limit int) ([]FeedRow, int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM watch_history WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count watch history: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.owner_id, v.video_url, v.thumbnail_url, v.title, v.description,
               v.duration_seconds, v.view_count, v.is_published, v.created_at, v.updated_at,
               u.id, u.username, u.full_name, u.avatar_url
        FROM watch_history wh
        JOIN videos v ON v.id = wh.video_id
        JOIN users u ON u.id = v.owner_id
        WHERE wh.user_id = $1
        ORDER BY wh.watched_at DESC
        OFFSET $2 LIMIT $3
    `, userID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("query watch history: %w", err)
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
			return nil, 0, fmt.Errorf("scan watch history row: %w", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate watch history: %w", err)
	}

	return out, total, nil
}

// DeleteForVideo removes the video from every user's history (cascade step,
// idempotent).
func (r *PostgresWatchHistoryRepository) DeleteForVideo(ctx context.Context, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `DELETE FROM watch_history WHERE video_id = $1`, videoID); err != nil {
		return fmt.Errorf("delete watch history for video: %w", err)
	}

	return nil
}

var _ WatchHistoryRepository = (*PostgresWatchHistoryRepository)(nil)
