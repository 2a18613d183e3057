package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tubeworks/backend/internal/db"
	"github.com/tubeworks/backend/internal/models"
)

// PlaylistSummaryRow is a playlist with its derived member count and the
// first member's thumbnail, used for owner playlist listings.
type PlaylistSummaryRow struct {
	Playlist       models.Playlist
	VideoCount     int64
	CoverThumbnail string
}

// PlaylistRepository defines the data access contract for playlists and
// their ordered memberships.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	Update(ctx context.Context, playlist models.Playlist) error
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideoEverywhere(ctx context.Context, videoID string) error
	MemberVideos(ctx context.Context, playlistID string) ([]FeedRow, error)
	ListByOwner(ctx context.Context, ownerID string) ([]PlaylistSummaryRow, error)
}

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for playlists.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

// Create persists a new playlist.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlists (id, owner_id, name, description, is_public, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, playlist.ID, playlist.OwnerID, playlist.Name, playlist.Description, playlist.IsPublic, playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		if mapped := classify(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert playlist: %w", err)
	}

	return nil
}

// FindByID fetches a playlist by primary key.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, owner_id, name, description, is_public, created_at, updated_at
        FROM playlists
        WHERE id = $1
    `, id)

	var p models.Playlist
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.IsPublic, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, fmt.Errorf("select playlist: %w", err)
	}

	return p, nil
}

// Update modifies the playlist's name, description, and visibility.
func (r *PostgresPlaylistRepository) Update(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE playlists
        SET name = $2, description = $3, is_public = $4, updated_at = $5
        WHERE id = $1
    `, playlist.ID, playlist.Name, playlist.Description, playlist.IsPublic, playlist.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update playlist: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes the playlist and its memberships.
func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `DELETE FROM playlist_videos WHERE playlist_id = $1`, id); err != nil {
		return fmt.Errorf("delete playlist memberships: %w", err)
	}

	if _, err := conn.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}

	return nil
}

// AddVideo appends a video to the playlist's ordered member list. The
// composite primary key turns a duplicate add into ErrConflict.
func (r *PostgresPlaylistRepository) AddVideo(ctx context.Context, playlistID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlist_videos (playlist_id, video_id, position, added_at)
        VALUES ($1, $2,
                COALESCE((SELECT MAX(position) FROM playlist_videos WHERE playlist_id = $1), 0) + 1,
                NOW())
    `, playlistID, videoID)
	if err != nil {
		if mapped := classify(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert playlist membership: %w", err)
	}

	return nil
}

// RemoveVideo drops a video from the playlist. Returns ErrNotFound when the
// video is not currently a member.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM playlist_videos
        WHERE playlist_id = $1 AND video_id = $2
    `, playlistID, videoID)
	if err != nil {
		return fmt.Errorf("delete playlist membership: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// RemoveVideoEverywhere pulls a video out of every playlist (cascade step,
// idempotent).
func (r *PostgresPlaylistRepository) RemoveVideoEverywhere(ctx context.Context, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `DELETE FROM playlist_videos WHERE video_id = $1`, videoID); err != nil {
		return fmt.Errorf("delete playlist memberships for video: %w", err)
	}

	return nil
}

// MemberVideos returns the playlist's videos in list order, each joined to
// its owner's public profile.
func (r *PostgresPlaylistRepository) MemberVideos(ctx context.Context, playlistID string) ([]FeedRow, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.owner_id, v.video_url, v.thumbnail_url, v.title, v.description,
               v.duration_seconds, v.view_count, v.is_published, v.created_at, v.updated_at,
               u.id, u.username, u.full_name, u.avatar_url
        FROM playlist_videos pv
        JOIN videos v ON v.id = pv.video_id
        JOIN users u ON u.id = v.owner_id
        WHERE pv.playlist_id = $1
        ORDER BY pv.position
    `, playlistID)
	if err != nil {
		return nil, fmt.Errorf("query playlist videos: %w", err)
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
			return nil, fmt.Errorf("scan playlist video: %w", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlist videos: %w", err)
	}

	return out, nil
}

// ListByOwner returns the owner's playlists with member counts and the first
// member's thumbnail as a cover image, newest first.
func (r *PostgresPlaylistRepository) ListByOwner(ctx context.Context, ownerID string) ([]PlaylistSummaryRow, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT p.id, p.owner_id, p.name, p.description, p.is_public, p.created_at, p.updated_at,
               (SELECT COUNT(*) FROM playlist_videos pv WHERE pv.playlist_id = p.id) AS video_count,
               COALESCE((
                   SELECT v.thumbnail_url
                   FROM playlist_videos pv
                   JOIN videos v ON v.id = pv.video_id
                   WHERE pv.playlist_id = p.id
                   ORDER BY pv.position
                   LIMIT 1
               ), '') AS cover_thumbnail
        FROM playlists p
        WHERE p.owner_id = $1
        ORDER BY p.created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query owner playlists: %w", err)
	}
	defer rows.Close()

	var out []PlaylistSummaryRow
	for rows.Next() {
		var row PlaylistSummaryRow
		if err := rows.Scan(
			&row.Playlist.ID, &row.Playlist.OwnerID, &row.Playlist.Name, &row.Playlist.Description, &row.Playlist.IsPublic,
			&row.Playlist.CreatedAt, &row.Playlist.UpdatedAt,
			&row.VideoCount, &row.CoverThumbnail,
		); err != nil {
			return nil, fmt.Errorf("scan owner playlist: %w", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owner playlists: %w", err)
	}

	return out, nil
}

var _ PlaylistRepository = (*PostgresPlaylistRepository)(nil)
