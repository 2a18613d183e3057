package repositories

import (
	"context"
	"fmt"

	"github.com/tubeworks/backend/internal/db"
	"github.com/tubeworks/backend/internal/models"
)

// LikeRepository defines the data access contract for like edges. Insert is
// guarded by partial unique indexes on (liked_by, video_id) and
// (liked_by, comment_id); a concurrent duplicate surfaces as ErrConflict.
type LikeRepository interface {
	Insert(ctx context.Context, like models.Like) error
	Remove(ctx context.Context, actorID string, target models.LikeTarget) (bool, error)
	CountForTarget(ctx context.Context, target models.LikeTarget) (int64, error)
	LikedCommentIDs(ctx context.Context, actorID string, commentIDs []string) (map[string]bool, error)
	DeleteForVideo(ctx context.Context, videoID string) error
	DeleteForVideoComments(ctx context.Context, videoID string) error
	DeleteForComment(ctx context.Context, commentID string) error
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for like edges.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// targetColumns splits the tagged target into the two nullable columns the
// schema stores, keeping exactly-one-populated at the check constraint.
func targetColumns(target models.LikeTarget) (videoID, commentID any) {
	switch target.Kind() {
	case models.LikeTargetVideo:
		return target.ID(), nil
	case models.LikeTargetComment:
		return nil, target.ID()
	}
	return nil, nil
}

// Insert creates a like edge. Returns ErrConflict when the edge already
// exists (including the concurrent duplicate-insert case) and ErrNotFound
// when the target row is gone.
func (r *PostgresLikeRepository) Insert(ctx context.Context, like models.Like) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	videoID, commentID := targetColumns(like.Target)

	_, err = conn.Exec(ctx, `
        INSERT INTO likes (id, liked_by, video_id, comment_id, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, like.ID, like.LikedBy, videoID, commentID, like.CreatedAt)
	if err != nil {
		if mapped := classify(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert like: %w", err)
	}

	return nil
}

// Remove deletes the edge for (actor, target) and reports whether one
// existed.
func (r *PostgresLikeRepository) Remove(ctx context.Context, actorID string, target models.LikeTarget) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	videoID, commentID := targetColumns(target)

	tag, err := conn.Exec(ctx, `
        DELETE FROM likes
        WHERE liked_by = $1
          AND video_id IS NOT DISTINCT FROM $2
          AND comment_id IS NOT DISTINCT FROM $3
    `, actorID, videoID, commentID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// CountForTarget computes the current like count for a target. Counts are
// always derived fresh; no counter column exists to drift.
func (r *PostgresLikeRepository) CountForTarget(ctx context.Context, target models.LikeTarget) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	videoID, commentID := targetColumns(target)

	var count int64
	err = conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM likes
        WHERE video_id IS NOT DISTINCT FROM $1
          AND comment_id IS NOT DISTINCT FROM $2
    `, videoID, commentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}

	return count, nil
}

// LikedCommentIDs returns, in one batched query, which of the provided
// comment ids the actor has liked.
func (r *PostgresLikeRepository) LikedCommentIDs(ctx context.Context, actorID string, commentIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool, len(commentIDs))
	if actorID == "" || len(commentIDs) == 0 {
		return liked, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT comment_id FROM likes
        WHERE liked_by = $1 AND comment_id = ANY($2)
    `, actorID, commentIDs)
	if err != nil {
		return nil, fmt.Errorf("query liked comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var commentID string
		if err := rows.Scan(&commentID); err != nil {
			return nil, fmt.Errorf("scan liked comment id: %w", err)
		}
		liked[commentID] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liked comments: %w", err)
	}

	return liked, nil
}

// DeleteForVideo removes all likes targeting the video itself (cascade step).
func (r *PostgresLikeRepository) DeleteForVideo(ctx context.Context, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `DELETE FROM likes WHERE video_id = $1`, videoID); err != nil {
		return fmt.Errorf("delete likes for video: %w", err)
	}

	return nil
}

// DeleteForVideoComments removes all likes targeting comments of the video.
// Must run before the comments themselves are deleted.
func (r *PostgresLikeRepository) DeleteForVideoComments(ctx context.Context, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        DELETE FROM likes
        WHERE comment_id IN (SELECT id FROM comments WHERE video_id = $1)
    `, videoID)
	if err != nil {
		return fmt.Errorf("delete likes for video comments: %w", err)
	}

	return nil
}

// DeleteForComment removes all likes targeting a single comment.
func (r *PostgresLikeRepository) DeleteForComment(ctx context.Context, commentID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `DELETE FROM likes WHERE comment_id = $1`, commentID); err != nil {
		return fmt.Errorf("delete likes for comment: %w", err)
	}

	return nil
}

var _ LikeRepository = (*PostgresLikeRepository)(nil)
