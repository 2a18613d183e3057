package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/tubeworks/backend/internal/db"
	"github.com/tubeworks/backend/internal/models"
)

// ChannelRow is a followed channel joined to its own subscriber count, used
// when listing the channels a user follows.
type ChannelRow struct {
	Channel         models.Profile
	SubscriberCount int64
	SubscribedAt    time.Time
}

// SubscriptionRepository defines the data access contract for subscription
// edges. Insert is guarded by a unique (subscriber_id, channel_id)
// constraint.
type SubscriptionRepository interface {
	Insert(ctx context.Context, sub models.Subscription) error
	Remove(ctx context.Context, subscriberID, channelID string) (bool, error)
	CountForChannel(ctx context.Context, channelID string) (int64, error)
	ListChannels(ctx context.Context, subscriberID string, offset, limit int) ([]ChannelRow, int64, error)
	ListSubscribers(ctx context.Context, channelID string, offset, limit int) ([]models.Profile, int64, error)
}

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for
// subscription edges.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository
// backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Insert creates a subscription edge. Returns ErrConflict when the edge
// already exists and ErrNotFound when either user row is gone.
func (r *PostgresSubscriptionRepository) Insert(ctx context.Context, sub models.Subscription) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, $4)
    `, sub.ID, sub.SubscriberID, sub.ChannelID, sub.CreatedAt)
	if err != nil {
		if mapped := classify(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert subscription: %w", err)
	}

	return nil
}

// Remove deletes the edge and reports whether one existed.
func (r *PostgresSubscriptionRepository) Remove(ctx context.Context, subscriberID, channelID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM subscriptions
        WHERE subscriber_id = $1 AND channel_id = $2
    `, subscriberID, channelID)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// CountForChannel computes the channel's current subscriber count.
func (r *PostgresSubscriptionRepository) CountForChannel(ctx context.Context, channelID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`, channelID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}

	return count, nil
}

// ListChannels returns a page of channels the user follows, each joined to
// that channel's own subscriber count, newest subscription first.
func (r *PostgresSubscriptionRepository) ListChannels(ctx context.Context, subscriberID string, offset, limit int) ([]ChannelRow, int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1`, subscriberID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count subscriptions: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT u.id, u.username, u.full_name, u.avatar_url,
               (SELECT COUNT(*) FROM subscriptions s2 WHERE s2.channel_id = u.id) AS subscriber_count,
               s.created_at
        FROM subscriptions s
        JOIN users u ON u.id = s.channel_id
        WHERE s.subscriber_id = $1
        ORDER BY s.created_at DESC
        OFFSET $2 LIMIT $3
    `, subscriberID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var out []ChannelRow
	for rows.Next() {
		var row ChannelRow
		if err := rows.Scan(&row.Channel.ID, &row.Channel.Username, &row.Channel.FullName, &row.Channel.AvatarURL, &row.SubscriberCount, &row.SubscribedAt); err != nil {
			return nil, 0, fmt.Errorf("scan subscription row: %w", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate subscriptions: %w", err)
	}

	return out, total, nil
}

// ListSubscribers returns a page of the channel's subscribers as public
// profiles, newest first.
func (r *PostgresSubscriptionRepository) ListSubscribers(ctx context.Context, channelID string, offset, limit int) ([]models.Profile, int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int64
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`, channelID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count subscribers: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT u.id, u.username, u.full_name, u.avatar_url
        FROM subscriptions s
        JOIN users u ON u.id = s.subscriber_id
        WHERE s.channel_id = $1
        ORDER BY s.created_at DESC
        OFFSET $2 LIMIT $3
    `, channelID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("query subscribers: %w", err)
	}
	defer rows.Close()

	var out []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.FullName, &p.AvatarURL); err != nil {
			return nil, 0, fmt.Errorf("scan subscriber row: %w", err)
		}
		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate subscribers: %w", err)
	}

	return out, total, nil
}

var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
