package repositories

import (
	"context"
	"fmt"

	"github.com/tubeworks/backend/internal/db"
)

// PostgresEntityChecker answers cheap existence questions for toggle
// preconditions without loading whole rows.
type PostgresEntityChecker struct {
	pool db.Pool
}

// NewPostgresEntityChecker constructs an entity checker backed by PostgreSQL.
func NewPostgresEntityChecker(pool db.Pool) *PostgresEntityChecker {
	return &PostgresEntityChecker{pool: pool}
}

func (c *PostgresEntityChecker) exists(ctx context.Context, table, id string) error {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var found bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table)
	if err := conn.QueryRow(ctx, query, id).Scan(&found); err != nil {
		return fmt.Errorf("check %s existence: %w", table, err)
	}

	if !found {
		return ErrNotFound
	}

	return nil
}

// VideoExists returns ErrNotFound when no video row has the id.
func (c *PostgresEntityChecker) VideoExists(ctx context.Context, id string) error {
	return c.exists(ctx, "videos", id)
}

// CommentExists returns ErrNotFound when no comment row has the id.
func (c *PostgresEntityChecker) CommentExists(ctx context.Context, id string) error {
	return c.exists(ctx, "comments", id)
}

// UserExists returns ErrNotFound when no user row has the id.
func (c *PostgresEntityChecker) UserExists(ctx context.Context, id string) error {
	return c.exists(ctx, "users", id)
}
